package models

// EventTypes is the fixed vocabulary of subscribable webhook events.
var EventTypes = []string{
	"ndvi.alert",
	"ndvi.analysis.complete",
	"prediction.complete",
	"pest.detected",
	"robot.mission.start",
	"robot.mission.complete",
	"robot.error",
	"odoo.sync.complete",
	"notification.sent",
}

func IsValidEvent(event string) bool {
	for _, e := range EventTypes {
		if e == event {
			return true
		}
	}
	return false
}

type Webhook struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Secret          string   `json:"secret,omitempty"`
	Events          []string `json:"events"`
	Active          bool     `json:"active"`
	LastTriggeredAt *int64   `json:"lastTriggered"`
	FailureCount    int      `json:"failureCount"`
	CreatedAt       int64    `json:"createdAt"`
	UpdatedAt       int64    `json:"updatedAt"`
}

// Clone returns a copy safe to hand outside the store. Events is the only
// reference field.
func (w *Webhook) Clone() *Webhook {
	c := *w
	c.Events = append([]string(nil), w.Events...)
	if w.LastTriggeredAt != nil {
		t := *w.LastTriggeredAt
		c.LastTriggeredAt = &t
	}
	return &c
}

// WebhookUpdate carries a partial update. Nil fields retain the prior value.
type WebhookUpdate struct {
	Name   *string  `json:"name"`
	URL    *string  `json:"url"`
	Secret *string  `json:"secret"`
	Events []string `json:"events"`
	Active *bool    `json:"active"`
}

// WebhookEvent is the envelope POSTed to subscriber URLs.
type WebhookEvent struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	TenantID  string      `json:"tenantId,omitempty"`
	Data      interface{} `json:"data"`
}

// DeliveryAttempt records the outcome of one delivery to one target. It is
// never persisted.
type DeliveryAttempt struct {
	WebhookID  string `json:"webhookId"`
	Event      string `json:"event"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode,omitempty"`
	Response   string `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
}
