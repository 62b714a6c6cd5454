package webhooks

import (
	"context"

	"github.com/rs/zerolog/log"
	"agrihub/internal/platform/models"
)

// EventSink receives inbound callback payloads for internal routing. The
// business handling lives outside this gateway; LogSink is the default
// acknowledge-and-log implementation.
type EventSink interface {
	Handle(event string, payload map[string]interface{}, source string)
}

type LogSink struct{}

func (LogSink) Handle(event string, payload map[string]interface{}, source string) {
	log.Info().Str("event", event).Str("source", source).
		Interface("payload", payload).Msg("inbound webhook received")
}

// DispatchSink fans inbound vocabulary events back out to registered
// webhook subscribers, so a callback from the workflow engine reaches every
// subscribed target. Non-vocabulary events are logged and dropped.
type DispatchSink struct {
	dispatcher *Dispatcher
}

func NewDispatchSink(dispatcher *Dispatcher) *DispatchSink {
	return &DispatchSink{dispatcher: dispatcher}
}

func (s *DispatchSink) Handle(event string, payload map[string]interface{}, source string) {
	log.Info().Str("event", event).Str("source", source).Msg("inbound webhook received")

	if event == "" || !models.IsValidEvent(event) {
		return
	}

	tenantID, _ := payload["tenantId"].(string)
	data := payload["data"]
	if data == nil {
		data = payload
	}

	// Delivery happens off the intake request path; the intake always acks.
	go s.dispatcher.Dispatch(context.Background(), event, tenantID, data)
}
