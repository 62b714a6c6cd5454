package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"agrihub/internal/engine/proxy"
	"agrihub/internal/engine/webhooks"
	apiErrors "agrihub/internal/pkg/errors"
)

// NotificationHandler orchestrates multi-channel alert delivery. Email goes
// through the email service; other channels are not wired up yet and report
// sent without side effects.
type NotificationHandler struct {
	email      *proxy.Client
	dispatcher *webhooks.Dispatcher
}

func NewNotificationHandler(email *proxy.Client, dispatcher *webhooks.Dispatcher) *NotificationHandler {
	return &NotificationHandler{email: email, dispatcher: dispatcher}
}

type channelResult struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channels    []string               `json:"channels"`
		Recipients  []string               `json:"recipients"`
		Template    string                 `json:"template"`
		Data        map[string]interface{} `json:"data"`
		Priority    string                 `json:"priority"`
		ScheduledAt string                 `json:"scheduledAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if len(req.Channels) == 0 || len(req.Recipients) == 0 || req.Template == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "channels, recipients and template are required", nil)
		return
	}
	if req.Priority == "" {
		req.Priority = "normal"
	}

	tenantID := tenantFrom(r)
	results := make([]channelResult, 0, len(req.Channels)*len(req.Recipients))
	sent := 0

	for _, channel := range req.Channels {
		for _, recipient := range req.Recipients {
			result := channelResult{Channel: channel, Recipient: recipient, Status: "sent"}

			if channel == "email" {
				_, err := h.email.Do(r.Context(), proxy.Request{
					Method: http.MethodPost,
					Path:   "/send",
					Body: map[string]interface{}{
						"to":       recipient,
						"template": req.Template,
						"data":     req.Data,
						"priority": req.Priority,
					},
					TenantID: tenantID,
					Headers:  map[string]string{fiwareServiceHeader: tenantID},
				})
				if err != nil {
					result.Status = "failed"
					result.Error = err.Error()
				}
			}

			if result.Status == "sent" {
				sent++
			}
			results = append(results, result)
		}
	}

	if sent > 0 {
		go h.dispatcher.Dispatch(context.Background(), "notification.sent", tenantID, map[string]interface{}{
			"template":   req.Template,
			"channels":   req.Channels,
			"recipients": len(req.Recipients),
			"delivered":  sent,
		})
	}

	writeJSON(w, http.StatusOK, results)
}

func (h *NotificationHandler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mockNotificationTemplates())
}

func (h *NotificationHandler) TestChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel   string `json:"channel"`
		Recipient string `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Channel == "" || req.Recipient == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "channel and recipient are required", nil)
		return
	}

	result := map[string]interface{}{
		"channel":   req.Channel,
		"recipient": req.Recipient,
		"status":    "sent",
	}

	if req.Channel == "email" {
		tenantID := tenantFrom(r)
		_, err := h.email.Do(r.Context(), proxy.Request{
			Method: http.MethodPost,
			Path:   "/send",
			Body: map[string]interface{}{
				"to":      req.Recipient,
				"subject": "[TEST] Notification channel test",
				"body":    "This is a test notification from the integration hub.\nTriggered by: " + claimsFrom(r).Email,
			},
			TenantID: tenantID,
			Headers:  map[string]string{fiwareServiceHeader: tenantID},
		})
		if err != nil {
			result["status"] = "failed"
			result["error"] = err.Error()
			writeJSON(w, http.StatusOK, result)
			return
		}
		result["message"] = "Test notification sent successfully"
	} else {
		result["message"] = "Test " + req.Channel + " notification sent (mock)"
	}

	writeJSON(w, http.StatusOK, result)
}
