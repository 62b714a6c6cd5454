package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"agrihub/internal/engine/webhooks"
	apiErrors "agrihub/internal/pkg/errors"
	"agrihub/internal/platform/models"
	"agrihub/internal/platform/registry"
)

const maxInboundBody = 1 << 20

type WebhookHandler struct {
	service       *webhooks.Service
	dispatcher    *webhooks.Dispatcher
	sink          webhooks.EventSink
	inboundSecret string
}

func NewWebhookHandler(service *webhooks.Service, dispatcher *webhooks.Dispatcher, sink webhooks.EventSink, inboundSecret string) *WebhookHandler {
	return &WebhookHandler{
		service:       service,
		dispatcher:    dispatcher,
		sink:          sink,
		inboundSecret: inboundSecret,
	}
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to list webhooks", nil)
		return
	}
	if list == nil {
		list = []*models.Webhook{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"webhooks": list})
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string   `json:"name"`
		URL    string   `json:"url"`
		Secret string   `json:"secret"`
		Events []string `json:"events"`
		Active *bool    `json:"active"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" || req.URL == "" || len(req.Events) == 0 {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "name, url and events are required", nil)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	webhook, err := h.service.Create(req.Name, req.URL, req.Secret, req.Events, active)
	if err != nil {
		var invalid *webhooks.InvalidEventsError
		if errors.As(err, &invalid) {
			apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, err.Error(), invalid.Events)
			return
		}
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to create webhook", nil)
		return
	}

	writeJSON(w, http.StatusCreated, webhook)
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := paramsFrom(r).ByName("webhook_id")

	var upd models.WebhookUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	webhook, err := h.service.Update(id, upd)
	if err != nil {
		var invalid *webhooks.InvalidEventsError
		switch {
		case errors.As(err, &invalid):
			apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, err.Error(), invalid.Events)
		case errors.Is(err, registry.ErrNotFound):
			apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, fmt.Sprintf("Webhook %s not found", id), nil)
		default:
			apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to update webhook", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, webhook)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := paramsFrom(r).ByName("webhook_id")

	if err := h.service.Delete(id); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, fmt.Sprintf("Webhook %s not found", id), nil)
			return
		}
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to delete webhook", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Webhook %s deleted", id)})
}

func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	id := paramsFrom(r).ByName("webhook_id")

	triggeredBy := ""
	if claims := claimsFrom(r); claims != nil {
		triggeredBy = claims.Email
	}

	attempt, err := h.dispatcher.TestDeliver(r.Context(), id, triggeredBy)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, fmt.Sprintf("Webhook %s not found", id), nil)
			return
		}
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Failed to test webhook", nil)
		return
	}

	// The admin asked for the outcome; a failed delivery is still a 200.
	writeJSON(w, http.StatusOK, attempt)
}

// Inbound accepts callbacks from the workflow engine and external systems.
// It deliberately carries no bearer auth: callers are machines, and integrity
// is covered by the optional HMAC signature check below.
func (h *WebhookHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInboundBody))
	if err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Failed to read request body", nil)
		return
	}

	if h.inboundSecret != "" {
		signature := r.Header.Get("X-Webhook-Signature")
		if err := webhooks.Verify(body, signature, h.inboundSecret); err != nil {
			apiErrors.WriteError(w, http.StatusUnauthorized, apiErrors.ErrCodeUnauthorized, "Webhook verification failed", nil)
			return
		}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid JSON payload", nil)
		return
	}

	eventType, _ := payload["event"].(string)
	if eventType == "" {
		eventType, _ = payload["type"].(string)
	}
	source := r.URL.Query().Get("source")

	h.sink.Handle(eventType, payload, source)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"received":  true,
		"event":     eventType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
