package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"agrihub/internal/engine/proxy"
	apiErrors "agrihub/internal/pkg/errors"
)

// The NDVI worker and intelligence service identify the tenant with the
// FIWARE multi-tenancy header.
const fiwareServiceHeader = "fiware-service"

// IntelligenceHandler proxies the ML inference service.
type IntelligenceHandler struct {
	client   *proxy.Client
	fallback bool
}

func NewIntelligenceHandler(client *proxy.Client, fallback bool) *IntelligenceHandler {
	return &IntelligenceHandler{client: client, fallback: fallback}
}

func (h *IntelligenceHandler) RequestPrediction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type       string                 `json:"type"`
		EntityID   string                 `json:"entityId"`
		EntityType string                 `json:"entityType"`
		Parameters map[string]interface{} `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Type == "" || req.EntityID == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "type and entityId are required", nil)
		return
	}

	tenantID := tenantFrom(r)
	params := req.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method: http.MethodPost,
		Path:   "/predict",
		Body: map[string]interface{}{
			"type":        req.Type,
			"entity_id":   req.EntityID,
			"entity_type": req.EntityType,
			"parameters":  params,
			"tenant_id":   tenantID,
			"user_id":     claimsFrom(r).Subject,
		},
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, mockPredictionJob(req.Type, req.EntityID))
}

func (h *IntelligenceHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	jobID := paramsFrom(r).ByName("job_id")
	tenantID := tenantFrom(r)

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/jobs/" + jobID,
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, mockPrediction(jobID))
}

func (h *IntelligenceHandler) GetEntityPredictions(w http.ResponseWriter, r *http.Request) {
	entityID := paramsFrom(r).ByName("entity_id")
	tenantID := tenantFrom(r)

	limit := 10
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if predictionType := r.URL.Query().Get("type"); predictionType != "" {
		query.Set("type", predictionType)
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/entities/" + entityID + "/predictions",
		Query:    query,
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, mockEntityPredictions(entityID))
}

// TriggerWebhook lets n8n workflows invoke intelligence analysis pipelines.
func (h *IntelligenceHandler) TriggerWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action     string                 `json:"action"`
		EntityID   string                 `json:"entityId"`
		EntityType string                 `json:"entityType"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Action == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "action is required", nil)
		return
	}

	tenantID := tenantFrom(r)
	data := req.Data
	if data == nil {
		data = map[string]interface{}{}
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method: http.MethodPost,
		Path:   "/webhook/n8n",
		Body: map[string]interface{}{
			"action":       req.Action,
			"entity_id":    req.EntityID,
			"entity_type":  req.EntityType,
			"data":         data,
			"tenant_id":    tenantID,
			"triggered_by": claimsFrom(r).Email,
		},
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, map[string]interface{}{
		"jobId":   newJobID(),
		"action":  req.Action,
		"status":  "triggered",
		"message": "Webhook processed",
	})
}

func (h *IntelligenceHandler) ListPlugins(w http.ResponseWriter, r *http.Request) {
	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method: http.MethodGet,
		Path:   "/plugins",
	})
	writeUpstream(w, raw, err, h.fallback, mockPlugins())
}
