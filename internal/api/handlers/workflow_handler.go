package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"agrihub/internal/engine/proxy"
	apiErrors "agrihub/internal/pkg/errors"
)

// WorkflowHandler proxies the n8n workflow engine API.
type WorkflowHandler struct {
	client   *proxy.Client
	fallback bool
}

func NewWorkflowHandler(client *proxy.Client, fallback bool) *WorkflowHandler {
	return &WorkflowHandler{client: client, fallback: fallback}
}

func (h *WorkflowHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/api/v1/workflows",
		TenantID: tenantFrom(r),
	})
	if err != nil {
		writeUpstream(w, nil, err, h.fallback, mockWorkflows())
		return
	}

	// n8n wraps the list in a "data" envelope; flatten it and apply the
	// optional active filter.
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		apiErrors.WriteError(w, http.StatusBadGateway, apiErrors.ErrCodeUpstreamUnavailable, "Unexpected workflow engine response", nil)
		return
	}

	workflows := envelope.Data
	if activeParam := r.URL.Query().Get("active"); activeParam != "" {
		wantActive := activeParam == "true"
		filtered := make([]map[string]interface{}, 0, len(workflows))
		for _, wf := range workflows {
			if active, _ := wf["active"].(bool); active == wantActive {
				filtered = append(filtered, wf)
			}
		}
		workflows = filtered
	}
	if workflows == nil {
		workflows = []map[string]interface{}{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"workflows": workflows})
}

func (h *WorkflowHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id := paramsFrom(r).ByName("workflow_id")

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/api/v1/workflows/" + id,
		TenantID: tenantFrom(r),
	})
	writeUpstream(w, raw, err, false, nil)
}

func (h *WorkflowHandler) ToggleWorkflow(w http.ResponseWriter, r *http.Request) {
	id := paramsFrom(r).ByName("workflow_id")

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	action := "deactivate"
	if req.Active {
		action = "activate"
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodPost,
		Path:     "/api/v1/workflows/" + id + "/" + action,
		TenantID: tenantFrom(r),
	})
	writeUpstream(w, raw, err, h.fallback, map[string]interface{}{
		"id":      id,
		"active":  req.Active,
		"message": "Workflow status updated (mock)",
	})
}

func (h *WorkflowHandler) ExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := paramsFrom(r).ByName("workflow_id")
	claims := claimsFrom(r)
	tenantID := tenantFrom(r)

	var req struct {
		EntityID   string                 `json:"entityId"`
		EntityType string                 `json:"entityType"`
		Data       map[string]interface{} `json:"data"`
	}
	// The body is optional for manual runs.
	json.NewDecoder(r.Body).Decode(&req)

	execution := map[string]interface{}{
		"tenantId":  tenantID,
		"userId":    claims.Subject,
		"userEmail": claims.Email,
	}
	if req.EntityID != "" {
		execution["entityId"] = req.EntityID
	}
	if req.EntityType != "" {
		execution["entityType"] = req.EntityType
	}
	for k, v := range req.Data {
		execution[k] = v
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodPost,
		Path:     "/api/v1/workflows/" + id + "/run",
		Body:     execution,
		TenantID: tenantID,
	})
	writeUpstream(w, raw, err, h.fallback, mockExecution(id))
}

// ListWebhookEndpoints reports the webhook trigger nodes exposed by the
// workflow engine. The n8n public API has no listing for these, so the
// catalog is maintained here.
func (h *WorkflowHandler) ListWebhookEndpoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mockWebhookEndpoints())
}

func (h *WorkflowHandler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	query := url.Values{}
	limit := r.URL.Query().Get("limit")
	if limit == "" {
		limit = "20"
	}
	query.Set("limit", limit)
	if workflowID := r.URL.Query().Get("workflow_id"); workflowID != "" {
		query.Set("workflowId", workflowID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query.Set("status", status)
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/api/v1/executions",
		Query:    query,
		TenantID: tenantFrom(r),
	})
	writeUpstream(w, raw, err, h.fallback, mockExecutions())
}

func (h *WorkflowHandler) GetExecution(w http.ResponseWriter, r *http.Request) {
	id := paramsFrom(r).ByName("execution_id")

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/api/v1/executions/" + id,
		TenantID: tenantFrom(r),
	})
	writeUpstream(w, raw, err, false, nil)
}
