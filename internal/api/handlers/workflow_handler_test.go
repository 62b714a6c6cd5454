package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrihub/internal/engine/proxy"
	"agrihub/internal/platform/config"
)

func upstreamClient(t *testing.T, name string, handler http.HandlerFunc) *proxy.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return proxy.New(name, config.UpstreamConfig{URL: server.URL, Timeout: 2 * time.Second})
}

func deadClient(name string) *proxy.Client {
	return proxy.New(name, config.UpstreamConfig{URL: "http://127.0.0.1:1", Timeout: time.Second})
}

func TestListWorkflowsFlattensEnvelope(t *testing.T) {
	client := upstreamClient(t, "n8n", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/workflows" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"1","active":true},{"id":"2","active":false}]}`))
	})
	handler := NewWorkflowHandler(client, false)

	t.Run("all workflows", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ListWorkflows(rr, httptest.NewRequest("GET", "/api/hub/n8n/workflows", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		var resp struct {
			Workflows []map[string]interface{} `json:"workflows"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if len(resp.Workflows) != 2 {
			t.Errorf("workflows = %v", resp.Workflows)
		}
	})

	t.Run("active filter", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ListWorkflows(rr, httptest.NewRequest("GET", "/api/hub/n8n/workflows?active=true", nil))

		var resp struct {
			Workflows []map[string]interface{} `json:"workflows"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if len(resp.Workflows) != 1 || resp.Workflows[0]["id"] != "1" {
			t.Errorf("workflows = %v, want active one only", resp.Workflows)
		}
	})
}

func TestListWebhookEndpoints(t *testing.T) {
	handler := NewWorkflowHandler(deadClient("n8n"), false)
	rr := httptest.NewRecorder()

	handler.ListWebhookEndpoints(rr, httptest.NewRequest("GET", "/api/hub/n8n/webhooks", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Webhooks []map[string]interface{} `json:"webhooks"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Webhooks) == 0 {
		t.Error("webhook endpoint catalog is empty")
	}
	for _, wh := range resp.Webhooks {
		if wh["workflowId"] == "" || wh["path"] == "" {
			t.Errorf("catalog entry missing fields: %v", wh)
		}
	}
}

func TestListWorkflowsFallback(t *testing.T) {
	t.Run("mock when enabled", func(t *testing.T) {
		handler := NewWorkflowHandler(deadClient("n8n"), true)
		rr := httptest.NewRecorder()
		handler.ListWorkflows(rr, httptest.NewRequest("GET", "/api/hub/n8n/workflows", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 mock", rr.Code)
		}
		var resp struct {
			Workflows []map[string]interface{} `json:"workflows"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if len(resp.Workflows) == 0 {
			t.Error("mock payload missing workflows")
		}
	})

	t.Run("503 when disabled", func(t *testing.T) {
		handler := NewWorkflowHandler(deadClient("n8n"), false)
		rr := httptest.NewRecorder()
		handler.ListWorkflows(rr, httptest.NewRequest("GET", "/api/hub/n8n/workflows", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rr.Code)
		}
		var resp struct {
			Code string `json:"code"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Code != "UPSTREAM_UNAVAILABLE" {
			t.Errorf("code = %q", resp.Code)
		}
	})

	t.Run("upstream status forwarded", func(t *testing.T) {
		client := upstreamClient(t, "n8n", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"bad api key"}`))
		})
		// Fallback applies only to unreachable upstreams, not HTTP errors.
		handler := NewWorkflowHandler(client, true)
		rr := httptest.NewRecorder()
		handler.ListWorkflows(rr, httptest.NewRequest("GET", "/api/hub/n8n/workflows", nil))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want upstream 401 forwarded", rr.Code)
		}
	})
}
