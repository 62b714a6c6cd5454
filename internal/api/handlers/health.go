package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"agrihub/internal/engine/proxy"
	apiErrors "agrihub/internal/pkg/errors"
)

const probeTimeout = 5 * time.Second

type IntegrationStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency,omitempty"`
	Message   string `json:"message,omitempty"`
	LastCheck int64  `json:"lastCheck,omitempty"`
}

// IntegrationCheck describes one upstream to probe. A nil client means the
// integration is not configured.
type IntegrationCheck struct {
	ID         string
	Name       string
	Client     *proxy.Client
	HealthPath string
}

type HealthHandler struct {
	appName string
	version string
	checks  []IntegrationCheck
}

func NewHealthHandler(appName, version string, checks []IntegrationCheck) *HealthHandler {
	return &HealthHandler{appName: appName, version: version, checks: checks}
}

// Check is the root liveness probe.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.appName,
		"version": h.version,
	})
}

// Integrations probes every upstream concurrently and reports per-service
// status. A slow or dead upstream never delays the others.
func (h *HealthHandler) Integrations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.runChecks(r.Context()))
}

func (h *HealthHandler) Integration(w http.ResponseWriter, r *http.Request) {
	id := paramsFrom(r).ByName("integration_id")

	for _, status := range h.runChecks(r.Context()) {
		if status.ID == id {
			writeJSON(w, http.StatusOK, status)
			return
		}
	}

	apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, "Integration "+id+" not found", nil)
}

func (h *HealthHandler) runChecks(ctx context.Context) []IntegrationStatus {
	results := make([]IntegrationStatus, len(h.checks))
	var wg sync.WaitGroup

	for i, check := range h.checks {
		wg.Add(1)
		go func(i int, check IntegrationCheck) {
			defer wg.Done()
			results[i] = probe(ctx, check)
		}(i, check)
	}
	wg.Wait()

	return results
}

func probe(ctx context.Context, check IntegrationCheck) IntegrationStatus {
	status := IntegrationStatus{ID: check.ID, Name: check.Name}

	if check.Client == nil {
		status.Status = "unknown"
		status.Message = "Not configured"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	start := time.Now()
	err := check.Client.Ping(ctx, check.HealthPath)
	status.LatencyMS = time.Since(start).Milliseconds()
	status.LastCheck = time.Now().Unix()

	switch e := err.(type) {
	case nil:
		status.Status = "healthy"
	case *proxy.StatusError:
		status.Status = "degraded"
		status.Message = e.Error()
	case *proxy.UnavailableError:
		if e.Timeout {
			status.Status = "unhealthy"
			status.Message = "Timeout"
		} else {
			status.Status = "unknown"
			status.Message = e.Error()
		}
	default:
		status.Status = "unknown"
		status.Message = err.Error()
	}

	return status
}
