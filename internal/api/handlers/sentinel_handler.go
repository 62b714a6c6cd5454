package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"agrihub/internal/engine/proxy"
	apiErrors "agrihub/internal/pkg/errors"
)

// SentinelHandler proxies the satellite imagery worker and manages NDVI
// alert configuration in the context broker.
type SentinelHandler struct {
	worker     *proxy.Client
	orion      *proxy.Client
	contextURL string
	fallback   bool
}

func NewSentinelHandler(worker, orion *proxy.Client, contextURL string, fallback bool) *SentinelHandler {
	return &SentinelHandler{worker: worker, orion: orion, contextURL: contextURL, fallback: fallback}
}

func (h *SentinelHandler) RequestAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ParcelID      string   `json:"parcelId"`
		StartDate     string   `json:"startDate"`
		EndDate       string   `json:"endDate"`
		Indices       []string `json:"indices"`
		CloudCoverMax *float64 `json:"cloudCoverMax"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.ParcelID == "" || req.StartDate == "" || req.EndDate == "" {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "parcelId, startDate and endDate are required", nil)
		return
	}

	if len(req.Indices) == 0 {
		req.Indices = []string{"NDVI"}
	}
	cloudCoverMax := 30.0
	if req.CloudCoverMax != nil {
		cloudCoverMax = *req.CloudCoverMax
	}

	tenantID := tenantFrom(r)
	raw, err := h.worker.Do(r.Context(), proxy.Request{
		Method: http.MethodPost,
		Path:   "/api/analyze",
		Body: map[string]interface{}{
			"parcel_id":       req.ParcelID,
			"start_date":      req.StartDate,
			"end_date":        req.EndDate,
			"indices":         req.Indices,
			"cloud_cover_max": cloudCoverMax,
			"tenant_id":       tenantID,
		},
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, mockAnalysisJob(req.ParcelID, req.Indices))
}

func (h *SentinelHandler) GetAnalysisResults(w http.ResponseWriter, r *http.Request) {
	parcelID := paramsFrom(r).ByName("parcel_id")
	tenantID := tenantFrom(r)

	query := url.Values{}
	for _, key := range []string{"start_date", "end_date", "index"} {
		if v := r.URL.Query().Get(key); v != "" {
			query.Set(key, v)
		}
	}

	raw, err := h.worker.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/api/parcels/" + parcelID + "/results",
		Query:    query,
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, mockAnalysisResults(parcelID))
}

// GetAlerts serves the active NDVI alerts. Alert state lives in the hub until
// the worker grows an alerts endpoint.
func (h *SentinelHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := mockNDVIAlerts()

	if parcelID := r.URL.Query().Get("parcel_id"); parcelID != "" {
		var filtered []map[string]interface{}
		for _, a := range alerts {
			if a["parcelId"] == parcelID {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	if severity := r.URL.Query().Get("severity"); severity != "" {
		var filtered []map[string]interface{}
		for _, a := range alerts {
			if a["severity"] == severity {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	if alerts == nil {
		alerts = []map[string]interface{}{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

// SetThresholds updates NDVI alert thresholds on the parcel entity in the
// context broker. A broker failure is logged but does not fail the request;
// thresholds are advisory configuration.
func (h *SentinelHandler) SetThresholds(w http.ResponseWriter, r *http.Request) {
	parcelID := paramsFrom(r).ByName("parcel_id")
	tenantID := tenantFrom(r)

	var thresholds struct {
		LowNDVI      *float64 `json:"lowNdvi"`
		RapidDecline *float64 `json:"rapidDecline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&thresholds); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	lowNDVI := 0.3
	if thresholds.LowNDVI != nil {
		lowNDVI = *thresholds.LowNDVI
	}
	rapidDecline := 0.15
	if thresholds.RapidDecline != nil {
		rapidDecline = *thresholds.RapidDecline
	}

	_, err := h.orion.Do(r.Context(), proxy.Request{
		Method: http.MethodPatch,
		Path:   "/ngsi-ld/v1/entities/" + parcelID + "/attrs",
		Body: map[string]interface{}{
			"ndviThresholds": map[string]interface{}{
				"type": "Property",
				"value": map[string]float64{
					"lowNdvi":      lowNDVI,
					"rapidDecline": rapidDecline,
				},
			},
		},
		Headers: map[string]string{
			"NGSILD-Tenant": tenantID,
			"Link":          fmt.Sprintf(`<%s>; rel="http://www.w3.org/ns/json-ld#context"; type="application/ld+json"`, h.contextURL),
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("parcel_id", parcelID).Msg("context broker threshold update failed")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"parcelId": parcelID,
		"thresholds": map[string]float64{
			"lowNdvi":      lowNDVI,
			"rapidDecline": rapidDecline,
		},
		"message": "Thresholds updated",
	})
}
