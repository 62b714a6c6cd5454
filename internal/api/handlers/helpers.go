package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "agrihub/internal/api/context"
	"agrihub/internal/engine/proxy"
	apiErrors "agrihub/internal/pkg/errors"
	"agrihub/internal/platform/auth"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRaw forwards an upstream JSON body as-is.
func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims
}

func tenantFrom(r *http.Request) string {
	tenantID, _ := r.Context().Value(apiContext.Tenant).(string)
	return tenantID
}

func paramsFrom(r *http.Request) httprouter.Params {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params
}

// writeUpstream resolves a proxied call: forward the body on success, forward
// the upstream status on an HTTP-level error, and otherwise either substitute
// the mock (when fallback is enabled) or surface 503/504.
func writeUpstream(w http.ResponseWriter, raw json.RawMessage, err error, fallback bool, mock interface{}) {
	if err == nil {
		writeRaw(w, http.StatusOK, raw)
		return
	}

	var statusErr *proxy.StatusError
	if errors.As(err, &statusErr) {
		apiErrors.WriteError(w, statusErr.StatusCode, apiErrors.ErrCodeUpstreamUnavailable,
			statusErr.Error(), statusErr.Body)
		return
	}

	if fallback && mock != nil {
		writeJSON(w, http.StatusOK, mock)
		return
	}

	var unavailable *proxy.UnavailableError
	if errors.As(err, &unavailable) && unavailable.Timeout {
		apiErrors.WriteError(w, http.StatusGatewayTimeout, apiErrors.ErrCodeTimeout, err.Error(), nil)
		return
	}
	apiErrors.WriteError(w, http.StatusServiceUnavailable, apiErrors.ErrCodeUpstreamUnavailable, err.Error(), nil)
}
