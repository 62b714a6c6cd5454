package middleware

import (
	"context"
	"net/http"

	apiContext "agrihub/internal/api/context"
	"agrihub/internal/pkg/errors"
	"agrihub/internal/platform/auth"
)

// HeaderTenantID is the secondary tenant source, used when the token carries
// no tenant claim.
const HeaderTenantID = "X-Tenant-ID"

type TenantMiddleware struct{}

func NewTenantMiddleware() *TenantMiddleware {
	return &TenantMiddleware{}
}

// Handle resolves the tenant identifier from the verified claims, falling
// back to the X-Tenant-ID header. Routes wrapped with it require a tenant.
func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := resolve(r)
		if tenantID == "" {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "No tenant identifier in token or X-Tenant-ID header", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, tenantID)
		next(w, r.WithContext(ctx))
	}
}

func resolve(r *http.Request) string {
	if claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims); ok && claims.TenantID != "" {
		return claims.TenantID
	}
	return r.Header.Get(HeaderTenantID)
}
