package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apiContext "agrihub/internal/api/context"
	"agrihub/internal/platform/auth"
)

func TestTenantMiddleware(t *testing.T) {
	mid := NewTenantMiddleware()

	run := func(t *testing.T, req *http.Request, wantTenant string) int {
		t.Helper()
		rr := httptest.NewRecorder()
		handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
			got, _ := r.Context().Value(apiContext.Tenant).(string)
			if got != wantTenant {
				t.Errorf("tenant in context = %q, want %q", got, wantTenant)
			}
			w.WriteHeader(http.StatusOK)
		})
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	t.Run("from claim", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{TenantID: "farm-1"})
		if code := run(t, req.WithContext(ctx), "farm-1"); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	})

	t.Run("claim wins over header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(HeaderTenantID, "farm-other")
		ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{TenantID: "farm-1"})
		if code := run(t, req.WithContext(ctx), "farm-1"); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	})

	t.Run("header fallback", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(HeaderTenantID, "farm-2")
		ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{})
		if code := run(t, req.WithContext(ctx), "farm-2"); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	})

	t.Run("no tenant anywhere", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{})
		rr := httptest.NewRecorder()
		handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler reached without a tenant")
		})
		handler.ServeHTTP(rr, req.WithContext(ctx))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})
}
