package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wmsopt/backend/internal/auth"
	"github.com/wmsopt/backend/internal/dashboard"
)

func TestRouter_MethodNotAllowed(t *testing.T) {
	h := New(auth.NewHandler(nil, nil), dashboard.NewHandler(nil, nil, nil, nil))

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/auth/register"},
		{http.MethodGet, "/api/auth/login"},
		{http.MethodPost, "/api/account/me"},
		{http.MethodDelete, "/api/analytics/summary"},
		{http.MethodPut, "/api/api-keys"},
		{http.MethodGet, "/api/api-keys/8b0b3c1e-7c43-4a8e-9f1e-0a4a0a8c7d10"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d, want 405", c.method, c.path, rec.Code)
		}
	}
}

func TestRouter_UnauthenticatedAccountRoutes(t *testing.T) {
	h := New(auth.NewHandler(nil, nil), dashboard.NewHandler(nil, nil, nil, nil))

	for _, path := range []string{"/api/account/me", "/api/api-keys", "/api/analytics/summary"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: status = %d, want 401", path, rec.Code)
		}
	}
}
