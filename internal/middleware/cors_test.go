package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func corsHandler(origins ...string) http.Handler {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = origins
	return CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestOriginPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"nothing configured", nil, "https://example.com", false},
		{"exact", []string{"https://example.com"}, "https://example.com", true},
		{"exact is case insensitive", []string{"HTTPS://Example.com"}, "https://EXAMPLE.com", true},
		{"port matters", []string{"http://localhost:9000"}, "http://localhost:9001", false},
		{"subdomain pattern", []string{"*.example.com"}, "https://app.example.com", true},
		{"subdomain pattern needs a subdomain", []string{"*.example.com"}, "https://badexample.com", false},
		{"subdomain pattern excludes apex", []string{"*.example.com"}, "https://example.com", false},
		{"wildcard", []string{"*"}, "https://anything.test", true},
		{"blank entries ignored", []string{" ", ""}, "https://example.com", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := newOriginPolicy(tt.allowed).allows(tt.origin); got != tt.want {
				t.Errorf("allows(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
	}{
		{"no origin header passes through", []string{"http://localhost:9000"}, "", http.MethodGet, http.StatusOK, ""},
		{"allowed simple request", []string{"http://localhost:9000"}, "http://localhost:9000", http.MethodGet, http.StatusOK, "http://localhost:9000"},
		{"disallowed simple request runs without headers", []string{"http://localhost:9000"}, "https://evil.test", http.MethodPost, http.StatusOK, ""},
		{"disallowed preflight", []string{"http://localhost:9000"}, "https://evil.test", http.MethodOptions, http.StatusForbidden, ""},
		{"allowed preflight", []string{"http://localhost:9000"}, "http://localhost:9000", http.MethodOptions, http.StatusNoContent, "http://localhost:9000"},
		{"wildcard reflects origin", []string{"*"}, "https://client.test", http.MethodGet, http.StatusOK, "https://client.test"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/posts", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			corsHandler(tt.allowed...).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", "http://localhost:9000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-CSRFToken")
	rec := httptest.NewRecorder()

	corsHandler("http://localhost:9000").ServeHTTP(rec, req)

	h := rec.Header()
	if got := h.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}
	if got := h.Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPatch) {
		t.Errorf("Access-Control-Allow-Methods = %q, want PATCH included", got)
	}
	if got := h.Get("Access-Control-Allow-Headers"); !strings.Contains(got, CSRFHeaderName) {
		t.Errorf("Access-Control-Allow-Headers = %q, want %s included", got, CSRFHeaderName)
	}
	if got := h.Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Access-Control-Max-Age = %q, want 86400", got)
	}
	if got := strings.Join(h.Values("Vary"), ","); !strings.Contains(got, "Access-Control-Request-Method") {
		t.Errorf("Vary = %q, want the request method listed", got)
	}
	if got := h.Get("Access-Control-Expose-Headers"); got != "" {
		t.Errorf("preflight should not expose headers, got %q", got)
	}
}

func TestCORS_ExposesHeadersOnActualRequests(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/custom-header", nil)
	req.Header.Set("Origin", "http://localhost:9000")
	rec := httptest.NewRecorder()

	corsHandler("http://localhost:9000").ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Custom-Header") {
		t.Errorf("Access-Control-Expose-Headers = %q, want Custom-Header included", got)
	}
}
