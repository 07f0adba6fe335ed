package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quillhq/quill/internal/auth"
)

func newCSRFHandler(signer *auth.CSRFSigner) http.Handler {
	cfg := CSRFConfig{
		Logger:           discardLogger(),
		Signer:           signer,
		SensitiveCookies: []string{TokenCookieName},
	}
	return CSRF(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CSRFToken(r.Context())))
	}))
}

func csrfCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	return nil
}

func TestCSRF_IssuesCookie(t *testing.T) {
	t.Parallel()

	signer := auth.NewCSRFSigner("test-secret")
	handler := newCSRFHandler(signer)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/csrf", nil))

	c := csrfCookie(rec)
	if c == nil {
		t.Fatal("expected csrftoken cookie")
	}
	if !signer.Valid(c.Value) {
		t.Errorf("issued token %q does not verify", c.Value)
	}
	if rec.Body.String() != c.Value {
		t.Errorf("context token %q differs from cookie %q", rec.Body.String(), c.Value)
	}

	// A valid cookie is reused rather than rotated.
	req := httptest.NewRequest(http.MethodGet, "/csrf", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if csrfCookie(rec) != nil {
		t.Error("valid cookie should not be reissued")
	}
	if rec.Body.String() != c.Value {
		t.Errorf("context token = %q, want %q", rec.Body.String(), c.Value)
	}
}

func TestCSRF_DoubleSubmit(t *testing.T) {
	t.Parallel()

	signer := auth.NewCSRFSigner("test-secret")
	other := auth.NewCSRFSigner("other-secret")
	handler := newCSRFHandler(signer)

	good, err := signer.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	forged, err := other.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	tests := []struct {
		name        string
		method      string
		tokenCookie bool
		csrfCookie  string
		header      string
		wantStatus  int
	}{
		{"safe method skips check", http.MethodGet, true, "", "", http.StatusOK},
		{"no session cookie skips check", http.MethodPost, false, "", "", http.StatusOK},
		{"matching header passes", http.MethodPost, true, good, good, http.StatusOK},
		{"missing header fails", http.MethodPost, true, good, "", http.StatusForbidden},
		{"mismatched header fails", http.MethodPatch, true, good, "x" + good, http.StatusForbidden},
		{"missing cookie fails", http.MethodDelete, true, "", good, http.StatusForbidden},
		{"foreign signature fails", http.MethodPost, true, forged, forged, http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/me", strings.NewReader(`{}`))
			if tt.tokenCookie {
				req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "session"})
			}
			if tt.csrfCookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.csrfCookie})
			}
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if got := strings.TrimSpace(rec.Body.String()); got != `{"detail":"CSRF token verification failed"}` {
					t.Errorf("body = %s", got)
				}
			}
		})
	}
}
