package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/quillhq/quill/internal/auth"
)

// CSRF cookie and header names.
const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
)

const csrfContextKey contextKey = "csrf_token"

// CSRFConfig configures the double-submit cookie check.
type CSRFConfig struct {
	Logger *slog.Logger
	Signer *auth.CSRFSigner
	// SensitiveCookies trigger the check when any of them is present.
	SensitiveCookies []string
	CookieSecure     bool
	CookieDomain     string
}

// CSRF implements double-submit cookie protection.
//
// Every response carries a signed csrftoken cookie (reused when the request
// already holds a valid one). Unsafe requests that send a sensitive cookie must
// echo the cookie value in the X-CSRFToken header, else they get 403.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookieToken := ""
			if c, err := r.Cookie(CSRFCookieName); err == nil && cfg.Signer.Valid(c.Value) {
				cookieToken = c.Value
			}

			if !isSafeMethod(r.Method) && hasSensitiveCookie(r, cfg.SensitiveCookies) {
				header := r.Header.Get(CSRFHeaderName)
				if cookieToken == "" || subtle.ConstantTimeCompare([]byte(header), []byte(cookieToken)) != 1 {
					cfg.Logger.Warn("csrf verification failed",
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.Bool("cookie_present", cookieToken != ""),
						slog.Bool("header_present", header != ""),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeDetail(w, http.StatusForbidden, "CSRF token verification failed")
					return
				}
			}

			token := cookieToken
			if token == "" {
				fresh, err := cfg.Signer.Generate()
				if err != nil {
					cfg.Logger.Error("csrf token generation failed", slog.String("error", err.Error()))
					writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
					return
				}
				token = fresh
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					Domain:   cfg.CookieDomain,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), csrfContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CSRFToken returns the token issued for the current request.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey).(string)
	return token
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func hasSensitiveCookie(r *http.Request, names []string) bool {
	for _, name := range names {
		if _, err := r.Cookie(name); err == nil {
			return true
		}
	}
	return false
}
