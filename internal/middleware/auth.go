package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quillhq/quill/internal/auth"
	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/service"
)

// TokenCookieName is the cookie carrying the access token for browser sessions.
const TokenCookieName = "token"

// TokenResolver maps an access token to its user. *service.AuthService implements it.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middlewares.
type AuthConfig struct {
	Logger   *slog.Logger
	Resolver TokenResolver
}

// BearerAuth authenticates requests with "Authorization: Bearer <token>".
func BearerAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, "bearer", extractBearerToken, func(w http.ResponseWriter, detail string) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeAuthError(w, detail)
	})
}

// CookieAuth authenticates requests with the token cookie set at login.
func CookieAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, "cookie", extractCookieToken, writeAuthError)
}

func authenticate(
	cfg AuthConfig,
	scheme string,
	extract func(*http.Request) string,
	reject func(http.ResponseWriter, string),
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extract(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("scheme", scheme),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				reject(w, "Not authenticated")
				return
			}

			user, err := cfg.Resolver.ResolveToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					cfg.Logger.Warn("authentication failed",
						slog.String("reason", "invalid_token"),
						slog.String("scheme", scheme),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				} else {
					cfg.Logger.Error("token lookup failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				reject(w, "Unauthorized")
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", user.ID),
				slog.String("scheme", scheme),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithUser(r.Context(), user)
			ctx = auth.ContextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func extractCookieToken(r *http.Request) string {
	c, err := r.Cookie(TokenCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// writeAuthError writes a 401 Unauthorized response.
func writeAuthError(w http.ResponseWriter, detail string) {
	writeDetail(w, http.StatusUnauthorized, detail)
}
