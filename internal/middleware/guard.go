package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// Header names checked by the static guards.
const (
	APITokenHeader     = "Token"
	SecretHeaderHeader = "Secret-Header"
)

// APIToken rejects requests whose Token header differs from expected with 403.
func APIToken(expected string) func(http.Handler) http.Handler {
	return requireHeader(APITokenHeader, expected)
}

// SecretHeader rejects requests whose Secret-Header differs from expected with 403.
func SecretHeader(expected string) func(http.Handler) http.Handler {
	return requireHeader(SecretHeaderHeader, expected)
}

func requireHeader(name, expected string) func(http.Handler) http.Handler {
	want := []byte(expected)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(name))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				writeDetail(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeDetail writes {"detail": msg}, the envelope API handlers use.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}
