package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
)

// AccessTokenBytes is the amount of entropy in an access token.
const AccessTokenBytes = 32

// ErrInvalidTokenFormat indicates a presented token cannot have been issued by us.
var ErrInvalidTokenFormat = errors.New("invalid access token format")

// 32 bytes of URL-safe base64 without padding is 43 characters.
var tokenFormatRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

// GenerateAccessToken returns a new URL-safe random token.
func GenerateAccessToken() (string, error) {
	buf := make([]byte, AccessTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidateTokenFormat rejects tokens that are obviously malformed
// before they reach the cache or database.
func ValidateTokenFormat(token string) error {
	if !tokenFormatRegex.MatchString(token) {
		return ErrInvalidTokenFormat
	}
	return nil
}
