package model

import "time"

// User is a registered account.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccessToken is an opaque bearer/cookie credential bound to a user.
type AccessToken struct {
	Token          string    `json:"access_token"`
	UserID         string    `json:"-"`
	ExpirationDate time.Time `json:"-"`
}

// IsExpired reports whether the token is no longer valid at now.
func (t *AccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpirationDate)
}

// MaxAge returns the remaining lifetime in whole seconds, never negative.
func (t *AccessToken) MaxAge(now time.Time) int {
	remaining := int(t.ExpirationDate.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
