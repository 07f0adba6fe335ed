package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// sessionPrefix is the Redis key prefix for resolved access tokens.
	sessionPrefix = "session:"
	// userSessionsPrefix indexes a user's cached sessions so they can be
	// dropped together when the user changes.
	userSessionsPrefix = "user-sessions:"
	// sessionMaxTTL bounds how long a resolved token is trusted without
	// going back to the database.
	sessionMaxTTL = 5 * time.Minute
)

// Session is a cached access-token lookup.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetSession returns the cached session for cacheKey, or nil on a miss.
// Entries that fail to decode are treated as misses.
func (c *Cache) GetSession(ctx context.Context, cacheKey string) (*Session, error) {
	data, err := c.client.Get(ctx, sessionPrefix+cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil //nolint:nilerr
	}
	return &s, nil
}

// SetSession caches a session until the token expires or sessionMaxTTL
// passes, whichever comes first, and records it under the owning user.
// Already expired sessions are not stored.
func (c *Cache) SetSession(ctx context.Context, cacheKey string, s *Session, now time.Time) error {
	ttl := min(sessionMaxTTL, s.ExpiresAt.Sub(now))
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	index := userSessionsPrefix + s.UserID
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionPrefix+cacheKey, data, ttl)
		pipe.SAdd(ctx, index, cacheKey)
		// The index outlives every session it lists.
		pipe.Expire(ctx, index, sessionMaxTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// DeleteUserSessions drops every cached session of userID, so the next
// lookup of any of the user's tokens reads the database again.
func (c *Cache) DeleteUserSessions(ctx context.Context, userID string) error {
	index := userSessionsPrefix + userID
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, sessionPrefix+k)
	}
	del = append(del, index)
	if err := c.client.Del(ctx, del...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
