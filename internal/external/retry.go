package external

import (
	"math/rand"
	"net/http"
	"time"
)

const (
	// DefaultMaxAttempts bounds calls per request, first try included.
	DefaultMaxAttempts = 3

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2
)

// Backoff computes retry delays: base doubled per attempt, capped at max, ±20% jitter.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff starts at 200ms and never waits more than 2s.
var DefaultBackoff = Backoff{Base: 200 * time.Millisecond, Max: 2 * time.Second}

// Delay returns the wait before retry number attempt (0-indexed).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := b.Base
	for i := 0; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		d = b.Max
	}

	jitterRange := float64(d) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange
	return time.Duration(float64(d) + jitter)
}

// Retryable reports whether a response status is worth another attempt.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
