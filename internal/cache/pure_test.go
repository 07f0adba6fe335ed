package cache

import (
	"testing"
	"time"
)

func TestBucketKey(t *testing.T) {
	t.Parallel()

	seen := map[string]string{}
	for _, ip := range []string{"192.168.1.1", "192.168.1.2", "127.0.0.1", "::1", ""} {
		key := bucketKey(ip)
		if len(key) != len(rateLimitIPPrefix)+16 {
			t.Errorf("bucketKey(%q) = %q, want prefix plus 16 hex chars", ip, key)
		}
		if key != bucketKey(ip) {
			t.Errorf("bucketKey(%q) is not stable", ip)
		}
		if other, dup := seen[key]; dup {
			t.Errorf("%q and %q share bucket %s", ip, other, key)
		}
		seen[key] = ip
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()

	tests := map[time.Duration]int{
		0:                       1,
		50 * time.Millisecond:   1,
		2 * time.Second:         2,
		2100 * time.Millisecond: 3,
	}
	for wait, want := range tests {
		r := &RateLimitResult{RetryAfter: wait}
		if got := r.RetryAfterSeconds(); got != want {
			t.Errorf("RetryAfterSeconds(%v) = %d, want %d", wait, got, want)
		}
	}
}
