package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitIPPrefix = "quill:bucket:"
	// Idle buckets expire once they would have refilled anyway.
	rateLimitIPTTL = 10 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes in one atomic step.
// Time is in milliseconds so sub-second bursts refill smoothly.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per millisecond
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now = tonumber(ARGV[3])       -- current time in ms
	local ttl = tonumber(ARGV[4])       -- key TTL in ms

	local data = redis.call('HMGET', key, 'tokens', 'ts')
	local tokens = tonumber(data[1]) or burst
	local ts = tonumber(data[2]) or now

	local elapsed = math.max(0, now - ts)
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local wait = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		wait = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tostring(tokens), 'ts', now)
	redis.call('PEXPIRE', key, ttl)

	return {allowed, wait, math.floor(tokens)}
`)

// CheckIPRateLimit takes one token from ip's bucket. When Redis fails the
// request is let through and the error returned for logging.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	key := bucketKey(ip)
	perMilli := float64(ratePerSecond) / 1000.0

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		perMilli, burst, time.Now().UnixMilli(), rateLimitIPTTL.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return &RateLimitResult{Allowed: true, Limit: int64(burst), Remaining: int64(burst)}, err
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Limit:      int64(burst),
		Remaining:  result[2],
		RetryAfter: time.Duration(result[1]) * time.Millisecond,
	}, nil
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, minimum 1.
func (r *RateLimitResult) RetryAfterSeconds() int {
	return max(1, int(math.Ceil(r.RetryAfter.Seconds())))
}

// bucketKey names the bucket for ip without storing the address itself.
func bucketKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return rateLimitIPPrefix + hex.EncodeToString(sum[:8])
}
