package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrUpstream is returned when the upstream API cannot produce a usable answer.
var ErrUpstream = errors.New("upstream request failed")

// maxResponseBytes caps upstream bodies.
const maxResponseBytes = 1 << 20

// EmployeesConfig configures EmployeesClient.
type EmployeesConfig struct {
	BaseURL     string
	HTTPClient  *http.Client
	Limiter     *rate.Limiter
	MaxAttempts int
	Backoff     Backoff
	Logger      *slog.Logger
}

// EmployeesClient fetches the employee list from the dummy REST API.
type EmployeesClient struct {
	endpoint    string
	http        *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     Backoff
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewEmployeesClient creates an EmployeesClient. Zero-valued options get defaults:
// a 2 req/s limiter with burst 2, DefaultMaxAttempts and DefaultBackoff.
func NewEmployeesClient(cfg EmployeesConfig) (*EmployeesClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid employees base URL %q", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &EmployeesClient{
		endpoint:    base.ResolveReference(&url.URL{Path: "employees"}).String(),
		http:        cfg.HTTPClient,
		limiter:     cfg.Limiter,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		logger:      cfg.Logger,
		sleep:       sleepContext,
	}
	if c.http == nil {
		c.http = NewHTTPClient()
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Limit(2), 2)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.backoff.Base <= 0 {
		c.backoff = DefaultBackoff
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.logger = c.logger.With("component", "employees_client")
	return c, nil
}

// Endpoint returns the resolved URL that List calls.
func (c *EmployeesClient) Endpoint() string {
	return c.endpoint
}

// List returns the upstream JSON document as-is.
// 5xx and 429 answers and transport errors are retried with jittered backoff
// while ctx allows; every failure wraps ErrUpstream.
func (c *EmployeesClient) List(ctx context.Context) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff.Delay(attempt - 1)
			// A retry that cannot finish before the caller's deadline is not worth starting.
			if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= delay {
				break
			}
			c.logger.Warn("retrying upstream request",
				"attempt", attempt+1,
				"delay_ms", delay.Milliseconds(),
				"error", lastErr,
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", ErrUpstream, err)
		}

		body, retry, err := c.fetch(ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

func (c *EmployeesClient) fetch(ctx context.Context) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, Retryable(resp.StatusCode), fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, false, errors.New("response is not valid JSON")
	}
	return json.RawMessage(body), false, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
