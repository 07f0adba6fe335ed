package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const readinessTimeout = 5 * time.Second

// HealthChecker is anything /readyz can ping.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependency names a backing service. A nil Checker is reported as
// "not configured" and does not fail readiness.
type Dependency struct {
	Name    string
	Checker HealthChecker
}

type HealthHandler struct {
	deps []Dependency
}

func NewHealthHandler(deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HealthResponse is the probe body. Checks is only set by /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz reports that the process is serving. GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every dependency in parallel and answers 503 if any fails.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make([]string, len(h.deps))
	failed := make([]bool, len(h.deps))
	var wg sync.WaitGroup
	for i, dep := range h.deps {
		if dep.Checker == nil {
			results[i] = "not configured"
			continue
		}
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()
			if err := c.Ping(ctx); err != nil {
				results[i] = "error: " + err.Error()
				failed[i] = true
				return
			}
			results[i] = "ok"
		}(i, dep.Checker)
	}
	wg.Wait()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.deps))}
	status := http.StatusOK
	for i, dep := range h.deps {
		resp.Checks[dep.Name] = results[i]
		if failed[i] {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, resp)
}
