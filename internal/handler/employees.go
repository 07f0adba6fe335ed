package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// EmployeesLister fetches the upstream employee directory.
type EmployeesLister interface {
	List(ctx context.Context) (json.RawMessage, error)
}

// EmployeesHandler proxies the external employees API.
type EmployeesHandler struct {
	client  EmployeesLister
	timeout time.Duration
	logger  *slog.Logger
}

// NewEmployeesHandler creates a new EmployeesHandler. The upstream call,
// retries included, is cut off after timeout so the 502 still reaches the
// client; zero disables the cutoff.
func NewEmployeesHandler(client EmployeesLister, timeout time.Duration, logger *slog.Logger) *EmployeesHandler {
	return &EmployeesHandler{client: client, timeout: timeout, logger: logger}
}

// UpstreamBudget leaves a quarter of the server write timeout, at most two
// seconds, for writing the response.
func UpstreamBudget(writeTimeout time.Duration) time.Duration {
	if writeTimeout <= 0 {
		return 0
	}
	return writeTimeout - min(writeTimeout/4, 2*time.Second)
}

// List handles GET /employees.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	body, err := h.client.List(ctx)
	if err != nil {
		h.logger.Warn("employees upstream failed", "error", err)
		writeDetail(w, http.StatusBadGateway, "Upstream service unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
