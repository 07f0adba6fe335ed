package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quillhq/quill/internal/handler/dto"
	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/service"
	"github.com/quillhq/quill/internal/validation"
)

// Predictor classifies text. It is implemented by service.PredictionService.
type Predictor interface {
	Predict(ctx context.Context, text string) (string, error)
	ClearCache(ctx context.Context) error
}

// PredictionHandler serves the text classifier.
type PredictionHandler struct {
	svc       Predictor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(svc Predictor, v *validation.Validator, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{svc: svc, validator: v, logger: logger}
}

// Predict handles POST /prediction.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req dto.PredictionRequest
	if err := decodeJSON(r, h.validator, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	category, err := h.svc.Predict(r.Context(), *req.Text)
	if errors.Is(err, service.ErrModelUnavailable) {
		writeDetail(w, http.StatusServiceUnavailable, "Model not loaded")
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Prediction{Category: category})
}

// ClearCache handles DELETE /cache.
func (h *PredictionHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCache(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
