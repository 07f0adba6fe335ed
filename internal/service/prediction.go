package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/quillhq/quill/internal/metrics"
)

// ErrModelUnavailable is returned when no classifier model is loaded.
var ErrModelUnavailable = errors.New("classifier model is not loaded")

// Classifier predicts a category for a piece of text.
type Classifier interface {
	Predict(text string) string
}

// PredictionCache stores predictions by text digest. *cache.Cache implements it.
type PredictionCache interface {
	GetPrediction(ctx context.Context, digest string) (string, bool, error)
	SetPrediction(ctx context.Context, digest, category string) error
	ClearPredictions(ctx context.Context) error
}

// PredictionService serves cached text classification.
type PredictionService struct {
	model   Classifier
	cache   PredictionCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPredictionService creates a PredictionService. model may be nil, in
// which case Predict returns ErrModelUnavailable.
func NewPredictionService(model Classifier, c PredictionCache, logger *slog.Logger, recorder metrics.Recorder) *PredictionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PredictionService{
		model:   model,
		cache:   c,
		logger:  logger.With("component", "prediction"),
		metrics: recorder,
	}
}

// Predict returns the category for text, from cache when possible.
// Cache failures degrade to computing the prediction.
func (s *PredictionService) Predict(ctx context.Context, text string) (string, error) {
	if s.model == nil {
		return "", ErrModelUnavailable
	}

	digest := textDigest(text)

	if s.cache != nil {
		category, ok, err := s.cache.GetPrediction(ctx, digest)
		if err != nil {
			s.logger.Warn("prediction cache lookup failed", "error", err)
		}
		if ok {
			s.metrics.IncPredictionCacheHit()
			return category, nil
		}
	}
	s.metrics.IncPredictionCacheMiss()

	start := time.Now()
	category := s.model.Predict(text)
	s.metrics.ObservePredictionDuration(time.Since(start))

	if s.cache != nil {
		if err := s.cache.SetPrediction(ctx, digest, category); err != nil {
			s.logger.Warn("prediction cache write failed", "error", err)
		}
	}

	return category, nil
}

// ClearCache drops every cached prediction.
func (s *PredictionService) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.ClearPredictions(ctx)
}

func textDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
