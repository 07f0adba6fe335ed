package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/quillhq/quill/internal/metrics"
	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/validation"
	"github.com/quillhq/quill/internal/vision"
)

// FaceHandler runs face detection on uploaded images.
type FaceHandler struct {
	detector vision.Detector
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewFaceHandler creates a new FaceHandler. A nil detector makes every
// request fail with 503.
func NewFaceHandler(detector vision.Detector, recorder metrics.Recorder, logger *slog.Logger) *FaceHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &FaceHandler{detector: detector, recorder: recorder, logger: logger}
}

// Detect handles POST /face-detection.
func (h *FaceHandler) Detect(w http.ResponseWriter, r *http.Request) {
	if h.detector == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Face detector not loaded")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, h.logger, bodyError(err))
		return
	}
	headers := r.MultipartForm.File["image"]
	if len(headers) == 0 {
		writeError(w, h.logger, validation.Missing(validation.LocBody, "image"))
		return
	}

	f, err := headers[0].Open()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	start := time.Now()
	boxes, err := vision.DetectBytes(h.detector, data)
	h.recorder.ObserveFaceDetectionDuration(time.Since(start))
	if errors.Is(err, vision.ErrUnsupportedImage) {
		h.recorder.IncFaceFrame("failed")
		writeError(w, h.logger, validation.Field(
			[]string{validation.LocBody, "image"}, "unsupported image format", "value_error.image"))
		return
	}
	if err != nil {
		h.recorder.IncFaceFrame("failed")
		writeError(w, h.logger, err)
		return
	}

	if boxes == nil {
		boxes = []model.Box{}
	}
	h.recorder.IncFaceFrame("processed")
	writeJSON(w, http.StatusOK, model.Faces{Faces: boxes})
}
