package handler

import (
	"fmt"
	"net/http"

	"github.com/quillhq/quill/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "quill_posts_created_total %d\n", snap.PostsCreated)
	writeMetric(w, "quill_posts_updated_total %d\n", snap.PostsUpdated)
	writeMetric(w, "quill_posts_deleted_total %d\n", snap.PostsDeleted)
	writeMetric(w, "quill_comments_created_total %d\n", snap.CommentsCreated)

	writeMetric(w, "quill_prediction_cache_hits_total %d\n", snap.PredictionCacheHits)
	writeMetric(w, "quill_prediction_cache_misses_total %d\n", snap.PredictionCacheMisses)
	writeMetric(w, "quill_prediction_duration_seconds_count %d\n", snap.PredictionDurationCount)
	writeMetric(w, "quill_prediction_duration_seconds_sum %.6f\n", float64(snap.PredictionDurationNs)/1e9)

	writeMetric(w, "quill_websocket_connections %d\n", snap.ActiveConnections)
	writeMetric(w, "quill_chat_messages_total{status=\"published\"} %d\n", snap.ChatPublished)
	writeMetric(w, "quill_chat_messages_total{status=\"throttled\"} %d\n", snap.ChatThrottled)
	writeMetric(w, "quill_chat_messages_total{status=\"failed\"} %d\n", snap.ChatFailed)

	writeMetric(w, "quill_face_frames_total{status=\"processed\"} %d\n", snap.FaceFramesProcessed)
	writeMetric(w, "quill_face_frames_total{status=\"dropped\"} %d\n", snap.FaceFramesDropped)
	writeMetric(w, "quill_face_frames_total{status=\"failed\"} %d\n", snap.FaceFramesFailed)
	writeMetric(w, "quill_face_detection_duration_seconds_count %d\n", snap.FaceDetectionCount)
	writeMetric(w, "quill_face_detection_duration_seconds_sum %.6f\n", float64(snap.FaceDetectionNs)/1e9)

	writeMetric(w, "quill_tokens_pruned_total %d\n", snap.TokensPruned)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
