// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Blog metrics
	IncPostCreated()
	IncPostUpdated()
	IncPostDeleted()
	IncCommentCreated()

	// Classifier metrics
	IncPredictionCacheHit()
	IncPredictionCacheMiss()
	ObservePredictionDuration(duration time.Duration)

	// Realtime metrics
	AddActiveConnections(delta int64)
	IncChatMessage(status string) // status: "published", "throttled" or "failed"
	IncFaceFrame(status string)   // status: "processed", "dropped" or "failed"
	ObserveFaceDetectionDuration(duration time.Duration)

	// Background jobs
	AddTokensPruned(n int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
