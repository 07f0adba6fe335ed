package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PostsCreated    uint64
	PostsUpdated    uint64
	PostsDeleted    uint64
	CommentsCreated uint64

	PredictionCacheHits     uint64
	PredictionCacheMisses   uint64
	PredictionDurationCount uint64
	PredictionDurationNs    int64

	ActiveConnections   int64
	ChatPublished       uint64
	ChatThrottled       uint64
	ChatFailed          uint64
	FaceFramesProcessed uint64
	FaceFramesDropped   uint64
	FaceFramesFailed    uint64
	FaceDetectionCount  uint64
	FaceDetectionNs     int64

	TokensPruned int64
}

// InMemoryRecorder stores metrics in memory. It backs GET /metrics.
type InMemoryRecorder struct {
	postsCreated    atomic.Uint64
	postsUpdated    atomic.Uint64
	postsDeleted    atomic.Uint64
	commentsCreated atomic.Uint64

	predictionHits          atomic.Uint64
	predictionMisses        atomic.Uint64
	predictionDurationCount atomic.Uint64
	predictionDurationNs    atomic.Int64

	activeConnections  atomic.Int64
	chatPublished      atomic.Uint64
	chatThrottled      atomic.Uint64
	chatFailed         atomic.Uint64
	faceProcessed      atomic.Uint64
	faceDropped        atomic.Uint64
	faceFailed         atomic.Uint64
	faceDetectionCount atomic.Uint64
	faceDetectionNs    atomic.Int64

	tokensPruned atomic.Int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		PostsCreated:    m.postsCreated.Load(),
		PostsUpdated:    m.postsUpdated.Load(),
		PostsDeleted:    m.postsDeleted.Load(),
		CommentsCreated: m.commentsCreated.Load(),

		PredictionCacheHits:     m.predictionHits.Load(),
		PredictionCacheMisses:   m.predictionMisses.Load(),
		PredictionDurationCount: m.predictionDurationCount.Load(),
		PredictionDurationNs:    m.predictionDurationNs.Load(),

		ActiveConnections:   m.activeConnections.Load(),
		ChatPublished:       m.chatPublished.Load(),
		ChatThrottled:       m.chatThrottled.Load(),
		ChatFailed:          m.chatFailed.Load(),
		FaceFramesProcessed: m.faceProcessed.Load(),
		FaceFramesDropped:   m.faceDropped.Load(),
		FaceFramesFailed:    m.faceFailed.Load(),
		FaceDetectionCount:  m.faceDetectionCount.Load(),
		FaceDetectionNs:     m.faceDetectionNs.Load(),

		TokensPruned: m.tokensPruned.Load(),
	}
}

func (m *InMemoryRecorder) IncPostCreated() { m.postsCreated.Add(1) }
func (m *InMemoryRecorder) IncPostUpdated() { m.postsUpdated.Add(1) }
func (m *InMemoryRecorder) IncPostDeleted() { m.postsDeleted.Add(1) }
func (m *InMemoryRecorder) IncCommentCreated() { m.commentsCreated.Add(1) }

func (m *InMemoryRecorder) IncPredictionCacheHit() { m.predictionHits.Add(1) }
func (m *InMemoryRecorder) IncPredictionCacheMiss() { m.predictionMisses.Add(1) }

// ObservePredictionDuration records classifier latency on cache misses.
func (m *InMemoryRecorder) ObservePredictionDuration(d time.Duration) {
	m.predictionDurationCount.Add(1)
	m.predictionDurationNs.Add(d.Nanoseconds())
}

// AddActiveConnections adjusts the open WebSocket gauge.
func (m *InMemoryRecorder) AddActiveConnections(delta int64) {
	m.activeConnections.Add(delta)
}

// IncChatMessage counts chat messages by outcome. Unknown statuses are ignored.
func (m *InMemoryRecorder) IncChatMessage(status string) {
	switch status {
	case "published":
		m.chatPublished.Add(1)
	case "throttled":
		m.chatThrottled.Add(1)
	case "failed":
		m.chatFailed.Add(1)
	}
}

// IncFaceFrame counts face-detection frames by outcome.
func (m *InMemoryRecorder) IncFaceFrame(status string) {
	switch status {
	case "processed":
		m.faceProcessed.Add(1)
	case "dropped":
		m.faceDropped.Add(1)
	case "failed":
		m.faceFailed.Add(1)
	}
}

// ObserveFaceDetectionDuration records time spent in the detector.
func (m *InMemoryRecorder) ObserveFaceDetectionDuration(d time.Duration) {
	m.faceDetectionCount.Add(1)
	m.faceDetectionNs.Add(d.Nanoseconds())
}

// AddTokensPruned accumulates expired tokens removed by the pruner.
func (m *InMemoryRecorder) AddTokensPruned(n int64) {
	m.tokensPruned.Add(n)
}
