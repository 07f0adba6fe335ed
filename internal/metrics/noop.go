package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (*NoopRecorder) IncPostCreated() {}
func (*NoopRecorder) IncPostUpdated() {}
func (*NoopRecorder) IncPostDeleted() {}
func (*NoopRecorder) IncCommentCreated() {}
func (*NoopRecorder) IncPredictionCacheHit() {}
func (*NoopRecorder) IncPredictionCacheMiss() {}
func (*NoopRecorder) ObservePredictionDuration(time.Duration) {}
func (*NoopRecorder) AddActiveConnections(int64) {}
func (*NoopRecorder) IncChatMessage(string) {}
func (*NoopRecorder) IncFaceFrame(string) {}
func (*NoopRecorder) ObserveFaceDetectionDuration(time.Duration) {}
func (*NoopRecorder) AddTokensPruned(int64) {}
