package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncPostCreated()
	m.IncPostCreated()
	m.IncPostUpdated()
	m.IncPostDeleted()
	m.IncCommentCreated()
	m.IncPredictionCacheHit()
	m.IncPredictionCacheMiss()
	m.ObservePredictionDuration(2 * time.Millisecond)
	m.AddActiveConnections(3)
	m.AddActiveConnections(-1)
	m.IncChatMessage("published")
	m.IncChatMessage("throttled")
	m.IncChatMessage("bogus")
	m.IncFaceFrame("dropped")
	m.IncFaceFrame("processed")
	m.ObserveFaceDetectionDuration(time.Millisecond)
	m.AddTokensPruned(5)

	snap := m.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"posts created", int64(snap.PostsCreated), 2},
		{"posts updated", int64(snap.PostsUpdated), 1},
		{"posts deleted", int64(snap.PostsDeleted), 1},
		{"comments created", int64(snap.CommentsCreated), 1},
		{"prediction hits", int64(snap.PredictionCacheHits), 1},
		{"prediction misses", int64(snap.PredictionCacheMisses), 1},
		{"prediction duration ns", snap.PredictionDurationNs, int64(2 * time.Millisecond)},
		{"active connections", snap.ActiveConnections, 2},
		{"chat published", int64(snap.ChatPublished), 1},
		{"chat throttled", int64(snap.ChatThrottled), 1},
		{"chat failed", int64(snap.ChatFailed), 0},
		{"face dropped", int64(snap.FaceFramesDropped), 1},
		{"face processed", int64(snap.FaceFramesProcessed), 1},
		{"face detection count", int64(snap.FaceDetectionCount), 1},
		{"tokens pruned", snap.TokensPruned, 5},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncPostCreated()
			m.AddActiveConnections(1)
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	if snap.PostsCreated != 50 {
		t.Errorf("PostsCreated = %d, want 50", snap.PostsCreated)
	}
	if snap.ActiveConnections != 50 {
		t.Errorf("ActiveConnections = %d, want 50", snap.ActiveConnections)
	}
}

func TestNoop_SatisfiesRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncPostCreated()
	r.IncChatMessage("published")
	r.AddTokensPruned(1)

	var _ Recorder = NewInMemory()
	var _ Snapshotter = NewInMemory()
}
