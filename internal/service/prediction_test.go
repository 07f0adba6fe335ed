package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/internal/cache"
	"github.com/quillhq/quill/internal/metrics"
	"github.com/quillhq/quill/internal/testutil"
)

type countingClassifier struct {
	calls int
}

func (c *countingClassifier) Predict(text string) string {
	c.calls++
	if strings.Contains(text, "rocket") {
		return "sci.space"
	}
	return "rec.autos"
}

func TestPredictionService_CachesResults(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	clf := &countingClassifier{}
	rec := metrics.NewInMemory()
	svc := NewPredictionService(clf, cache.NewWithClient(client), discardLogger(), rec)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		category, err := svc.Predict(ctx, "a rocket launch")
		require.NoError(t, err)
		assert.Equal(t, "sci.space", category)
	}
	assert.Equal(t, 1, clf.calls, "model should run once")

	snap := rec.Snapshot()
	assert.Equal(t, uint64(2), snap.PredictionCacheHits)
	assert.Equal(t, uint64(1), snap.PredictionCacheMisses)

	require.NoError(t, svc.ClearCache(ctx))
	_, err := svc.Predict(ctx, "a rocket launch")
	require.NoError(t, err)
	assert.Equal(t, 2, clf.calls, "cleared cache forces recomputation")
}

func TestPredictionService_CacheDownStillPredicts(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	clf := &countingClassifier{}
	svc := NewPredictionService(clf, cache.NewWithClient(client), discardLogger(), nil)
	mr.Close()

	category, err := svc.Predict(context.Background(), "my car")
	require.NoError(t, err)
	assert.Equal(t, "rec.autos", category)
}

func TestPredictionService_NoModel(t *testing.T) {
	svc := NewPredictionService(nil, nil, discardLogger(), nil)

	_, err := svc.Predict(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.NoError(t, svc.ClearCache(context.Background()))
}
