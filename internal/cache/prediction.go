package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// predictionKey is a single hash so the whole cache clears with one DEL.
const predictionKey = "prediction:cache"

// GetPrediction returns the cached category for a text digest.
func (c *Cache) GetPrediction(ctx context.Context, digest string) (string, bool, error) {
	category, err := c.client.HGet(ctx, predictionKey, digest).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get prediction: %w", err)
	}
	return category, true, nil
}

// SetPrediction stores a category for a text digest.
func (c *Cache) SetPrediction(ctx context.Context, digest, category string) error {
	return c.client.HSet(ctx, predictionKey, digest, category).Err()
}

// ClearPredictions removes every cached prediction.
func (c *Cache) ClearPredictions(ctx context.Context) error {
	return c.client.Del(ctx, predictionKey).Err()
}
