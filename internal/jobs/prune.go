package jobs

import (
	"context"
	"log/slog"
)

// TokenPruner deletes expired access tokens.
type TokenPruner interface {
	PruneExpiredTokens(ctx context.Context) (int64, error)
}

// PruneTokens returns a Job that removes expired access tokens.
func PruneTokens(pruner TokenPruner, logger *slog.Logger) Job {
	return func(ctx context.Context) error {
		n, err := pruner.PruneExpiredTokens(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("expired tokens pruned", "count", n)
		}
		return nil
	}
}
