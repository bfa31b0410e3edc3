package cmd

import (
	"context"
	"log/slog"

	"github.com/praxisflow/praxis/pkg/cache"
)

// NewVerdictCache builds the validation verdict cache. An empty URL disables
// caching; verdicts are then recomputed on every request.
func NewVerdictCache(ctx context.Context, logger *slog.Logger, redisURL string) (cache.VerdictCache, error) {
	if redisURL == "" {
		return cache.NoopVerdictCache{}, nil
	}

	return cache.NewRedisVerdictCache(ctx, logger, redisURL)
}
