// Package cache stores validation verdicts keyed by workflow id and version.
// Every structural edit bumps the workflow version, so a cached verdict can
// never be served for a newer graph.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/praxisflow/praxis/pkg/validation"
)

const verdictTTL = 24 * time.Hour

// VerdictCache stores and retrieves validation results. A miss is reported as
// (nil, nil); cache failures are surfaced so callers can decide to log and
// fall through to recomputation.
type VerdictCache interface {
	Get(ctx context.Context, workflowID string, version int64) (*validation.Result, error)
	Set(ctx context.Context, workflowID string, version int64, result validation.Result) error
}

// RedisVerdictCache implements VerdictCache on Redis.
type RedisVerdictCache struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewRedisVerdictCache connects to Redis using a redis:// URL.
func NewRedisVerdictCache(ctx context.Context, logger *slog.Logger, redisURL string) (*RedisVerdictCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr)

	return &RedisVerdictCache{client: client, logger: logger}, nil
}

func (c *RedisVerdictCache) Get(ctx context.Context, workflowID string, version int64) (*validation.Result, error) {
	payload, err := c.client.Get(ctx, verdictKey(workflowID, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read cached verdict: %w", err)
	}

	var result validation.Result

	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached verdict: %w", err)
	}

	return &result, nil
}

func (c *RedisVerdictCache) Set(ctx context.Context, workflowID string, version int64, result validation.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}

	err = c.client.Set(ctx, verdictKey(workflowID, version), payload, verdictTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to cache verdict: %w", err)
	}

	return nil
}

// Close releases the Redis connection.
func (c *RedisVerdictCache) Close() error {
	return c.client.Close()
}

func verdictKey(workflowID string, version int64) string {
	return fmt.Sprintf("praxis:workflow:%s:v%d:validation", workflowID, version)
}

// NoopVerdictCache disables caching; every validation is recomputed.
type NoopVerdictCache struct{}

func (NoopVerdictCache) Get(context.Context, string, int64) (*validation.Result, error) {
	return nil, nil
}

func (NoopVerdictCache) Set(context.Context, string, int64, validation.Result) error {
	return nil
}
