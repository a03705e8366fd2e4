package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omniroute/workflow-compiler/pkg/log"
	"github.com/omniroute/workflow-compiler/pkg/models"
)

// Redis caches compiled artifacts in a Redis instance shared by all
// compiler replicas.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis connects to the Redis instance at url ("redis://host:port/db").
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Redis{
		client: redis.NewClient(opts),
		ttl:    ttl,
		logger: log.WithModule("cache"),
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (*models.CompiledWorkflow, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var compiled models.CompiledWorkflow
	if err := json.Unmarshal(raw, &compiled); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the
		// next Set.
		r.logger.WarnContext(ctx, "dropping corrupt cache entry", "key", key, "error", err)

		return nil, false, nil
	}

	return &compiled, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, compiled *models.CompiledWorkflow) error {
	raw, err := json.Marshal(compiled)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
