package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/netstore-backend/pkg/logger"
	redisclient "github.com/angelmondragon/netstore-backend/pkg/redis"
)

const defaultCacheTTL = 10 * time.Minute

// CacheStore is the subset of the redis client used for catalog read-through caching.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// readThrough serves key from the cache or fills it from load. Cache failures
// are logged and fall back to load; they never fail the request.
func readThrough[T any](ctx context.Context, store CacheStore, logg *logger.Logger, ttl time.Duration, key string, load func() (T, error)) (T, error) {
	if store == nil {
		return load()
	}
	raw, err := store.Get(ctx, key)
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		}
	} else if !redisclient.IsMiss(err) && logg != nil {
		logg.Warn(logg.WithField(ctx, "cache_key", key), "catalog cache read failed")
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if payload, jsonErr := json.Marshal(value); jsonErr == nil {
		if setErr := store.Set(ctx, key, payload, ttl); setErr != nil && logg != nil {
			logg.Warn(logg.WithField(ctx, "cache_key", key), "catalog cache write failed")
		}
	}
	return value, nil
}

func invalidate(ctx context.Context, store CacheStore, logg *logger.Logger, keys ...string) {
	if store == nil || len(keys) == 0 {
		return
	}
	if err := store.Del(ctx, keys...); err != nil && logg != nil {
		logg.Error(ctx, "catalog cache invalidation failed", err)
	}
}
