package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kwikdrytn/kwikdry-sub000/core/distance"
	"github.com/kwikdrytn/kwikdry-sub000/core/logger"
	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// DefaultTTL is how long cached routes are kept.
const DefaultTTL = 7 * 24 * time.Hour

// CachedProvider is a read-through Redis cache in front of a Provider.
// Cache failures are logged and fall through to the wrapped provider.
type CachedProvider struct {
	next   distance.Provider
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    logger.Logger
}

// NewCachedProvider wraps next with a cache stored in rdb.
func NewCachedProvider(next distance.Provider, rdb redis.UniversalClient, ttl time.Duration, log logger.Logger) (*CachedProvider, error) {
	if next == nil || rdb == nil {
		return nil, fmt.Errorf("routing: nil parameter provided to NewCachedProvider")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl, prefix: "route:", log: logger.OrNop(log)}, nil
}

// Key returns the cache key of a route. Coordinates are rounded to five
// decimals, about one metre.
func (c *CachedProvider) Key(from, to model.Coordinate) string {
	return fmt.Sprintf("%s%.5f,%.5f;%.5f,%.5f", c.prefix, from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// Route returns the cached route or asks the wrapped provider and stores
// the answer. Provider errors are never cached.
func (c *CachedProvider) Route(ctx context.Context, from, to model.Coordinate) (distance.Route, error) {
	key := c.Key(from, to)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var r distance.Route
		if jerr := json.Unmarshal(raw, &r); jerr == nil {
			return r, nil
		}
		c.log.Warnf("discarding corrupt cache entry %s", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warnf("route cache read failed: %v", err)
	}

	r, err := c.next.Route(ctx, from, to)
	if err != nil {
		return r, err
	}
	data, _ := json.Marshal(r)
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warnf("route cache write failed: %v", err)
	}
	return r, nil
}

// NewRedisClient creates the client used by the cache.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
	})
}
