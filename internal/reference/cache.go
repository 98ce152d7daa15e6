package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Lavan1999/agentic-ai/internal/cdm"
)

const defaultCacheTTL = 12 * time.Hour

// Cache stores encoded reference records by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// MemoryCache is a process-local TTL cache.
type MemoryCache struct {
	entries sync.Map // map[string]memoryEntry
}

type memoryEntry struct {
	expires time.Time
	value   []byte
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get returns a live entry; expired entries are dropped on read.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := c.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	entry := raw.(memoryEntry)
	if time.Now().After(entry.expires) {
		c.entries.Delete(key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores value until ttl elapses.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.entries.Store(key, memoryEntry{expires: time.Now().Add(ttl), value: value})
	return nil
}

// RedisCache shares reference records between processes.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects lazily to addr; keys are namespaced under prefix.
func NewRedisCache(addr, password string, db int, prefix string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if prefix == "" {
		prefix = "cdm:ref:"
	}
	return &RedisCache{client: rdb, prefix: prefix}
}

// Get returns the stored bytes; a missing key is not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value with an expiry.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Cached decorates a cdm.ReferenceSource with a read-through cache. Only found
// records are cached; cache failures fall through to the source.
type Cached struct {
	source cdm.ReferenceSource
	cache  Cache
	ttl    time.Duration
}

// NewCached wraps source; ttl <= 0 selects the default.
func NewCached(source cdm.ReferenceSource, cache Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cached{source: source, cache: cache, ttl: ttl}
}

// FetchTariff implements cdm.ReferenceSource.
func (c *Cached) FetchTariff(ctx context.Context, hsCode string) (*cdm.TariffReference, error) {
	return fetchThrough(ctx, c, "tariff:"+cacheKey(hsCode), func() (*cdm.TariffReference, error) {
		return c.source.FetchTariff(ctx, hsCode)
	})
}

// FetchValuation implements cdm.ReferenceSource.
func (c *Cached) FetchValuation(ctx context.Context, hsCode string) (*cdm.ValuationReference, error) {
	return fetchThrough(ctx, c, "valuation:"+cacheKey(hsCode), func() (*cdm.ValuationReference, error) {
		return c.source.FetchValuation(ctx, hsCode)
	})
}

func fetchThrough[T any](ctx context.Context, c *Cached, key string, load func() (*T, error)) (*T, error) {
	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("reference cache read failed")
	} else if ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		logrus.WithField("key", key).Warn("discarding undecodable cache entry")
	}

	record, err := load()
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, cdm.ErrNotFound
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("reference cache write failed")
	}
	return record, nil
}

func cacheKey(hsCode string) string {
	return strings.ToLower(strings.TrimSpace(hsCode))
}
