package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
)

const (
	// versionKey is bumped on every catalog sync; search pages are keyed by
	// the current version so invalidation never has to enumerate keys.
	versionKey = "catalog:ver"

	defaultPageTTL = 10 * time.Minute
)

// ProductSearchCache caches product search pages in Redis. Pages are stored
// under a generation counter; InvalidateSearch increments the counter so
// stale pages expire by TTL without a scan.
type ProductSearchCache struct {
	client     *redis.Client
	ownsClient bool
	ttl        time.Duration
	logger     *zap.Logger
}

// ProductSearchCacheOption is a functional option for configuring the cache
type ProductSearchCacheOption func(*ProductSearchCache)

// WithPageTTL sets how long a cached search page stays valid
func WithPageTTL(ttl time.Duration) ProductSearchCacheOption {
	return func(c *ProductSearchCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) ProductSearchCacheOption {
	return func(c *ProductSearchCache) {
		c.logger = logger
	}
}

// NewProductSearchCache creates a cache with its own Redis client
func NewProductSearchCache(addr, password string, db int, opts ...ProductSearchCacheOption) (*ProductSearchCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &ProductSearchCache{
		client:     client,
		ownsClient: true,
		ttl:        defaultPageTTL,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewProductSearchCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewProductSearchCacheWithClient(client *redis.Client, opts ...ProductSearchCacheOption) *ProductSearchCache {
	cache := &ProductSearchCache{
		client:     client,
		ownsClient: false,
		ttl:        defaultPageTTL,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *ProductSearchCache) pageKey(ctx context.Context, query string, limit, offset int) (string, error) {
	ver, err := c.client.Get(ctx, versionKey).Result()
	if err == redis.Nil {
		ver = "0"
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:search:%s:%s:%d:%d", ver, query, limit, offset), nil
}

// GetPage returns a cached search page, or (nil, false) on a miss
func (c *ProductSearchCache) GetPage(ctx context.Context, query string, limit, offset int) ([]catalog.Product, bool) {
	key, err := c.pageKey(ctx, query, limit, offset)
	if err != nil {
		c.logger.Warn("Failed to resolve catalog cache version", zap.Error(err))
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Failed to get search page from cache",
			zap.String("query", query),
			zap.Error(err))
		return nil, false
	}

	var products []catalog.Product
	if err := json.Unmarshal(data, &products); err != nil {
		c.logger.Warn("Failed to unmarshal cached search page",
			zap.String("query", query),
			zap.Error(err))
		_ = c.client.Del(ctx, key)
		return nil, false
	}
	return products, true
}

// SetPage stores a search page. Failures are logged and swallowed; the cache
// is an accelerator, not a source of truth.
func (c *ProductSearchCache) SetPage(ctx context.Context, query string, limit, offset int, products []catalog.Product) {
	key, err := c.pageKey(ctx, query, limit, offset)
	if err != nil {
		c.logger.Warn("Failed to resolve catalog cache version", zap.Error(err))
		return
	}

	data, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("Failed to marshal search page",
			zap.String("query", query),
			zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache search page",
			zap.String("query", query),
			zap.Error(err))
	}
}

// InvalidateSearch bumps the catalog generation so every cached search page
// becomes unreachable
func (c *ProductSearchCache) InvalidateSearch(ctx context.Context) error {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		c.logger.Error("Failed to bump catalog cache version", zap.Error(err))
		return fmt.Errorf("failed to invalidate search cache: %w", err)
	}
	c.logger.Debug("Invalidated catalog search cache")
	return nil
}

// Close releases the Redis client if this cache owns it
func (c *ProductSearchCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
