package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/domain"
)

const (
	keyPrefix = "product:key:"
	idPrefix  = "product:id:"

	// fetchTimeout bounds a shared source read once it is detached from the caller.
	fetchTimeout = 5 * time.Second
)

// Source is the product lookup surface the cache sits in front of.
type Source interface {
	GetByKey(ctx context.Context, key string) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
}

// ProductCache is a cache-aside layer over product lookups by business and storage
// identifier. Misses are not cached. Redis failures degrade to reading the source.
type ProductCache struct {
	client redis.Cmdable
	source Source
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

func NewProductCache(client redis.Cmdable, source Source, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{client: client, source: source, ttl: ttl, logger: logger.Named("product_cache")}
}

func (c *ProductCache) GetByKey(ctx context.Context, key string) (*domain.Product, error) {
	return c.get(ctx, keyPrefix+key, func(ctx context.Context) (*domain.Product, error) {
		return c.source.GetByKey(ctx, key)
	})
}

func (c *ProductCache) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return c.get(ctx, idPrefix+id, func(ctx context.Context) (*domain.Product, error) {
		return c.source.GetByID(ctx, id)
	})
}

// GetByName is not cached; names are not unique.
func (c *ProductCache) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	return c.source.GetByName(ctx, name)
}

// Invalidate drops every cached entry for the product.
func (c *ProductCache) Invalidate(ctx context.Context, p domain.Product) error {
	keys := []string{idPrefix + p.ID}
	if p.Key != "" {
		keys = append(keys, keyPrefix+p.Key)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("invalidate product", zap.String("product_id", p.ID), zap.Error(err))
		return err
	}
	return nil
}

func (c *ProductCache) get(ctx context.Context, cacheKey string, fetch func(context.Context) (*domain.Product, error)) (*domain.Product, error) {
	if p, ok := c.read(ctx, cacheKey); ok {
		return p, nil
	}

	// singleflight collapses concurrent misses for the same key into one source read.
	// The shared read outlives any single caller, so one cancelled request cannot fail the others.
	v, err, _ := c.group.Do(cacheKey, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		p, err := fetch(flightCtx)
		if err != nil {
			return nil, err
		}
		c.write(flightCtx, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (c *ProductCache) read(ctx context.Context, cacheKey string) (*domain.Product, bool) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
		return nil, false
	}
	var p domain.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("key", cacheKey), zap.Error(err))
		return nil, false
	}
	return &p, true
}

// write stores the product under both identifiers so either lookup hits next time.
func (c *ProductCache) write(ctx context.Context, p *domain.Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("encode product for cache", zap.String("product_id", p.ID), zap.Error(err))
		return
	}
	keys := []string{idPrefix + p.ID}
	if p.Key != "" {
		keys = append(keys, keyPrefix+p.Key)
	}
	for _, k := range keys {
		if err := c.client.Set(ctx, k, string(raw), c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", k), zap.Error(err))
		}
	}
}
