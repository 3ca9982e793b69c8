package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/mitzori/order-tracking/internal/metrics"
	"github.com/mitzori/order-tracking/internal/storage"
)

const (
	keyPrefix  = "tracking:"
	defaultTTL = 5 * time.Minute
)

// TrackingCache is a Redis-backed cache for public tracking views.
// Failures are logged and treated as misses so the database remains
// the source of truth.
type TrackingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewTrackingCache(addr string, logger *zap.Logger) (*TrackingCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}

	return &TrackingCache{
		client: client,
		ttl:    defaultTTL,
		logger: logger,
	}, nil
}

func (c *TrackingCache) Close() error {
	return c.client.Close()
}

func (c *TrackingCache) Get(ctx context.Context, orderNumber string) (*storage.TrackingView, bool) {
	data, err := c.client.Get(ctx, keyPrefix+orderNumber).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("tracking cache get failed", zap.String("order_number", orderNumber), zap.Error(err))
		}
		metrics.TrackingCacheHitsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var view storage.TrackingView
	if err := json.Unmarshal(data, &view); err != nil {
		c.logger.Warn("tracking cache entry corrupt", zap.String("order_number", orderNumber), zap.Error(err))
		metrics.TrackingCacheHitsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.TrackingCacheHitsTotal.WithLabelValues("hit").Inc()
	return &view, true
}

func (c *TrackingCache) Set(ctx context.Context, orderNumber string, view *storage.TrackingView) {
	data, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("tracking cache marshal failed", zap.String("order_number", orderNumber), zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, keyPrefix+orderNumber, data, c.ttl).Err(); err != nil {
		c.logger.Warn("tracking cache set failed", zap.String("order_number", orderNumber), zap.Error(err))
	}
}

func (c *TrackingCache) Invalidate(ctx context.Context, orderNumber string) {
	if err := c.client.Del(ctx, keyPrefix+orderNumber).Err(); err != nil {
		c.logger.Warn("tracking cache invalidate failed", zap.String("order_number", orderNumber), zap.Error(err))
	}
}
