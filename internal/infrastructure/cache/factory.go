package cache

import (
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DocumentCacheFactory creates document caches based on configuration
type DocumentCacheFactory struct {
	redisConfig           config.RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// DocumentCacheFactoryOption is a functional option for configuring the factory
type DocumentCacheFactoryOption func(*DocumentCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DocumentCacheFactoryOption {
	return func(f *DocumentCacheFactory) {
		f.logger = logger
	}
}

// WithTTL sets the entry TTL for created caches
func WithTTL(ttl time.Duration) DocumentCacheFactoryOption {
	return func(f *DocumentCacheFactory) {
		f.ttl = ttl
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) DocumentCacheFactoryOption {
	return func(f *DocumentCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewDocumentCacheFactory creates a new factory
func NewDocumentCacheFactory(cfg config.RedisConfig, opts ...DocumentCacheFactoryOption) *DocumentCacheFactory {
	f := &DocumentCacheFactory{
		redisConfig:           cfg,
		ttl:                   defaultDocumentTTL,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true, // Default to allowing fallback
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based document cache
func (f *DocumentCacheFactory) CreateRedisCache() (OrderingDocumentCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisDocumentCache(redisCfg, WithRedisTTL(f.ttl), WithRedisLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis document cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory document cache.
// WARNING: in-memory caches do not share state across process instances.
func (f *DocumentCacheFactory) CreateInMemoryCache() OrderingDocumentCache {
	return NewInMemoryDocumentCache(WithInMemoryTTL(f.ttl), WithInMemoryLogger(f.logger))
}

// CreateCache creates a document cache based on whether Redis is available.
// It tries Redis first and falls back to in-memory if Redis is not available
// and AllowInMemoryFallback is true.
func (f *DocumentCacheFactory) CreateCache() (OrderingDocumentCache, error) {
	// Try Redis first
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis document cache")
		return cache, nil
	}

	// Check if fallback is allowed
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for document cache but unavailable: %w", err)
	}

	// Fall back to in-memory with warning
	f.logger.Warn("Redis unavailable, falling back to in-memory document cache. "+
		"Cached documents will not be shared across instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}

// CreateIdempotencyStore creates the event idempotency store with the same
// Redis-first selection as CreateCache. The in-memory fallback keeps
// duplicate suppression working within a single instance only.
func (f *DocumentCacheFactory) CreateIdempotencyStore() (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for idempotency store but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
