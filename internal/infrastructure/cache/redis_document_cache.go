package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDocumentCache implements OrderingDocumentCache using Redis. Suitable
// for distributed deployments where multiple instances share the cache.
type RedisDocumentCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisDocumentCache creates a new Redis-based document cache
func NewRedisDocumentCache(cfg RedisConfig, opts ...RedisDocumentCacheOption) (*RedisDocumentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisDocumentCache{
		client:    client,
		keyPrefix: "procurement:",
		ttl:       defaultDocumentTTL,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache, nil
}

// NewRedisDocumentCacheWithClient creates a cache with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisDocumentCacheWithClient(client *redis.Client, opts ...RedisDocumentCacheOption) *RedisDocumentCache {
	cache := &RedisDocumentCache{
		client:    client,
		keyPrefix: "procurement:",
		ttl:       defaultDocumentTTL,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

// RedisDocumentCacheOption is a functional option for configuring the cache
type RedisDocumentCacheOption func(*RedisDocumentCache)

// WithRedisTTL sets the entry TTL
func WithRedisTTL(ttl time.Duration) RedisDocumentCacheOption {
	return func(c *RedisDocumentCache) {
		c.ttl = ttl
	}
}

// WithRedisLogger sets the logger for the cache
func WithRedisLogger(logger *zap.Logger) RedisDocumentCacheOption {
	return func(c *RedisDocumentCache) {
		c.logger = logger
	}
}

// Get retrieves a document from Redis; any failure reports a miss
func (c *RedisDocumentCache) Get(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID) (*procurement.OrderingDocument, bool) {
	key := c.keyPrefix + documentCacheKey(scope, docID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var doc procurement.OrderingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("corrupt cache entry dropped", zap.String("key", key), zap.Error(err))
		c.client.Del(ctx, key)
		return nil, false
	}
	return &doc, true
}

// Set stores a document in Redis with the configured TTL
func (c *RedisDocumentCache) Set(ctx context.Context, doc *procurement.OrderingDocument) {
	if doc == nil {
		return
	}

	key := c.keyPrefix + documentCacheKey(doc.ProjectScope, doc.ID)
	data, err := json.Marshal(doc)
	if err != nil {
		c.logger.Warn("failed to marshal document for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes a document from Redis
func (c *RedisDocumentCache) Invalidate(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID) {
	key := c.keyPrefix + documentCacheKey(scope, docID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateScope removes every document cached for a scope using an
// incremental SCAN so large keyspaces are not blocked
func (c *RedisDocumentCache) InvalidateScope(ctx context.Context, scope shared.ProjectScope) {
	pattern := c.keyPrefix + scopeCachePrefix(scope) + "*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.logger.Warn("redis scan failed", zap.String("pattern", pattern), zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("redis delete failed", zap.Strings("keys", keys), zap.Error(err))
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Close closes the Redis client
func (c *RedisDocumentCache) Close() error {
	return c.client.Close()
}

// Ensure RedisDocumentCache implements OrderingDocumentCache
var _ OrderingDocumentCache = (*RedisDocumentCache)(nil)
