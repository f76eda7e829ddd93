package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Constants for in-memory cache configuration
const (
	defaultDocumentTTL     = 5 * time.Minute
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryDocumentCache implements OrderingDocumentCache using in-memory
// storage. Suitable for single-instance deployments and testing; instances
// do not share state.
type InMemoryDocumentCache struct {
	entries sync.Map // map[string]*documentEntry
	ttl     time.Duration
	logger  *zap.Logger
	stopCh  chan struct{} // Channel to stop the cleanup goroutine
	stopped int32         // Atomic flag to track if cache is stopped

	// Stats for monitoring
	hits   int64
	misses int64
}

// documentEntry wraps a cached document with expiration time
type documentEntry struct {
	doc       *procurement.OrderingDocument
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *documentEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryDocumentCacheOption is a functional option for configuring the cache
type InMemoryDocumentCacheOption func(*InMemoryDocumentCache)

// WithInMemoryTTL sets the entry TTL
func WithInMemoryTTL(ttl time.Duration) InMemoryDocumentCacheOption {
	return func(c *InMemoryDocumentCache) {
		c.ttl = ttl
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryDocumentCacheOption {
	return func(c *InMemoryDocumentCache) {
		c.logger = logger
	}
}

// NewInMemoryDocumentCache creates a new in-memory document cache
func NewInMemoryDocumentCache(opts ...InMemoryDocumentCacheOption) *InMemoryDocumentCache {
	cache := &InMemoryDocumentCache{
		ttl:    defaultDocumentTTL,
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	// Start background cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a document from cache
func (c *InMemoryDocumentCache) Get(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID) (*procurement.OrderingDocument, bool) {
	key := documentCacheKey(scope, docID)

	if value, ok := c.entries.Load(key); ok {
		entry := value.(*documentEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("cache hit for ordering document", zap.String("key", key))
			return entry.doc, true
		}
		// Expired, remove from cache
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("cache miss for ordering document", zap.String("key", key))
	return nil, false
}

// Set stores a document in cache
func (c *InMemoryDocumentCache) Set(ctx context.Context, doc *procurement.OrderingDocument) {
	if doc == nil {
		return
	}

	key := documentCacheKey(doc.ProjectScope, doc.ID)
	c.entries.Store(key, &documentEntry{
		doc:       doc,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.logger.Debug("cached ordering document",
		zap.String("key", key),
		zap.Duration("ttl", c.ttl))
}

// Invalidate removes a document from cache
func (c *InMemoryDocumentCache) Invalidate(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID) {
	c.entries.Delete(documentCacheKey(scope, docID))
}

// InvalidateScope removes every document cached for a scope
func (c *InMemoryDocumentCache) InvalidateScope(ctx context.Context, scope shared.ProjectScope) {
	prefix := scopeCachePrefix(scope)
	c.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Delete(key)
		}
		return true
	})
	c.logger.Debug("invalidated scope cache", zap.String("prefix", prefix))
}

// Close releases any resources held by the cache
func (c *InMemoryDocumentCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryDocumentCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries in the cache
func (c *InMemoryDocumentCache) Count() int {
	count := 0
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryDocumentCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup",
							zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired entries
func (c *InMemoryDocumentCache) doCleanup() {
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if value.(*documentEntry).isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int("removed", removed))
	}
}

// Ensure InMemoryDocumentCache implements OrderingDocumentCache
var _ OrderingDocumentCache = (*InMemoryDocumentCache)(nil)
