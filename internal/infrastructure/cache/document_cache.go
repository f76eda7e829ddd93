package cache

import (
	"context"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderingDocumentCache caches ordering document aggregates per project
// scope. Entries are keyed on (corporation, project, document id), so one
// project can never observe another project's documents through the cache.
//
// Cache failures are deliberately invisible to callers: a Get that cannot be
// served reports a miss, a Set or Invalidate that fails is dropped. The
// repository stays the source of truth either way.
type OrderingDocumentCache interface {
	// Get returns the cached document and true on a hit
	Get(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID) (*procurement.OrderingDocument, bool)

	// Set stores the document under its scope and id
	Set(ctx context.Context, doc *procurement.OrderingDocument)

	// Invalidate drops one document from the cache
	Invalidate(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID)

	// InvalidateScope drops every document cached for a scope
	InvalidateScope(ctx context.Context, scope shared.ProjectScope)

	// Close releases any resources held by the cache
	Close() error
}

// documentCacheKey builds the scope-qualified cache key for a document
func documentCacheKey(scope shared.ProjectScope, docID uuid.UUID) string {
	return scopeCachePrefix(scope) + docID.String()
}

// scopeCachePrefix builds the key prefix shared by all documents of a scope
func scopeCachePrefix(scope shared.ProjectScope) string {
	return "doc:" + scope.CorporationID.String() + ":" + scope.ProjectID.String() + ":"
}
