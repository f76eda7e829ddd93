package procurement

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderingDocumentRepository defines the interface for ordering document persistence
type OrderingDocumentRepository interface {
	// FindByID finds an ordering document by ID
	FindByID(ctx context.Context, id uuid.UUID) (*OrderingDocument, error)

	// FindByRef finds an ordering document by id and kind
	FindByRef(ctx context.Context, ref DocumentRef) (*OrderingDocument, error)

	// FindAllForScope finds all ordering documents for a corporation/project with filtering
	FindAllForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) ([]OrderingDocument, error)

	// CountForScope counts ordering documents for a corporation/project
	CountForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (int64, error)

	// Save creates or updates an ordering document
	Save(ctx context.Context, doc *OrderingDocument) error

	// GenerateNumber generates a unique document number per kind within a scope
	GenerateNumber(ctx context.Context, scope shared.ProjectScope, kind DocumentKind) (string, error)
}

// ReceiptNoteRepository defines the interface for receipt note persistence
type ReceiptNoteRepository interface {
	// FindByID finds a receipt note by ID
	FindByID(ctx context.Context, id uuid.UUID) (*ReceiptNote, error)

	// ListActiveForDocument lists all active receipt notes referencing an
	// ordering document (same id and kind), items included
	ListActiveForDocument(ctx context.Context, ref DocumentRef) ([]ReceiptNote, error)

	// FindAllForScope finds all receipt notes for a corporation/project with filtering
	FindAllForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) ([]ReceiptNote, error)

	// CountForScope counts receipt notes for a corporation/project
	CountForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (int64, error)

	// Save creates or updates a receipt note together with its items
	Save(ctx context.Context, note *ReceiptNote) error

	// GenerateNumber generates a unique receipt note number within a scope
	GenerateNumber(ctx context.Context, scope shared.ProjectScope) (string, error)
}

// ReturnNoteRepository defines the interface for return note persistence.
//
// Item writes follow the bulk upsert contract: Save issues exactly one bulk
// write for the note's items, updating rows that carry an id and inserting
// rows that do not. Clearing a note's items to an empty set is an explicit
// DeleteItemsByNote call, never an upsert with an empty list.
type ReturnNoteRepository interface {
	// FindByID finds a return note by ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnNote, error)

	// ListActiveForDocument lists all active return notes referencing an
	// ordering document (same id and kind), items included
	ListActiveForDocument(ctx context.Context, ref DocumentRef) ([]ReturnNote, error)

	// ListActiveItemsForDocument lists the active, non-deleted return note
	// items across all active return notes for an ordering document
	ListActiveItemsForDocument(ctx context.Context, ref DocumentRef) ([]ReturnNoteItem, error)

	// FindAllForScope finds all return notes for a corporation/project with filtering
	FindAllForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) ([]ReturnNote, error)

	// CountForScope counts return notes for a corporation/project
	CountForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (int64, error)

	// Save creates or updates a return note, bulk-upserting its items in a
	// single write keyed on item id presence
	Save(ctx context.Context, note *ReturnNote) error

	// DeleteItemsByNote removes all items of a return note
	DeleteItemsByNote(ctx context.Context, noteID uuid.UUID) error

	// GenerateNumber generates a unique return note number within a scope
	GenerateNumber(ctx context.Context, scope shared.ProjectScope) (string, error)
}
