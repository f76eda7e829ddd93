package procurement

import (
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReturnNoteStatus represents the status of a return note
type ReturnNoteStatus string

const (
	ReturnNoteStatusOpen      ReturnNoteStatus = "OPEN"
	ReturnNoteStatusClosed    ReturnNoteStatus = "CLOSED"
	ReturnNoteStatusCancelled ReturnNoteStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ReturnNoteStatus
func (s ReturnNoteStatus) IsValid() bool {
	switch s {
	case ReturnNoteStatusOpen, ReturnNoteStatusClosed, ReturnNoteStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReturnNoteStatus
func (s ReturnNoteStatus) String() string {
	return string(s)
}

// ReturnNoteItem represents a returned line on a return note.
//
// ID is the upsert pivot: a nil ID means "new, not yet persisted" and the
// bulk write inserts it; a non-nil ID means the item was previously stored
// and the bulk write updates it in place. Exactly one bulk write call is
// issued per note save, never one call per item.
type ReturnNoteItem struct {
	ID             *uuid.UUID      `gorm:"type:uuid;primary_key" json:"id,omitempty"`
	NoteID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"note_id"`
	ItemID         string          `gorm:"type:varchar(64);not null" json:"item_id"`
	BaseItemID     string          `gorm:"type:varchar(64)" json:"base_item_id,omitempty"`
	ItemName       string          `gorm:"type:varchar(200)" json:"item_name,omitempty"`
	ReturnQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"return_quantity"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for GORM
func (ReturnNoteItem) TableName() string {
	return "return_note_items"
}

// Identity returns the item identity used for fulfillment matching
func (i *ReturnNoteItem) Identity() ItemIdentity {
	return ItemIdentity{ItemID: i.ItemID, BaseItemID: i.BaseItemID}
}

// IsNew reports whether the item has not been persisted yet
func (i *ReturnNoteItem) IsNew() bool {
	return i.ID == nil
}

// ReturnNote represents a return note aggregate root. It records quantities
// sent back against an ordering document, reducing effective fulfillment.
type ReturnNote struct {
	shared.ScopedAggregateRoot
	Number       string           `gorm:"type:varchar(50);not null;index"`
	DocumentID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_return_note_doc,priority:1"`
	DocumentKind DocumentKind     `gorm:"type:varchar(20);not null;index:idx_return_note_doc,priority:2"`
	Items        []ReturnNoteItem `gorm:"foreignKey:NoteID;references:ID"`
	Status       ReturnNoteStatus `gorm:"type:varchar(20);not null;default:'OPEN'"`
	IsActive     bool             `gorm:"not null;default:true"`
	Remark       string           `gorm:"type:text"`
	ClosedAt     *time.Time
	CancelledAt  *time.Time
}

// TableName returns the table name for GORM
func (ReturnNote) TableName() string {
	return "return_notes"
}

// NewReturnNote creates an empty return note against an ordering document
func NewReturnNote(scope shared.ProjectScope, number string, ref DocumentRef) (*ReturnNote, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Return note number cannot be empty")
	}
	if ref.IsZero() || !ref.Kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Return note requires a valid document reference")
	}

	note := &ReturnNote{
		ScopedAggregateRoot: shared.NewScopedAggregateRoot(scope),
		Number:              number,
		DocumentID:          ref.ID,
		DocumentKind:        ref.Kind,
		Items:               make([]ReturnNoteItem, 0),
		Status:              ReturnNoteStatusOpen,
		IsActive:            true,
	}

	note.AddDomainEvent(NewReturnNoteCreatedEvent(note))

	return note, nil
}

// NewReturnNoteFromShortfalls creates a return note pre-populated with one
// new item per remaining shortfall item; item IDs are left nil so the bulk
// write inserts them
func NewReturnNoteFromShortfalls(scope shared.ProjectScope, number string, ref DocumentRef, shortfalls []ShortfallItem) (*ReturnNote, error) {
	note, err := NewReturnNote(scope, number, ref)
	if err != nil {
		return nil, err
	}
	if len(shortfalls) == 0 {
		return nil, shared.NewDomainError("NO_SHORTFALL", "Cannot raise a return note without shortfall items")
	}

	now := time.Now()
	for _, s := range shortfalls {
		note.Items = append(note.Items, ReturnNoteItem{
			NoteID:         note.ID,
			ItemID:         s.ItemID,
			BaseItemID:     s.BaseItemID,
			ItemName:       s.ItemName,
			ReturnQuantity: s.ShortfallQuantity,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	return note, nil
}

// Ref returns the reference to the note's ordering document
func (n *ReturnNote) Ref() DocumentRef {
	return NewDocumentRef(n.DocumentID, n.DocumentKind)
}

// SetItems replaces the note's item list with user-entered quantities,
// matching entries against previously stored items so existing rows carry
// their stored id into the bulk upsert while new rows stay id-less.
//
// existing must be the note's items as previously fetched from storage.
// Only allowed while the note is OPEN.
func (n *ReturnNote) SetItems(entries []ReturnNoteItem, existing []ReturnNoteItem) error {
	if n.Status != ReturnNoteStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify items on a non-open return note")
	}

	now := time.Now()
	items := make([]ReturnNoteItem, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.ReturnQuantity.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_QUANTITY",
				fmt.Sprintf("Return quantity for item %q must be positive", entry.ItemID))
		}
		key, ok := entry.Identity().Key()
		if !ok {
			return shared.NewDomainError("INVALID_ITEM", "Return note item requires an identifier")
		}
		// One row per item identity. Two entries resolving to the same key
		// would both claim the same stored row in the upsert.
		if _, dup := seen[key]; dup {
			return shared.NewDomainError("DUPLICATE_ITEM",
				fmt.Sprintf("Item %q appears more than once", entry.ItemID))
		}
		seen[key] = struct{}{}

		item := ReturnNoteItem{
			NoteID:         n.ID,
			ItemID:         entry.ItemID,
			BaseItemID:     entry.BaseItemID,
			ItemName:       entry.ItemName,
			ReturnQuantity: entry.ReturnQuantity,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for idx := range existing {
			if existing[idx].ID != nil && existing[idx].Identity().Matches(entry.Identity()) {
				item.ID = existing[idx].ID
				item.CreatedAt = existing[idx].CreatedAt
				break
			}
		}
		items = append(items, item)
	}

	n.Items = items
	n.UpdatedAt = now
	n.IncrementVersion()

	return nil
}

// Close marks the return note as settled
func (n *ReturnNote) Close() error {
	if n.Status != ReturnNoteStatusOpen {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot close return note in %s status", n.Status))
	}

	now := time.Now()
	n.Status = ReturnNoteStatusClosed
	n.ClosedAt = &now
	n.UpdatedAt = now
	n.IncrementVersion()

	return nil
}

// Cancel deactivates the return note so its quantities no longer reduce
// fulfillment
func (n *ReturnNote) Cancel() error {
	if n.Status == ReturnNoteStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Return note is already cancelled")
	}

	now := time.Now()
	n.Status = ReturnNoteStatusCancelled
	n.IsActive = false
	n.CancelledAt = &now
	n.UpdatedAt = now
	n.IncrementVersion()

	return nil
}

// ActiveItems returns the items that reduce fulfillment
func (n *ReturnNote) ActiveItems() []ReturnNoteItem {
	items := make([]ReturnNoteItem, 0, len(n.Items))
	for _, item := range n.Items {
		if item.IsActive {
			items = append(items, item)
		}
	}
	return items
}

// IsOpen returns true if the note is open
func (n *ReturnNote) IsOpen() bool {
	return n.Status == ReturnNoteStatusOpen
}
