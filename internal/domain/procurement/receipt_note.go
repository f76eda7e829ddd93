package procurement

import (
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptNoteStatus represents the status of a receipt note (GRN)
type ReceiptNoteStatus string

const (
	ReceiptNoteStatusDraft     ReceiptNoteStatus = "DRAFT"
	ReceiptNoteStatusPosted    ReceiptNoteStatus = "POSTED"
	ReceiptNoteStatusCancelled ReceiptNoteStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ReceiptNoteStatus
func (s ReceiptNoteStatus) IsValid() bool {
	switch s {
	case ReceiptNoteStatusDraft, ReceiptNoteStatusPosted, ReceiptNoteStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReceiptNoteStatus
func (s ReceiptNoteStatus) String() string {
	return string(s)
}

// ReceiptNoteItem represents a received line on a receipt note
type ReceiptNoteItem struct {
	ID                       uuid.UUID       `gorm:"type:uuid;primary_key"`
	NoteID                   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID                   string          `gorm:"type:varchar(64);not null"`
	BaseItemID               string          `gorm:"type:varchar(64)"`
	ItemName                 string          `gorm:"type:varchar(200);not null"`
	ReceivedQuantity         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total                    decimal.Decimal `gorm:"type:decimal(18,2);not null"` // ReceivedQuantity * UnitPrice, no charges/taxes
	TotalWithChargesAndTaxes decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	IsActive                 bool            `gorm:"not null;default:true"`
	CreatedAt                time.Time       `gorm:"not null"`
	UpdatedAt                time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceiptNoteItem) TableName() string {
	return "receipt_note_items"
}

// Identity returns the item identity used for fulfillment matching
func (i *ReceiptNoteItem) Identity() ItemIdentity {
	return ItemIdentity{ItemID: i.ItemID, BaseItemID: i.BaseItemID}
}

// ReceiptNote represents a goods receipt note aggregate root. It records
// quantities actually received against exactly one ordering document and
// carries its own financial breakdown computed from the document's charge
// and tax configuration over the received totals.
type ReceiptNote struct {
	shared.ScopedAggregateRoot
	Number       string             `gorm:"type:varchar(50);not null;index"`
	DocumentID   uuid.UUID          `gorm:"type:uuid;not null;index:idx_receipt_note_doc,priority:1"`
	DocumentKind DocumentKind       `gorm:"type:varchar(20);not null;index:idx_receipt_note_doc,priority:2"`
	Items        []ReceiptNoteItem  `gorm:"foreignKey:NoteID;references:ID"`
	Charges      ChargeTaxConfig    `gorm:"embedded"`
	Breakdown    FinancialBreakdown `gorm:"embedded"`
	Status       ReceiptNoteStatus  `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	IsActive     bool               `gorm:"not null;default:true"`
	Remark       string             `gorm:"type:text"`
	PostedAt     *time.Time
	CancelledAt  *time.Time
}

// TableName returns the table name for GORM
func (ReceiptNote) TableName() string {
	return "receipt_notes"
}

// NewReceiptNote creates a new receipt note against an ordering document.
// The document must be in a status that allows receiving; the note copies
// the document's charge/tax configuration at creation time.
func NewReceiptNote(scope shared.ProjectScope, number string, doc *OrderingDocument) (*ReceiptNote, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Receipt note number cannot be empty")
	}
	if doc == nil {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Ordering document cannot be nil")
	}
	if !doc.Status.CanReceive() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot receive against document in %s status", doc.Status))
	}

	note := &ReceiptNote{
		ScopedAggregateRoot: shared.NewScopedAggregateRoot(scope),
		Number:              number,
		DocumentID:          doc.ID,
		DocumentKind:        doc.Kind,
		Items:               make([]ReceiptNoteItem, 0),
		Charges:             doc.Charges,
		Status:              ReceiptNoteStatusDraft,
		IsActive:            true,
	}

	note.AddDomainEvent(NewReceiptNoteCreatedEvent(note))

	return note, nil
}

// Ref returns the reference to the note's ordering document
func (n *ReceiptNote) Ref() DocumentRef {
	return NewDocumentRef(n.DocumentID, n.DocumentKind)
}

// AddItem records a received quantity for an ordered line item
// Only allowed in DRAFT status
func (n *ReceiptNote) AddItem(ordered *OrderedLineItem, receivedQuantity decimal.Decimal) (*ReceiptNoteItem, error) {
	if n.Status != ReceiptNoteStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft receipt note")
	}
	if ordered == nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Ordered line item cannot be nil")
	}
	if receivedQuantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Received quantity cannot be negative")
	}

	for idx := range n.Items {
		if n.Items[idx].IsActive && n.Items[idx].Identity().Matches(ordered.Identity()) {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Item already exists on receipt note, update quantity instead")
		}
	}

	now := time.Now()
	item := ReceiptNoteItem{
		ID:               uuid.New(),
		NoteID:           n.ID,
		ItemID:           ordered.ItemID,
		BaseItemID:       ordered.BaseItemID,
		ItemName:         ordered.ItemName,
		ReceivedQuantity: receivedQuantity,
		UnitPrice:        ordered.UnitPrice,
		Total:            valueobject.RoundAmount(receivedQuantity.Mul(ordered.UnitPrice)),
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	n.Items = append(n.Items, item)
	if err := n.recalculate(); err != nil {
		n.Items = n.Items[:len(n.Items)-1]
		return nil, err
	}
	n.UpdatedAt = now
	n.IncrementVersion()

	return &n.Items[len(n.Items)-1], nil
}

// UpdateItemQuantity updates the received quantity of an item on the note
// Only allowed in DRAFT status
func (n *ReceiptNote) UpdateItemQuantity(itemID uuid.UUID, receivedQuantity decimal.Decimal) error {
	if n.Status != ReceiptNoteStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items on a non-draft receipt note")
	}
	if receivedQuantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity cannot be negative")
	}

	for idx := range n.Items {
		if n.Items[idx].ID == itemID {
			n.Items[idx].ReceivedQuantity = receivedQuantity
			n.Items[idx].Total = valueobject.RoundAmount(receivedQuantity.Mul(n.Items[idx].UnitPrice))
			n.Items[idx].UpdatedAt = time.Now()
			if err := n.recalculate(); err != nil {
				return err
			}
			n.UpdatedAt = time.Now()
			n.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Receipt note item not found")
}

// DeactivateItem marks an item inactive so it no longer counts toward
// fulfillment or totals. Inactive items are kept for traceability.
func (n *ReceiptNote) DeactivateItem(itemID uuid.UUID) error {
	if n.Status != ReceiptNoteStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot deactivate items on a non-draft receipt note")
	}

	for idx := range n.Items {
		if n.Items[idx].ID == itemID {
			n.Items[idx].IsActive = false
			n.Items[idx].UpdatedAt = time.Now()
			if err := n.recalculate(); err != nil {
				return err
			}
			n.UpdatedAt = time.Now()
			n.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Receipt note item not found")
}

// ApplyCharges replaces the note's charge/tax configuration (taken from the
// current ordering document configuration) and recomputes the breakdown
func (n *ReceiptNote) ApplyCharges(cfg ChargeTaxConfig) error {
	if n.Status != ReceiptNoteStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change charges on a non-draft receipt note")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	n.Charges = cfg
	if err := n.recalculate(); err != nil {
		return err
	}
	n.UpdatedAt = time.Now()
	n.IncrementVersion()

	return nil
}

// Post marks the note as posted; posted notes count toward fulfillment and
// can no longer be edited
func (n *ReceiptNote) Post() error {
	if n.Status != ReceiptNoteStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot post receipt note in %s status", n.Status))
	}
	if n.ActiveItemCount() == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot post receipt note without active items")
	}

	now := time.Now()
	n.Status = ReceiptNoteStatusPosted
	n.PostedAt = &now
	n.UpdatedAt = now
	n.IncrementVersion()

	n.AddDomainEvent(NewReceiptNotePostedEvent(n))

	return nil
}

// Cancel deactivates the note so it no longer contributes to fulfillment
func (n *ReceiptNote) Cancel() error {
	if n.Status == ReceiptNoteStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Receipt note is already cancelled")
	}

	now := time.Now()
	n.Status = ReceiptNoteStatusCancelled
	n.IsActive = false
	n.CancelledAt = &now
	n.UpdatedAt = now
	n.IncrementVersion()

	return nil
}

// recalculate recomputes the note's item total, breakdown, and per-item
// allocated totals from the active items and the current configuration
func (n *ReceiptNote) recalculate() error {
	itemTotal := decimal.Zero
	rawTotals := make([]decimal.Decimal, len(n.Items))
	for idx := range n.Items {
		if !n.Items[idx].IsActive {
			rawTotals[idx] = decimal.Zero
			continue
		}
		itemTotal = itemTotal.Add(n.Items[idx].Total)
		rawTotals[idx] = n.Items[idx].Total
	}

	breakdown, err := ComputeBreakdown(itemTotal, n.Charges)
	if err != nil {
		return err
	}
	n.Breakdown = breakdown

	allocated, err := AllocateLineItemTotals(breakdown.GrandTotal, rawTotals)
	if err != nil {
		return err
	}
	for idx := range n.Items {
		n.Items[idx].TotalWithChargesAndTaxes = allocated[idx]
	}

	return nil
}

// ActiveItems returns the items that count toward fulfillment
func (n *ReceiptNote) ActiveItems() []ReceiptNoteItem {
	items := make([]ReceiptNoteItem, 0, len(n.Items))
	for _, item := range n.Items {
		if item.IsActive {
			items = append(items, item)
		}
	}
	return items
}

// ActiveItemCount returns the number of active items on the note
func (n *ReceiptNote) ActiveItemCount() int {
	count := 0
	for _, item := range n.Items {
		if item.IsActive {
			count++
		}
	}
	return count
}

// GetItem returns a note item by its ID
func (n *ReceiptNote) GetItem(itemID uuid.UUID) *ReceiptNoteItem {
	for idx := range n.Items {
		if n.Items[idx].ID == itemID {
			return &n.Items[idx]
		}
	}
	return nil
}

// IsDraft returns true if the note is in draft status
func (n *ReceiptNote) IsDraft() bool {
	return n.Status == ReceiptNoteStatusDraft
}

// IsPosted returns true if the note has been posted
func (n *ReceiptNote) IsPosted() bool {
	return n.Status == ReceiptNoteStatusPosted
}
