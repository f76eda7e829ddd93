package procurement

import (
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderingDocumentStatus represents the status of an ordering document
type OrderingDocumentStatus string

const (
	OrderingDocumentStatusDraft     OrderingDocumentStatus = "DRAFT"
	OrderingDocumentStatusApproved  OrderingDocumentStatus = "APPROVED"
	OrderingDocumentStatusClosed    OrderingDocumentStatus = "CLOSED"
	OrderingDocumentStatusCancelled OrderingDocumentStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderingDocumentStatus
func (s OrderingDocumentStatus) IsValid() bool {
	switch s {
	case OrderingDocumentStatusDraft, OrderingDocumentStatusApproved,
		OrderingDocumentStatusClosed, OrderingDocumentStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderingDocumentStatus
func (s OrderingDocumentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderingDocumentStatus) CanTransitionTo(target OrderingDocumentStatus) bool {
	switch s {
	case OrderingDocumentStatusDraft:
		return target == OrderingDocumentStatusApproved || target == OrderingDocumentStatusCancelled
	case OrderingDocumentStatusApproved:
		return target == OrderingDocumentStatusClosed || target == OrderingDocumentStatusCancelled
	case OrderingDocumentStatusClosed, OrderingDocumentStatusCancelled:
		return false // Terminal states
	}
	return false
}

// CanReceive returns true if receipt notes may be recorded in this status
func (s OrderingDocumentStatus) CanReceive() bool {
	return s == OrderingDocumentStatusApproved
}

// OrderedLineItem represents a line item in an ordering document
type OrderedLineItem struct {
	ID                       uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID                   string          `gorm:"type:varchar(64);not null"` // Primary item code
	BaseItemID               string          `gorm:"type:varchar(64)"`          // Fallback item code for matching
	ItemName                 string          `gorm:"type:varchar(200);not null"`
	OrderedQuantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total                    decimal.Decimal `gorm:"type:decimal(18,2);not null"` // OrderedQuantity * UnitPrice, no charges/taxes
	TotalWithChargesAndTaxes decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Remark                   string          `gorm:"type:varchar(500)"`
	CreatedAt                time.Time       `gorm:"not null"`
	UpdatedAt                time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderedLineItem) TableName() string {
	return "ordered_line_items"
}

// NewOrderedLineItem creates a new ordered line item
func NewOrderedLineItem(documentID uuid.UUID, itemID, baseItemID, itemName string, quantity decimal.Decimal, unitPrice valueobject.Money) (*OrderedLineItem, error) {
	if NormalizeItemKey(itemID) == "" && NormalizeItemKey(baseItemID) == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item requires at least one identifier")
	}
	if itemName == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderedLineItem{
		ID:              uuid.New(),
		DocumentID:      documentID,
		ItemID:          itemID,
		BaseItemID:      baseItemID,
		ItemName:        itemName,
		OrderedQuantity: quantity,
		UnitPrice:       unitPrice.Amount(),
		Total:           valueobject.RoundAmount(quantity.Mul(unitPrice.Amount())),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Identity returns the item identity used for fulfillment matching
func (i *OrderedLineItem) Identity() ItemIdentity {
	return ItemIdentity{ItemID: i.ItemID, BaseItemID: i.BaseItemID}
}

// UpdateQuantity updates the ordered quantity and recalculates the raw total
func (i *OrderedLineItem) UpdateQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	i.OrderedQuantity = quantity
	i.Total = valueobject.RoundAmount(quantity.Mul(i.UnitPrice))
	i.UpdatedAt = time.Now()
	return nil
}

// UpdateUnitPrice updates the unit price and recalculates the raw total
func (i *OrderedLineItem) UpdateUnitPrice(unitPrice valueobject.Money) error {
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	i.UnitPrice = unitPrice.Amount()
	i.Total = valueobject.RoundAmount(i.OrderedQuantity.Mul(i.UnitPrice))
	i.UpdatedAt = time.Now()
	return nil
}

// OrderingDocument represents a purchase order or change order aggregate root.
// It owns the ordered line items and the charge/tax configuration, and keeps
// an embedded financial breakdown that is recomputed in full on every change.
type OrderingDocument struct {
	shared.ScopedAggregateRoot
	Number       string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_ordering_doc_number,priority:2"`
	Kind         DocumentKind           `gorm:"type:varchar(20);not null;uniqueIndex:idx_ordering_doc_number,priority:1"`
	SupplierID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	SupplierName string                 `gorm:"type:varchar(200);not null"`
	Items        []OrderedLineItem      `gorm:"foreignKey:DocumentID;references:ID"`
	Charges      ChargeTaxConfig        `gorm:"embedded"`
	Breakdown    FinancialBreakdown     `gorm:"embedded"`
	Status       OrderingDocumentStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Remark       string                 `gorm:"type:text"`
	ApprovedAt   *time.Time             `gorm:"index"`
	ClosedAt     *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (OrderingDocument) TableName() string {
	return "ordering_documents"
}

// NewOrderingDocument creates a new ordering document
func NewOrderingDocument(scope shared.ProjectScope, kind DocumentKind, number string, supplierID uuid.UUID, supplierName string) (*OrderingDocument, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Document kind must be PURCHASE_ORDER or CHANGE_ORDER")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot exceed 50 characters")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}

	doc := &OrderingDocument{
		ScopedAggregateRoot: shared.NewScopedAggregateRoot(scope),
		Number:              number,
		Kind:                kind,
		SupplierID:          supplierID,
		SupplierName:        supplierName,
		Items:               make([]OrderedLineItem, 0),
		Status:              OrderingDocumentStatusDraft,
	}

	doc.AddDomainEvent(NewOrderingDocumentCreatedEvent(doc))

	return doc, nil
}

// Ref returns the document reference notes use to point at this document
func (d *OrderingDocument) Ref() DocumentRef {
	return NewDocumentRef(d.ID, d.Kind)
}

// AddItem adds a new line item to the document
// Only allowed in DRAFT status
func (d *OrderingDocument) AddItem(itemID, baseItemID, itemName string, quantity decimal.Decimal, unitPrice valueobject.Money) (*OrderedLineItem, error) {
	if d.Status != OrderingDocumentStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a non-draft document")
	}

	identity := ItemIdentity{ItemID: itemID, BaseItemID: baseItemID}
	for idx := range d.Items {
		if d.Items[idx].Identity().Matches(identity) {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Item already exists in document, update quantity instead")
		}
	}

	item, err := NewOrderedLineItem(d.ID, itemID, baseItemID, itemName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	d.Items = append(d.Items, *item)
	if err := d.recalculate(); err != nil {
		d.Items = d.Items[:len(d.Items)-1]
		return nil, err
	}
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return item, nil
}

// UpdateItemQuantity updates the ordered quantity of an existing item
// Only allowed in DRAFT status
func (d *OrderingDocument) UpdateItemQuantity(itemID uuid.UUID, quantity decimal.Decimal) error {
	if d.Status != OrderingDocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items in a non-draft document")
	}

	for idx := range d.Items {
		if d.Items[idx].ID == itemID {
			if err := d.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			if err := d.recalculate(); err != nil {
				return err
			}
			d.UpdatedAt = time.Now()
			d.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
}

// UpdateItemPrice updates the unit price of an existing item
// Only allowed in DRAFT status
func (d *OrderingDocument) UpdateItemPrice(itemID uuid.UUID, unitPrice valueobject.Money) error {
	if d.Status != OrderingDocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items in a non-draft document")
	}

	for idx := range d.Items {
		if d.Items[idx].ID == itemID {
			if err := d.Items[idx].UpdateUnitPrice(unitPrice); err != nil {
				return err
			}
			if err := d.recalculate(); err != nil {
				return err
			}
			d.UpdatedAt = time.Now()
			d.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
}

// RemoveItem removes a line item from the document
// Only allowed in DRAFT status
func (d *OrderingDocument) RemoveItem(itemID uuid.UUID) error {
	if d.Status != OrderingDocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a non-draft document")
	}

	for idx, item := range d.Items {
		if item.ID == itemID {
			d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
			if err := d.recalculate(); err != nil {
				return err
			}
			d.UpdatedAt = time.Now()
			d.IncrementVersion()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Line item not found")
}

// SetChargeTaxConfig replaces the charge/tax configuration and recomputes
// the breakdown and per-item allocated totals
// Only allowed in DRAFT status
func (d *OrderingDocument) SetChargeTaxConfig(cfg ChargeTaxConfig) error {
	if d.Status != OrderingDocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change charges on a non-draft document")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	d.Charges = cfg
	if err := d.recalculate(); err != nil {
		return err
	}
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// SetRemark sets the document remark
func (d *OrderingDocument) SetRemark(remark string) {
	d.Remark = remark
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// Approve transitions the document from DRAFT to APPROVED
// Requires at least one line item
func (d *OrderingDocument) Approve() error {
	if !d.Status.CanTransitionTo(OrderingDocumentStatusApproved) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve document in %s status", d.Status))
	}
	if len(d.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot approve document without items")
	}

	now := time.Now()
	d.Status = OrderingDocumentStatusApproved
	d.ApprovedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	d.AddDomainEvent(NewOrderingDocumentApprovedEvent(d))

	return nil
}

// Close transitions the document to CLOSED once fulfillment is settled
func (d *OrderingDocument) Close() error {
	if !d.Status.CanTransitionTo(OrderingDocumentStatusClosed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot close document in %s status", d.Status))
	}

	now := time.Now()
	d.Status = OrderingDocumentStatusClosed
	d.ClosedAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()

	return nil
}

// Cancel cancels the document
func (d *OrderingDocument) Cancel(reason string) error {
	if !d.Status.CanTransitionTo(OrderingDocumentStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel document in %s status", d.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	d.Status = OrderingDocumentStatusCancelled
	d.CancelledAt = &now
	d.CancelReason = reason
	d.UpdatedAt = now
	d.IncrementVersion()

	return nil
}

// recalculate recomputes the item total, the financial breakdown, and the
// per-item allocated totals from the current items and configuration
func (d *OrderingDocument) recalculate() error {
	itemTotal := decimal.Zero
	rawTotals := make([]decimal.Decimal, len(d.Items))
	for idx := range d.Items {
		itemTotal = itemTotal.Add(d.Items[idx].Total)
		rawTotals[idx] = d.Items[idx].Total
	}

	breakdown, err := ComputeBreakdown(itemTotal, d.Charges)
	if err != nil {
		return err
	}
	d.Breakdown = breakdown

	allocated, err := AllocateLineItemTotals(breakdown.GrandTotal, rawTotals)
	if err != nil {
		return err
	}
	for idx := range d.Items {
		d.Items[idx].TotalWithChargesAndTaxes = allocated[idx]
	}

	return nil
}

// GetItem returns a line item by its ID
func (d *OrderingDocument) GetItem(itemID uuid.UUID) *OrderedLineItem {
	for idx := range d.Items {
		if d.Items[idx].ID == itemID {
			return &d.Items[idx]
		}
	}
	return nil
}

// FindItemByIdentity returns the line item matching an item identity
func (d *OrderingDocument) FindItemByIdentity(identity ItemIdentity) *OrderedLineItem {
	for idx := range d.Items {
		if d.Items[idx].Identity().Matches(identity) {
			return &d.Items[idx]
		}
	}
	return nil
}

// ItemCount returns the number of line items in the document
func (d *OrderingDocument) ItemCount() int {
	return len(d.Items)
}

// IsDraft returns true if the document is in draft status
func (d *OrderingDocument) IsDraft() bool {
	return d.Status == OrderingDocumentStatusDraft
}

// IsApproved returns true if the document is approved
func (d *OrderingDocument) IsApproved() bool {
	return d.Status == OrderingDocumentStatusApproved
}

// CanModify returns true if the document can be modified
func (d *OrderingDocument) CanModify() bool {
	return d.IsDraft()
}
