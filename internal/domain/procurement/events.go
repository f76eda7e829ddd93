package procurement

import (
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeOrderingDocumentCreated  = "procurement.ordering_document.created"
	EventTypeOrderingDocumentApproved = "procurement.ordering_document.approved"
	EventTypeReceiptNoteCreated       = "procurement.receipt_note.created"
	EventTypeReceiptNotePosted        = "procurement.receipt_note.posted"
	EventTypeReturnNoteCreated        = "procurement.return_note.created"
)

// OrderingDocumentCreatedEvent is raised when an ordering document is created
type OrderingDocumentCreatedEvent struct {
	shared.BaseDomainEvent
	Number string       `json:"number"`
	Kind   DocumentKind `json:"kind"`
}

// NewOrderingDocumentCreatedEvent creates an OrderingDocumentCreatedEvent
func NewOrderingDocumentCreatedEvent(doc *OrderingDocument) *OrderingDocumentCreatedEvent {
	return &OrderingDocumentCreatedEvent{
		BaseDomainEvent: shared.NewScopedDomainEvent(EventTypeOrderingDocumentCreated, "OrderingDocument", doc.ID, doc.CorporationID),
		Number:          doc.Number,
		Kind:            doc.Kind,
	}
}

// OrderingDocumentApprovedEvent is raised when an ordering document is approved
type OrderingDocumentApprovedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	Kind       DocumentKind    `json:"kind"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// NewOrderingDocumentApprovedEvent creates an OrderingDocumentApprovedEvent
func NewOrderingDocumentApprovedEvent(doc *OrderingDocument) *OrderingDocumentApprovedEvent {
	return &OrderingDocumentApprovedEvent{
		BaseDomainEvent: shared.NewScopedDomainEvent(EventTypeOrderingDocumentApproved, "OrderingDocument", doc.ID, doc.CorporationID),
		Number:          doc.Number,
		Kind:            doc.Kind,
		GrandTotal:      doc.Breakdown.GrandTotal,
	}
}

// ReceiptNoteCreatedEvent is raised when a receipt note is created
type ReceiptNoteCreatedEvent struct {
	shared.BaseDomainEvent
	Number   string      `json:"number"`
	Document DocumentRef `json:"document"`
}

// NewReceiptNoteCreatedEvent creates a ReceiptNoteCreatedEvent
func NewReceiptNoteCreatedEvent(note *ReceiptNote) *ReceiptNoteCreatedEvent {
	return &ReceiptNoteCreatedEvent{
		BaseDomainEvent: shared.NewScopedDomainEvent(EventTypeReceiptNoteCreated, "ReceiptNote", note.ID, note.CorporationID),
		Number:          note.Number,
		Document:        note.Ref(),
	}
}

// ReceiptNotePostedEvent is raised when a receipt note is posted
type ReceiptNotePostedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	Document   DocumentRef     `json:"document"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// NewReceiptNotePostedEvent creates a ReceiptNotePostedEvent
func NewReceiptNotePostedEvent(note *ReceiptNote) *ReceiptNotePostedEvent {
	return &ReceiptNotePostedEvent{
		BaseDomainEvent: shared.NewScopedDomainEvent(EventTypeReceiptNotePosted, "ReceiptNote", note.ID, note.CorporationID),
		Number:          note.Number,
		Document:        note.Ref(),
		GrandTotal:      note.Breakdown.GrandTotal,
	}
}

// ReturnNoteCreatedEvent is raised when a return note is created
type ReturnNoteCreatedEvent struct {
	shared.BaseDomainEvent
	Number   string      `json:"number"`
	Document DocumentRef `json:"document"`
}

// NewReturnNoteCreatedEvent creates a ReturnNoteCreatedEvent
func NewReturnNoteCreatedEvent(note *ReturnNote) *ReturnNoteCreatedEvent {
	return &ReturnNoteCreatedEvent{
		BaseDomainEvent: shared.NewScopedDomainEvent(EventTypeReturnNoteCreated, "ReturnNote", note.ID, note.CorporationID),
		Number:          note.Number,
		Document:        note.Ref(),
	}
}
