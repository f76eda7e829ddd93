package event

import (
	"github.com/erp/procurement/internal/domain/procurement"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Ordering document events
	serializer.Register(procurement.EventTypeOrderingDocumentCreated, &procurement.OrderingDocumentCreatedEvent{})
	serializer.Register(procurement.EventTypeOrderingDocumentApproved, &procurement.OrderingDocumentApprovedEvent{})

	// Receipt note events
	serializer.Register(procurement.EventTypeReceiptNoteCreated, &procurement.ReceiptNoteCreatedEvent{})
	serializer.Register(procurement.EventTypeReceiptNotePosted, &procurement.ReceiptNotePostedEvent{})

	// Return note events
	serializer.Register(procurement.EventTypeReturnNoteCreated, &procurement.ReturnNoteCreatedEvent{})
}
