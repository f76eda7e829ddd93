package event

import (
	"context"

	"github.com/erp/procurement/internal/domain/shared"
	"go.uber.org/zap"
)

// BusPublisher adapts an EventBus to the domain's EventPublisher interface.
// Application services hand it the events collected on an aggregate after
// the aggregate has been persisted.
type BusPublisher struct {
	bus shared.EventBus
}

// NewBusPublisher creates a publisher backed by an event bus
func NewBusPublisher(bus shared.EventBus) *BusPublisher {
	return &BusPublisher{bus: bus}
}

// Publish forwards the events to the bus
func (p *BusPublisher) Publish(ctx context.Context, events []shared.DomainEvent) error {
	return p.bus.Publish(ctx, events...)
}

// Ensure BusPublisher implements EventPublisher
var _ shared.EventPublisher = (*BusPublisher)(nil)

// AuditLogHandler writes a structured log line for every event it sees.
// Subscribed as a wildcard handler it gives a complete audit trail of
// document lifecycle changes.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new audit log handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger}
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns nil so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Ensure AuditLogHandler implements EventHandler
var _ shared.EventHandler = (*AuditLogHandler)(nil)
