package event

import (
	"context"
	"fmt"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxPublisher writes domain events into the outbox table inside the
// caller's transaction, so the events commit or roll back together with
// the aggregate that raised them.
type OutboxPublisher struct {
	serializer *EventSerializer
}

// NewOutboxPublisher creates an outbox publisher over the given
// serializer.
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// SaveEvents serializes the events and stores them as outbox entries
// within the transaction carried by txProvider.
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider interface{}, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, evt := range events {
		payload, err := p.serializer.Serialize(evt)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(corporationOf(evt), evt, payload))
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// corporationOf resolves the owning corporation for an event, uuid.Nil
// when the event is unscoped.
func corporationOf(event shared.DomainEvent) uuid.UUID {
	if scoped, ok := event.(shared.ScopedDomainEvent); ok {
		return scoped.CorporationID()
	}
	return uuid.Nil
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
