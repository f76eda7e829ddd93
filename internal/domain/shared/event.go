package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
}

// ScopedDomainEvent is implemented by events that know which corporation
// they belong to. The outbox uses it to stamp entries with the owner.
type ScopedDomainEvent interface {
	DomainEvent
	CorporationID() uuid.UUID
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	AggID     uuid.UUID `json:"aggregate_id"`
	AggType   string    `json:"aggregate_type"`
	CorpID    uuid.UUID `json:"corporation_id"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// CorporationID returns the corporation the event belongs to
func (e *BaseDomainEvent) CorporationID() uuid.UUID {
	return e.CorpID
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType string, aggID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		AggID:     aggID,
		AggType:   aggType,
	}
}

// NewScopedDomainEvent creates a base domain event stamped with the corporation scope
func NewScopedDomainEvent(eventType, aggType string, aggID, corporationID uuid.UUID) BaseDomainEvent {
	e := NewBaseDomainEvent(eventType, aggType, aggID)
	e.CorpID = corporationID
	return e
}

// EventPublisher publishes domain events after an aggregate is persisted
type EventPublisher interface {
	Publish(ctx context.Context, events []DomainEvent) error
}

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error

	// EventTypes returns the event types this handler is interested in.
	// An empty slice means the handler receives all events.
	EventTypes() []string
}

// EventBus routes published events to subscribed handlers
type EventBus interface {
	// Publish publishes events to all registered handlers
	Publish(ctx context.Context, events ...DomainEvent) error

	// Subscribe registers a handler for specific event types
	Subscribe(handler EventHandler, eventTypes ...string)

	// Unsubscribe removes a handler
	Unsubscribe(handler EventHandler)

	// Start starts the event bus
	Start(ctx context.Context) error

	// Stop stops the event bus gracefully
	Stop(ctx context.Context) error
}
