package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// ProjectScope identifies the corporation/project a document belongs to.
// All procurement documents are scoped this way; caches and queries are
// keyed on it explicitly rather than through ambient state.
type ProjectScope struct {
	CorporationID uuid.UUID `gorm:"type:uuid;not null;index:idx_project_scope,priority:1"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index:idx_project_scope,priority:2"`
}

// NewProjectScope creates a project scope
func NewProjectScope(corporationID, projectID uuid.UUID) ProjectScope {
	return ProjectScope{CorporationID: corporationID, ProjectID: projectID}
}

// IsZero reports whether the scope is unset
func (s ProjectScope) IsZero() bool {
	return s.CorporationID == uuid.Nil && s.ProjectID == uuid.Nil
}

// ScopedAggregateRoot extends BaseAggregateRoot with corporation/project scoping
type ScopedAggregateRoot struct {
	BaseAggregateRoot
	ProjectScope
}

// NewScopedAggregateRoot creates a new project-scoped aggregate root
func NewScopedAggregateRoot(scope ProjectScope) ScopedAggregateRoot {
	return ScopedAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		ProjectScope:      scope,
	}
}
