package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrderingDocumentRepository implements OrderingDocumentRepository using GORM
type GormOrderingDocumentRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormOrderingDocumentRepository creates a new GormOrderingDocumentRepository
func NewGormOrderingDocumentRepository(db *gorm.DB) *GormOrderingDocumentRepository {
	return &GormOrderingDocumentRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormOrderingDocumentRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds an ordering document by its ID
func (r *GormOrderingDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.OrderingDocument, error) {
	var doc procurement.OrderingDocument
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByRef finds an ordering document by id and kind
func (r *GormOrderingDocumentRepository) FindByRef(ctx context.Context, ref procurement.DocumentRef) (*procurement.OrderingDocument, error) {
	var doc procurement.OrderingDocument
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND kind = ?", ref.ID, ref.Kind).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindAllForScope finds all ordering documents for a corporation/project with filtering
func (r *GormOrderingDocumentRepository) FindAllForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) ([]procurement.OrderingDocument, error) {
	var docs []procurement.OrderingDocument

	query := r.db.WithContext(ctx).Model(&procurement.OrderingDocument{}).
		Where("corporation_id = ? AND project_id = ?", scope.CorporationID, scope.ProjectID)

	query = r.applyFilter(query, filter)

	if err := query.Preload("Items").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// CountForScope counts ordering documents for a corporation/project
func (r *GormOrderingDocumentRepository) CountForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&procurement.OrderingDocument{}).
		Where("corporation_id = ? AND project_id = ?", scope.CorporationID, scope.ProjectID)

	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an ordering document
func (r *GormOrderingDocumentRepository) Save(ctx context.Context, doc *procurement.OrderingDocument) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Save the document without auto-saving associations
		if err := tx.Omit("Items").Save(doc).Error; err != nil {
			return err
		}

		// Handle items: delete removed items and save/update existing ones
		if doc.ID != uuid.Nil {
			currentItemIDs := make([]uuid.UUID, len(doc.Items))
			for i, item := range doc.Items {
				currentItemIDs[i] = item.ID
			}

			// Delete items not in the current list
			if len(currentItemIDs) > 0 {
				if err := tx.Where("document_id = ? AND id NOT IN ?", doc.ID, currentItemIDs).
					Delete(&procurement.OrderedLineItem{}).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Where("document_id = ?", doc.ID).
					Delete(&procurement.OrderedLineItem{}).Error; err != nil {
					return err
				}
			}

			// Save/update remaining items
			for i := range doc.Items {
				doc.Items[i].DocumentID = doc.ID
				if err := tx.Save(&doc.Items[i]).Error; err != nil {
					return err
				}
			}
		}

		// Save events to outbox within the same transaction
		if r.outboxSaver != nil {
			if events := doc.GetDomainEvents(); len(events) > 0 {
				if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
					return fmt.Errorf("failed to save events to outbox: %w", err)
				}
			}
		}

		return nil
	})
}

// existsByNumber checks if a document number exists for a kind within a scope
func (r *GormOrderingDocumentRepository) existsByNumber(ctx context.Context, scope shared.ProjectScope, kind procurement.DocumentKind, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&procurement.OrderingDocument{}).
		Where("corporation_id = ? AND project_id = ? AND kind = ? AND number = ?",
			scope.CorporationID, scope.ProjectID, kind, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateNumber generates a unique document number per kind within a scope
// Format: PO-YYYY-NNNNN for purchase orders, CO-YYYY-NNNNN for change orders
func (r *GormOrderingDocumentRepository) GenerateNumber(ctx context.Context, scope shared.ProjectScope, kind procurement.DocumentKind) (string, error) {
	year := time.Now().Year()
	short := "PO"
	if kind == procurement.DocumentKindChangeOrder {
		short = "CO"
	}
	prefix := fmt.Sprintf("%s-%d-", short, year)

	// Get the highest number for this year
	var lastDoc procurement.OrderingDocument
	err := r.db.WithContext(ctx).
		Model(&procurement.OrderingDocument{}).
		Where("corporation_id = ? AND project_id = ? AND kind = ? AND number LIKE ?",
			scope.CorporationID, scope.ProjectID, kind, prefix+"%").
		Order("number DESC").
		First(&lastDoc).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	nextNum := nextSequence(lastDoc.Number, err == nil)
	number := fmt.Sprintf("%s%05d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, scope, kind, number)
	if err != nil {
		return "", err
	}
	if exists {
		// If exists, try incrementing until we find a unique one
		for i := 0; i < 100; i++ {
			nextNum++
			number = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, scope, kind, number)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return number, nil
}

// applyFilter applies filter options to the query
func (r *GormOrderingDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, OrderingDocumentSortFields, "")
		if sortField != "" {
			sortOrder := ValidateSortOrder(filter.OrderDir)
			query = query.Order(sortField + " " + sortOrder)
		} else {
			query = query.Order("created_at DESC")
		}
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormOrderingDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("number ILIKE ? OR supplier_name ILIKE ?",
			searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "kind":
			query = query.Where("kind = ?", value)
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}

// nextSequence parses the trailing sequence from a document number and
// returns the number after it, or 1 when no prior number exists
func nextSequence(lastNumber string, found bool) int64 {
	var next int64 = 1
	if found && lastNumber != "" {
		parts := strings.Split(lastNumber, "-")
		if len(parts) == 3 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[2], "%d", &num)
			if parseErr == nil {
				next = num + 1
			}
		}
	}
	return next
}

// Ensure GormOrderingDocumentRepository implements OrderingDocumentRepository
var _ procurement.OrderingDocumentRepository = (*GormOrderingDocumentRepository)(nil)
