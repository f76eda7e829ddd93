package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReceiptNoteRepository implements ReceiptNoteRepository using GORM
type GormReceiptNoteRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormReceiptNoteRepository creates a new GormReceiptNoteRepository
func NewGormReceiptNoteRepository(db *gorm.DB) *GormReceiptNoteRepository {
	return &GormReceiptNoteRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormReceiptNoteRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a receipt note by its ID
func (r *GormReceiptNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.ReceiptNote, error) {
	var note procurement.ReceiptNote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&note, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &note, nil
}

// ListActiveForDocument lists all active receipt notes referencing an
// ordering document, items included
func (r *GormReceiptNoteRepository) ListActiveForDocument(ctx context.Context, ref procurement.DocumentRef) ([]procurement.ReceiptNote, error) {
	var notes []procurement.ReceiptNote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("document_id = ? AND document_kind = ? AND is_active = ?", ref.ID, ref.Kind, true).
		Order("created_at ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// FindAllForScope finds all receipt notes for a corporation/project with filtering
func (r *GormReceiptNoteRepository) FindAllForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) ([]procurement.ReceiptNote, error) {
	var notes []procurement.ReceiptNote

	query := r.db.WithContext(ctx).Model(&procurement.ReceiptNote{}).
		Where("corporation_id = ? AND project_id = ?", scope.CorporationID, scope.ProjectID)

	query = r.applyFilter(query, filter)

	if err := query.Preload("Items").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// CountForScope counts receipt notes for a corporation/project
func (r *GormReceiptNoteRepository) CountForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&procurement.ReceiptNote{}).
		Where("corporation_id = ? AND project_id = ?", scope.CorporationID, scope.ProjectID)

	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a receipt note together with its items
func (r *GormReceiptNoteRepository) Save(ctx context.Context, note *procurement.ReceiptNote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(note).Error; err != nil {
			return err
		}

		if note.ID != uuid.Nil {
			currentItemIDs := make([]uuid.UUID, len(note.Items))
			for i, item := range note.Items {
				currentItemIDs[i] = item.ID
			}

			// Delete items not in the current list
			if len(currentItemIDs) > 0 {
				if err := tx.Where("note_id = ? AND id NOT IN ?", note.ID, currentItemIDs).
					Delete(&procurement.ReceiptNoteItem{}).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Where("note_id = ?", note.ID).
					Delete(&procurement.ReceiptNoteItem{}).Error; err != nil {
					return err
				}
			}

			// Save/update remaining items
			for i := range note.Items {
				note.Items[i].NoteID = note.ID
				if err := tx.Save(&note.Items[i]).Error; err != nil {
					return err
				}
			}
		}

		// Save events to outbox within the same transaction
		if r.outboxSaver != nil {
			if events := note.GetDomainEvents(); len(events) > 0 {
				if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
					return fmt.Errorf("failed to save events to outbox: %w", err)
				}
			}
		}

		return nil
	})
}

// existsByNumber checks if a receipt note number exists within a scope
func (r *GormReceiptNoteRepository) existsByNumber(ctx context.Context, scope shared.ProjectScope, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&procurement.ReceiptNote{}).
		Where("corporation_id = ? AND project_id = ? AND number = ?",
			scope.CorporationID, scope.ProjectID, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateNumber generates a unique receipt note number within a scope
// Format: GRN-YYYY-NNNNN (e.g., GRN-2026-00001)
func (r *GormReceiptNoteRepository) GenerateNumber(ctx context.Context, scope shared.ProjectScope) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("GRN-%d-", year)

	var lastNote procurement.ReceiptNote
	err := r.db.WithContext(ctx).
		Model(&procurement.ReceiptNote{}).
		Where("corporation_id = ? AND project_id = ? AND number LIKE ?",
			scope.CorporationID, scope.ProjectID, prefix+"%").
		Order("number DESC").
		First(&lastNote).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	nextNum := nextSequence(lastNote.Number, err == nil)
	number := fmt.Sprintf("%s%05d", prefix, nextNum)

	exists, err := r.existsByNumber(ctx, scope, number)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			number = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.existsByNumber(ctx, scope, number)
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
func (r *GormReceiptNoteRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, ReceiptNoteSortFields, "")
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
func (r *GormReceiptNoteRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("number ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "document_id":
			query = query.Where("document_id = ?", value)
		case "document_kind":
			query = query.Where("document_kind = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
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

// Ensure GormReceiptNoteRepository implements ReceiptNoteRepository
var _ procurement.ReceiptNoteRepository = (*GormReceiptNoteRepository)(nil)
