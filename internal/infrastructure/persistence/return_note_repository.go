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
	"gorm.io/gorm/clause"
)

// GormReturnNoteRepository implements ReturnNoteRepository using GORM.
//
// Item writes honor the bulk upsert contract: Save issues exactly one bulk
// write for the note's items, inserting rows that arrive without an id and
// updating rows that carry one. Emptying a note's items goes through
// DeleteItemsByNote instead.
type GormReturnNoteRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormReturnNoteRepository creates a new GormReturnNoteRepository
func NewGormReturnNoteRepository(db *gorm.DB) *GormReturnNoteRepository {
	return &GormReturnNoteRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormReturnNoteRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a return note by its ID, items included
func (r *GormReturnNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.ReturnNote, error) {
	var note procurement.ReturnNote
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

// ListActiveForDocument lists all active return notes referencing an
// ordering document, items included
func (r *GormReturnNoteRepository) ListActiveForDocument(ctx context.Context, ref procurement.DocumentRef) ([]procurement.ReturnNote, error) {
	var notes []procurement.ReturnNote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("document_id = ? AND document_kind = ? AND is_active = ?", ref.ID, ref.Kind, true).
		Order("created_at ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// ListActiveItemsForDocument lists the active return note items across all
// active return notes for an ordering document
func (r *GormReturnNoteRepository) ListActiveItemsForDocument(ctx context.Context, ref procurement.DocumentRef) ([]procurement.ReturnNoteItem, error) {
	var items []procurement.ReturnNoteItem
	if err := r.db.WithContext(ctx).
		Table("return_note_items").
		Joins("JOIN return_notes ON return_notes.id = return_note_items.note_id").
		Where("return_notes.document_id = ? AND return_notes.document_kind = ? AND return_notes.is_active = ?",
			ref.ID, ref.Kind, true).
		Where("return_note_items.is_active = ?", true).
		Select("return_note_items.*").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindAllForScope finds all return notes for a corporation/project with filtering
func (r *GormReturnNoteRepository) FindAllForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) ([]procurement.ReturnNote, error) {
	var notes []procurement.ReturnNote

	query := r.db.WithContext(ctx).Model(&procurement.ReturnNote{}).
		Where("corporation_id = ? AND project_id = ?", scope.CorporationID, scope.ProjectID)

	query = r.applyFilter(query, filter)

	if err := query.Preload("Items").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// CountForScope counts return notes for a corporation/project
func (r *GormReturnNoteRepository) CountForScope(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&procurement.ReturnNote{}).
		Where("corporation_id = ? AND project_id = ?", scope.CorporationID, scope.ProjectID)

	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a return note, bulk-upserting its items in a
// single write keyed on item id presence
func (r *GormReturnNoteRepository) Save(ctx context.Context, note *procurement.ReturnNote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(note).Error; err != nil {
			return err
		}

		// Save events to outbox within the same transaction
		if r.outboxSaver != nil {
			if events := note.GetDomainEvents(); len(events) > 0 {
				if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
					return fmt.Errorf("failed to save events to outbox: %w", err)
				}
			}
		}

		if len(note.Items) == 0 {
			return nil
		}

		// Assign ids to new items up front so a single upsert covers both
		// inserts (fresh ids conflict with nothing) and updates (stored ids
		// hit the primary key and update in place)
		for i := range note.Items {
			note.Items[i].NoteID = note.ID
			if note.Items[i].ID == nil {
				id := uuid.New()
				note.Items[i].ID = &id
			}
		}

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"note_id", "item_id", "base_item_id", "item_name",
				"return_quantity", "is_active", "updated_at",
			}),
		}).Create(&note.Items).Error
	})
}

// DeleteItemsByNote removes all items of a return note
func (r *GormReturnNoteRepository) DeleteItemsByNote(ctx context.Context, noteID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Delete(&procurement.ReturnNoteItem{}).Error
}

// existsByNumber checks if a return note number exists within a scope
func (r *GormReturnNoteRepository) existsByNumber(ctx context.Context, scope shared.ProjectScope, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&procurement.ReturnNote{}).
		Where("corporation_id = ? AND project_id = ? AND number = ?",
			scope.CorporationID, scope.ProjectID, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateNumber generates a unique return note number within a scope
// Format: RTN-YYYY-NNNNN (e.g., RTN-2026-00001)
func (r *GormReturnNoteRepository) GenerateNumber(ctx context.Context, scope shared.ProjectScope) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("RTN-%d-", year)

	var lastNote procurement.ReturnNote
	err := r.db.WithContext(ctx).
		Model(&procurement.ReturnNote{}).
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
func (r *GormReturnNoteRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, ReturnNoteSortFields, "")
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
func (r *GormReturnNoteRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
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

// Ensure GormReturnNoteRepository implements ReturnNoteRepository
var _ procurement.ReturnNoteRepository = (*GormReturnNoteRepository)(nil)
