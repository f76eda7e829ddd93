package procurement

import (
	"context"
	"fmt"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnNoteService handles return note business operations
type ReturnNoteService struct {
	docRepo        procurement.OrderingDocumentRepository
	receiptRepo    procurement.ReceiptNoteRepository
	returnRepo     procurement.ReturnNoteRepository
	ledger         *procurement.FulfillmentLedger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReturnNoteService creates a new ReturnNoteService
func NewReturnNoteService(
	docRepo procurement.OrderingDocumentRepository,
	receiptRepo procurement.ReceiptNoteRepository,
	returnRepo procurement.ReturnNoteRepository,
) *ReturnNoteService {
	return &ReturnNoteService{
		docRepo:     docRepo,
		receiptRepo: receiptRepo,
		returnRepo:  returnRepo,
		ledger:      procurement.NewFulfillmentLedger(),
		logger:      zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReturnNoteService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for reconciliation warnings
func (s *ReturnNoteService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// GetByID retrieves a return note by ID
func (s *ReturnNoteService) GetByID(ctx context.Context, scope shared.ProjectScope, noteID uuid.UUID) (*ReturnNoteResponse, error) {
	note, err := s.findNote(ctx, scope, noteID)
	if err != nil {
		return nil, err
	}
	response := ToReturnNoteResponse(note)
	return &response, nil
}

// List retrieves return notes for a scope with filtering and pagination
func (s *ReturnNoteService) List(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (*shared.Paginated[ReturnNoteResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	notes, err := s.returnRepo.FindAllForScope(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.returnRepo.CountForScope(ctx, scope, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ReturnNoteResponse, len(notes))
	for idx := range notes {
		responses[idx] = ToReturnNoteResponse(&notes[idx])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// UpdateItems replaces a return note's item list.
//
// Entries matching a stored item by identity keep that item's id and are
// updated in place; entries without a match are inserted. The whole list is
// written as one bulk upsert. An empty list clears the note's items with an
// explicit delete, never an empty upsert.
func (s *ReturnNoteService) UpdateItems(ctx context.Context, scope shared.ProjectScope, noteID uuid.UUID, req UpdateReturnNoteRequest) (*ReturnNoteResponse, error) {
	note, err := s.findNote(ctx, scope, noteID)
	if err != nil {
		return nil, err
	}
	if !note.IsOpen() {
		return nil, shared.NewDomainError("RETURN_NOTE_NOT_OPEN", "only open return notes can be modified")
	}

	if len(req.Items) == 0 {
		if err := s.returnRepo.DeleteItemsByNote(ctx, note.ID); err != nil {
			return nil, err
		}
		if err := note.SetItems(nil, note.Items); err != nil {
			return nil, err
		}
		response := ToReturnNoteResponse(note)
		return &response, nil
	}

	entries := make([]procurement.ReturnNoteItem, len(req.Items))
	for idx := range req.Items {
		item := &req.Items[idx]
		item.Normalize()
		entries[idx] = procurement.ReturnNoteItem{
			ItemID:         item.ItemID,
			BaseItemID:     item.BaseItemID,
			ItemName:       item.ItemName,
			ReturnQuantity: item.ReturnQuantity,
		}
	}

	if err := s.validateAgainstShortfall(ctx, note, entries); err != nil {
		return nil, err
	}

	if err := note.SetItems(entries, note.Items); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, note); err != nil {
		return nil, err
	}

	response := ToReturnNoteResponse(note)
	return &response, nil
}

// Close closes a return note
func (s *ReturnNoteService) Close(ctx context.Context, scope shared.ProjectScope, noteID uuid.UUID) (*ReturnNoteResponse, error) {
	note, err := s.findNote(ctx, scope, noteID)
	if err != nil {
		return nil, err
	}
	if err := note.Close(); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, note); err != nil {
		return nil, err
	}
	response := ToReturnNoteResponse(note)
	return &response, nil
}

// Cancel cancels a return note
func (s *ReturnNoteService) Cancel(ctx context.Context, scope shared.ProjectScope, noteID uuid.UUID) (*ReturnNoteResponse, error) {
	note, err := s.findNote(ctx, scope, noteID)
	if err != nil {
		return nil, err
	}
	if err := note.Cancel(); err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, note); err != nil {
		return nil, err
	}
	response := ToReturnNoteResponse(note)
	return &response, nil
}

// validateAgainstShortfall rejects entries that would return more of an item
// than the document's uncovered leftover. The allowance for each item is its
// leftover across all active receipt notes minus what other active return
// notes already cover.
func (s *ReturnNoteService) validateAgainstShortfall(ctx context.Context, note *procurement.ReturnNote, entries []procurement.ReturnNoteItem) error {
	ref := note.Ref()

	doc, err := s.docRepo.FindByRef(ctx, ref)
	if err != nil {
		return err
	}
	receiptNotes, err := s.receiptRepo.ListActiveForDocument(ctx, ref)
	if err != nil {
		return err
	}
	returnItems, err := s.returnRepo.ListActiveItemsForDocument(ctx, ref)
	if err != nil {
		return err
	}

	// The allowance is per item, so entries resolving to the same identity
	// are validated as one combined quantity. Otherwise a caller could slip
	// past the check by splitting one over-return across duplicate entries.
	requested := make(map[string]decimal.Decimal, len(entries))
	order := make([]string, 0, len(entries))
	byKey := make(map[string]*procurement.ReturnNoteItem, len(entries))
	for idx := range entries {
		entry := &entries[idx]
		key, ok := entry.Identity().Key()
		if !ok {
			return shared.NewDomainError("INVALID_ITEM", "return note item requires an item identifier")
		}
		if _, seen := requested[key]; !seen {
			order = append(order, key)
			byKey[key] = entry
		}
		requested[key] = requested[key].Add(entry.ReturnQuantity)
	}

	for _, key := range order {
		entry := byKey[key]
		ordered := doc.FindItemByIdentity(entry.Identity())
		if ordered == nil {
			return shared.NewDomainError("ITEM_NOT_ON_DOCUMENT", fmt.Sprintf("item %q is not on the ordering document", entry.ItemID))
		}

		leftover, warnings := s.ledger.LeftoverQuantity(ordered, ref, receiptNotes, uuid.Nil)
		for _, w := range warnings {
			s.logger.Warn("reconciliation warning",
				zap.String("note_id", w.NoteID.String()),
				zap.String("item_id", w.ItemID),
				zap.String("reason", w.Reason),
			)
		}

		coveredElsewhere := decimal.Zero
		for jdx := range returnItems {
			other := &returnItems[jdx]
			if !other.IsActive || other.NoteID == note.ID {
				continue
			}
			if other.Identity().Matches(entry.Identity()) {
				coveredElsewhere = coveredElsewhere.Add(other.ReturnQuantity)
			}
		}

		allowance := leftover.Sub(coveredElsewhere)
		if requested[key].GreaterThan(allowance) {
			return shared.NewDomainError("RETURN_EXCEEDS_SHORTFALL", fmt.Sprintf(
				"item %q: return quantity %s exceeds the uncovered shortfall %s",
				entry.ItemID, requested[key].String(), allowance.String(),
			))
		}
	}
	return nil
}

func (s *ReturnNoteService) findNote(ctx context.Context, scope shared.ProjectScope, noteID uuid.UUID) (*procurement.ReturnNote, error) {
	note, err := s.returnRepo.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.ProjectScope != scope {
		return nil, shared.NewDomainError("RETURN_NOTE_NOT_FOUND", "return note not found in this project")
	}
	return note, nil
}
