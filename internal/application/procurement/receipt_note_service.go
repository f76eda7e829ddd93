package procurement

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveStage identifies a step of the orchestrated receipt note save
type SaveStage string

const (
	StageEditing          SaveStage = "EDITING"
	StageSavingReceipt    SaveStage = "SAVING_RECEIPT"
	StageAwaitingDecision SaveStage = "AWAITING_SHORTFALL_DECISION"
	StageCreatingReturn   SaveStage = "CREATING_RETURN_NOTE"
	StageDone             SaveStage = "DONE"
	StageError            SaveStage = "ERROR"
)

// ShortfallDecision is the caller's answer when a save detects uncovered shortfalls
type ShortfallDecision string

const (
	// DecisionSaveAsOpen finishes the save and leaves the shortfall uncovered
	DecisionSaveAsOpen ShortfallDecision = "SAVE_AS_OPEN"
	// DecisionRaiseReturnNote raises a return note pre-populated from the shortfalls
	DecisionRaiseReturnNote ShortfallDecision = "RAISE_RETURN_NOTE"
)

// DecisionFunc resolves what to do with the detected shortfalls. It is invoked
// at most once per save, after the receipt note itself has been persisted.
type DecisionFunc func(shortfalls []procurement.ShortfallItem) ShortfallDecision

// StageFailure wraps a failure with the stage it occurred in, so callers can
// tell a failed receipt write from a failed return note write.
type StageFailure struct {
	Stage SaveStage
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error {
	return e.Err
}

// SaveOutcome reports every save attempt as a structured result. The receipt
// note and the return note succeed or fail independently: ReceiptSaved stays
// true even when the follow-up return note write fails, and the receipt is
// never rolled back on account of the return note.
type SaveOutcome struct {
	Stage           SaveStage
	ReceiptSaved    bool
	ReturnNoteSaved bool
	ReceiptNote     *ReceiptNoteResponse
	ReturnNote      *ReturnNoteResponse
	Shortfalls      []ShortfallItemResponse
	Decision        ShortfallDecision
	Err             error
}

// ReceiptNoteService handles receipt note business operations, including the
// orchestrated save with shortfall reconciliation
type ReceiptNoteService struct {
	docRepo        procurement.OrderingDocumentRepository
	receiptRepo    procurement.ReceiptNoteRepository
	returnRepo     procurement.ReturnNoteRepository
	ledger         *procurement.FulfillmentLedger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReceiptNoteService creates a new ReceiptNoteService
func NewReceiptNoteService(
	docRepo procurement.OrderingDocumentRepository,
	receiptRepo procurement.ReceiptNoteRepository,
	returnRepo procurement.ReturnNoteRepository,
) *ReceiptNoteService {
	return &ReceiptNoteService{
		docRepo:     docRepo,
		receiptRepo: receiptRepo,
		returnRepo:  returnRepo,
		ledger:      procurement.NewFulfillmentLedger(),
		logger:      zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReceiptNoteService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for reconciliation warnings
func (s *ReceiptNoteService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// GetByID retrieves a receipt note by ID
func (s *ReceiptNoteService) GetByID(ctx context.Context, scope shared.ProjectScope, noteID uuid.UUID) (*ReceiptNoteResponse, error) {
	note, err := s.findNote(ctx, scope, noteID)
	if err != nil {
		return nil, err
	}
	response := ToReceiptNoteResponse(note)
	return &response, nil
}

// List retrieves receipt notes for a scope with filtering and pagination
func (s *ReceiptNoteService) List(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (*shared.Paginated[ReceiptNoteResponse], error) {
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

	notes, err := s.receiptRepo.FindAllForScope(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.receiptRepo.CountForScope(ctx, scope, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ReceiptNoteResponse, len(notes))
	for idx := range notes {
		responses[idx] = ToReceiptNoteResponse(&notes[idx])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// Cancel cancels a receipt note, releasing its quantities back to the ledger
func (s *ReceiptNoteService) Cancel(ctx context.Context, scope shared.ProjectScope, noteID uuid.UUID) (*ReceiptNoteResponse, error) {
	note, err := s.findNote(ctx, scope, noteID)
	if err != nil {
		return nil, err
	}
	if err := note.Cancel(); err != nil {
		return nil, err
	}
	if err := s.receiptRepo.Save(ctx, note); err != nil {
		return nil, err
	}
	response := ToReceiptNoteResponse(note)
	return &response, nil
}

// PreviewShortfalls computes the shortfalls the given request would produce
// without persisting anything
func (s *ReceiptNoteService) PreviewShortfalls(ctx context.Context, req SaveReceiptNoteRequest) ([]ShortfallItemResponse, error) {
	note, doc, err := s.buildNote(ctx, req)
	if err != nil {
		return nil, err
	}
	shortfalls, err := s.outstandingShortfalls(ctx, note, doc)
	if err != nil {
		return nil, err
	}
	return ToShortfallItemResponses(shortfalls), nil
}

// SaveWithReconciliation runs the orchestrated save. The receipt note is
// persisted first; only then are shortfalls computed and, depending on the
// caller's decision, a return note raised. Every path returns a SaveOutcome;
// a partial failure is reported through the outcome's flags and Err, never by
// undoing the parts that succeeded.
func (s *ReceiptNoteService) SaveWithReconciliation(ctx context.Context, req SaveReceiptNoteRequest, decide DecisionFunc) SaveOutcome {
	outcome := SaveOutcome{Stage: StageEditing}

	note, doc, err := s.buildNote(ctx, req)
	if err != nil {
		outcome.Stage = StageError
		outcome.Err = &StageFailure{Stage: StageEditing, Err: err}
		return outcome
	}

	outcome.Stage = StageSavingReceipt
	if err := s.receiptRepo.Save(ctx, note); err != nil {
		outcome.Stage = StageError
		outcome.Err = &StageFailure{Stage: StageSavingReceipt, Err: err}
		return outcome
	}
	outcome.ReceiptSaved = true
	receiptResponse := ToReceiptNoteResponse(note)
	outcome.ReceiptNote = &receiptResponse
	s.publishEvents(ctx, note.GetDomainEvents())
	note.ClearDomainEvents()

	shortfalls, err := s.outstandingShortfalls(ctx, note, doc)
	if err != nil {
		// The receipt is saved; the reconciliation read failed after it
		outcome.Stage = StageError
		outcome.Err = &StageFailure{Stage: StageAwaitingDecision, Err: err}
		return outcome
	}
	outcome.Shortfalls = ToShortfallItemResponses(shortfalls)

	if len(shortfalls) == 0 {
		outcome.Stage = StageDone
		return outcome
	}

	outcome.Stage = StageAwaitingDecision
	decision := DecisionSaveAsOpen
	if decide != nil {
		decision = decide(shortfalls)
	}
	outcome.Decision = decision

	if decision != DecisionRaiseReturnNote {
		outcome.Stage = StageDone
		return outcome
	}

	outcome.Stage = StageCreatingReturn
	returnNote, err := s.raiseReturnNote(ctx, note, shortfalls)
	if err != nil {
		outcome.Stage = StageError
		outcome.Err = &StageFailure{Stage: StageCreatingReturn, Err: err}
		return outcome
	}
	outcome.ReturnNoteSaved = true
	returnResponse := ToReturnNoteResponse(returnNote)
	outcome.ReturnNote = &returnResponse

	outcome.Stage = StageDone
	return outcome
}

// buildNote materializes the request into a receipt note aggregate, either a
// new note or an update of an existing one, validated against the ordering
// document it references.
func (s *ReceiptNoteService) buildNote(ctx context.Context, req SaveReceiptNoteRequest) (*procurement.ReceiptNote, *procurement.OrderingDocument, error) {
	scope := shared.NewProjectScope(req.CorporationID, req.ProjectID)
	ref := procurement.NewDocumentRef(req.DocumentID, req.DocumentKind)

	doc, err := s.docRepo.FindByRef(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if doc.ProjectScope != scope {
		return nil, nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "ordering document not found in this project")
	}

	var note *procurement.ReceiptNote
	if req.NoteID != nil {
		note, err = s.findNote(ctx, scope, *req.NoteID)
		if err != nil {
			return nil, nil, err
		}
		if !note.Ref().Equals(ref) {
			return nil, nil, shared.NewDomainError("DOCUMENT_MISMATCH", "receipt note references a different ordering document")
		}
		if err := s.replaceItems(note, doc, req.Items); err != nil {
			return nil, nil, err
		}
	} else {
		number, err := s.receiptRepo.GenerateNumber(ctx, scope)
		if err != nil {
			return nil, nil, err
		}
		note, err = procurement.NewReceiptNote(scope, number, doc)
		if err != nil {
			return nil, nil, err
		}
		for idx := range req.Items {
			item := &req.Items[idx]
			item.Normalize()
			ordered := doc.FindItemByIdentity(procurement.ItemIdentity{ItemID: item.ItemID, BaseItemID: item.BaseItemID})
			if ordered == nil {
				return nil, nil, shared.NewDomainError("ITEM_NOT_ON_DOCUMENT", fmt.Sprintf("item %q is not on the ordering document", item.ItemID))
			}
			if _, err := note.AddItem(ordered, item.ReceivedQuantity); err != nil {
				return nil, nil, err
			}
		}
	}
	return note, doc, nil
}

// replaceItems reconciles an existing note's items with the requested ones:
// quantities of matching items are updated, absent items are deactivated, and
// new items are appended.
func (s *ReceiptNoteService) replaceItems(note *procurement.ReceiptNote, doc *procurement.OrderingDocument, items []ReceiptItemRequest) error {
	requested := make(map[string]*ReceiptItemRequest, len(items))
	for idx := range items {
		item := &items[idx]
		item.Normalize()
		identity := procurement.ItemIdentity{ItemID: item.ItemID, BaseItemID: item.BaseItemID}
		key, ok := identity.Key()
		if !ok {
			return shared.NewDomainError("ITEM_IDENTITY_MISSING", "receipt item carries no usable identifier")
		}
		requested[key] = item
	}

	existingIDs := make([]uuid.UUID, len(note.Items))
	for idx := range note.Items {
		existingIDs[idx] = note.Items[idx].ID
	}
	for _, itemID := range existingIDs {
		current := note.GetItem(itemID)
		if current == nil || !current.IsActive {
			continue
		}
		key, ok := current.Identity().Key()
		if !ok {
			continue
		}
		if req, found := requested[key]; found {
			if err := note.UpdateItemQuantity(itemID, req.ReceivedQuantity); err != nil {
				return err
			}
			delete(requested, key)
		} else {
			if err := note.DeactivateItem(itemID); err != nil {
				return err
			}
		}
	}

	for _, req := range requested {
		ordered := doc.FindItemByIdentity(procurement.ItemIdentity{ItemID: req.ItemID, BaseItemID: req.BaseItemID})
		if ordered == nil {
			return shared.NewDomainError("ITEM_NOT_ON_DOCUMENT", fmt.Sprintf("item %q is not on the ordering document", req.ItemID))
		}
		if _, err := note.AddItem(ordered, req.ReceivedQuantity); err != nil {
			return err
		}
	}
	return nil
}

// outstandingShortfalls computes the shortfalls of the saved note, net of
// quantities already covered by active return notes of the same document. The
// sibling receipt notes and the return items are independent reads and are
// fetched concurrently.
func (s *ReceiptNoteService) outstandingShortfalls(ctx context.Context, note *procurement.ReceiptNote, doc *procurement.OrderingDocument) ([]procurement.ShortfallItem, error) {
	ref := doc.Ref()

	var (
		wg          sync.WaitGroup
		otherNotes  []procurement.ReceiptNote
		returnItems []procurement.ReturnNoteItem
		notesErr    error
		returnsErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		otherNotes, notesErr = s.receiptRepo.ListActiveForDocument(ctx, ref)
	}()
	go func() {
		defer wg.Done()
		returnItems, returnsErr = s.returnRepo.ListActiveItemsForDocument(ctx, ref)
	}()
	wg.Wait()
	if notesErr != nil {
		return nil, notesErr
	}
	if returnsErr != nil {
		return nil, returnsErr
	}

	shortfalls, warnings := s.ledger.DetectShortfalls(note, doc, otherNotes)
	for _, w := range warnings {
		s.logger.Warn("reconciliation warning",
			zap.String("note_id", w.NoteID.String()),
			zap.String("item_id", w.ItemID),
			zap.String("reason", w.Reason),
		)
	}
	return procurement.ReduceByReturns(shortfalls, returnItems), nil
}

// raiseReturnNote creates and persists a return note pre-populated from the
// detected shortfalls
func (s *ReceiptNoteService) raiseReturnNote(ctx context.Context, note *procurement.ReceiptNote, shortfalls []procurement.ShortfallItem) (*procurement.ReturnNote, error) {
	number, err := s.returnRepo.GenerateNumber(ctx, note.ProjectScope)
	if err != nil {
		return nil, err
	}
	returnNote, err := procurement.NewReturnNoteFromShortfalls(note.ProjectScope, number, note.Ref(), shortfalls)
	if err != nil {
		return nil, err
	}
	if err := s.returnRepo.Save(ctx, returnNote); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, returnNote.GetDomainEvents())
	returnNote.ClearDomainEvents()
	return returnNote, nil
}

func (s *ReceiptNoteService) findNote(ctx context.Context, scope shared.ProjectScope, noteID uuid.UUID) (*procurement.ReceiptNote, error) {
	note, err := s.receiptRepo.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.ProjectScope != scope {
		return nil, shared.NewDomainError("RECEIPT_NOTE_NOT_FOUND", "receipt note not found in this project")
	}
	return note, nil
}

func (s *ReceiptNoteService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish failures are not propagated; persistence already succeeded
	if err := s.eventPublisher.Publish(ctx, events); err != nil {
		s.logger.Error("failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}
