package procurement

import (
	"context"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/erp/procurement/internal/infrastructure/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderingDocumentService handles ordering document business operations
type OrderingDocumentService struct {
	docRepo        procurement.OrderingDocumentRepository
	docCache       cache.OrderingDocumentCache
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderingDocumentService creates a new OrderingDocumentService
func NewOrderingDocumentService(docRepo procurement.OrderingDocumentRepository) *OrderingDocumentService {
	return &OrderingDocumentService{
		docRepo: docRepo,
		logger:  zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderingDocumentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for event publish failures
func (s *OrderingDocumentService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// SetCache sets the document cache
func (s *OrderingDocumentService) SetCache(c cache.OrderingDocumentCache) {
	s.docCache = c
}

// Create creates a new ordering document with its line items and charge configuration
func (s *OrderingDocumentService) Create(ctx context.Context, req CreateOrderingDocumentRequest) (*OrderingDocumentResponse, error) {
	scope := shared.NewProjectScope(req.CorporationID, req.ProjectID)

	number, err := s.docRepo.GenerateNumber(ctx, scope, req.Kind)
	if err != nil {
		return nil, err
	}

	doc, err := procurement.NewOrderingDocument(scope, req.Kind, number, req.SupplierID, req.SupplierName)
	if err != nil {
		return nil, err
	}

	for idx := range req.Items {
		item := &req.Items[idx]
		item.Normalize()
		unitPrice := valueobject.NewDefaultMoney(item.UnitPrice)
		if _, err := doc.AddItem(item.ItemID, item.BaseItemID, item.ItemName, item.Quantity, unitPrice); err != nil {
			return nil, err
		}
	}

	if err := doc.SetChargeTaxConfig(req.Charges.ToDomain()); err != nil {
		return nil, err
	}

	if req.Remark != "" {
		doc.SetRemark(req.Remark)
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, doc)

	if s.docCache != nil {
		s.docCache.Set(ctx, doc)
	}

	response := ToOrderingDocumentResponse(doc)
	return &response, nil
}

// GetByID retrieves an ordering document by ID
func (s *OrderingDocumentService) GetByID(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID) (*OrderingDocumentResponse, error) {
	doc, err := s.findDocument(ctx, scope, docID)
	if err != nil {
		return nil, err
	}
	response := ToOrderingDocumentResponse(doc)
	return &response, nil
}

// List retrieves ordering documents for a scope with filtering and pagination
func (s *OrderingDocumentService) List(ctx context.Context, scope shared.ProjectScope, filter shared.Filter) (*shared.Paginated[OrderingDocumentResponse], error) {
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

	docs, err := s.docRepo.FindAllForScope(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.docRepo.CountForScope(ctx, scope, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]OrderingDocumentResponse, len(docs))
	for idx := range docs {
		responses[idx] = ToOrderingDocumentResponse(&docs[idx])
	}
	result := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &result, nil
}

// UpdateCharges replaces the charge/tax configuration of a draft document and
// recomputes its financial breakdown and per-line allocated totals
func (s *OrderingDocumentService) UpdateCharges(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID, req UpdateChargesRequest) (*OrderingDocumentResponse, error) {
	doc, err := s.findDocument(ctx, scope, docID)
	if err != nil {
		return nil, err
	}

	if err := doc.SetChargeTaxConfig(req.Charges.ToDomain()); err != nil {
		return nil, err
	}

	if err := s.saveAndRefresh(ctx, doc); err != nil {
		return nil, err
	}
	response := ToOrderingDocumentResponse(doc)
	return &response, nil
}

// UpdateItemQuantity changes the ordered quantity of one line item
func (s *OrderingDocumentService) UpdateItemQuantity(ctx context.Context, scope shared.ProjectScope, docID, itemID uuid.UUID, req LineItemRequest) (*OrderingDocumentResponse, error) {
	doc, err := s.findDocument(ctx, scope, docID)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := doc.UpdateItemQuantity(itemID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.saveAndRefresh(ctx, doc); err != nil {
		return nil, err
	}
	response := ToOrderingDocumentResponse(doc)
	return &response, nil
}

// Approve approves a draft document, freezing its items and configuration
func (s *OrderingDocumentService) Approve(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID) (*OrderingDocumentResponse, error) {
	doc, err := s.findDocument(ctx, scope, docID)
	if err != nil {
		return nil, err
	}

	if err := doc.Approve(); err != nil {
		return nil, err
	}

	if err := s.saveAndRefresh(ctx, doc); err != nil {
		return nil, err
	}
	response := ToOrderingDocumentResponse(doc)
	return &response, nil
}

// Cancel cancels a document
func (s *OrderingDocumentService) Cancel(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID, reason string) (*OrderingDocumentResponse, error) {
	doc, err := s.findDocument(ctx, scope, docID)
	if err != nil {
		return nil, err
	}

	if err := doc.Cancel(reason); err != nil {
		return nil, err
	}

	if err := s.saveAndRefresh(ctx, doc); err != nil {
		return nil, err
	}
	response := ToOrderingDocumentResponse(doc)
	return &response, nil
}

// findDocument loads a document through the cache, enforcing scope ownership
func (s *OrderingDocumentService) findDocument(ctx context.Context, scope shared.ProjectScope, docID uuid.UUID) (*procurement.OrderingDocument, error) {
	if s.docCache != nil {
		if doc, ok := s.docCache.Get(ctx, scope, docID); ok {
			return doc, nil
		}
	}

	doc, err := s.docRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.ProjectScope != scope {
		return nil, shared.NewDomainError("DOCUMENT_NOT_FOUND", "ordering document not found in this project")
	}

	if s.docCache != nil {
		s.docCache.Set(ctx, doc)
	}
	return doc, nil
}

func (s *OrderingDocumentService) saveAndRefresh(ctx context.Context, doc *procurement.OrderingDocument) error {
	if err := s.docRepo.Save(ctx, doc); err != nil {
		if s.docCache != nil {
			s.docCache.Invalidate(ctx, doc.ProjectScope, doc.ID)
		}
		return err
	}
	s.publishEvents(ctx, doc)
	if s.docCache != nil {
		s.docCache.Set(ctx, doc)
	}
	return nil
}

func (s *OrderingDocumentService) publishEvents(ctx context.Context, doc *procurement.OrderingDocument) {
	if s.eventPublisher == nil {
		return
	}
	events := doc.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish failures are not propagated; persistence already succeeded
	if err := s.eventPublisher.Publish(ctx, events); err != nil {
		s.logger.Error("failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
	doc.ClearDomainEvents()
}
