package handler

import (
	"errors"
	"time"

	procapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceiptNoteHandler handles receipt note API endpoints
type ReceiptNoteHandler struct {
	BaseHandler
	receiptService *procapp.ReceiptNoteService
}

// NewReceiptNoteHandler creates a new ReceiptNoteHandler
func NewReceiptNoteHandler(receiptService *procapp.ReceiptNoteService) *ReceiptNoteHandler {
	return &ReceiptNoteHandler{
		receiptService: receiptService,
	}
}

// ReceiptItemInput represents one received line in a save request
// @Description Received line item
type ReceiptItemInput struct {
	ItemID           string  `json:"item_id" example:"ITM-1001"`
	BaseItemID       string  `json:"base_item_id" example:"BASE-2001"`
	ReceivedQuantity float64 `json:"received_quantity" example:"80"`
	Qty              float64 `json:"qty" example:"80"` // Alternate spelling accepted from legacy clients
}

// SaveReceiptNoteRequest represents the orchestrated receipt note save
// @Description Request body for saving a receipt note against an ordering document
type SaveReceiptNoteRequest struct {
	NoteID       string             `json:"note_id" binding:"omitempty,uuid" example:"650e8400-e29b-41d4-a716-446655440001"`
	DocumentID   string             `json:"document_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	DocumentKind string             `json:"document_kind" binding:"required,oneof=PURCHASE_ORDER CHANGE_ORDER" example:"PURCHASE_ORDER"`
	Items        []ReceiptItemInput `json:"items" binding:"required,min=1,dive"`
	Remark       string             `json:"remark" example:"partial delivery, truck 2 of 3"`
	Decision     string             `json:"decision" binding:"omitempty,oneof=SAVE_AS_OPEN RAISE_RETURN_NOTE" example:"RAISE_RETURN_NOTE"`
}

// ListReceiptNotesRequest represents list query parameters
// @Description Query parameters for listing receipt notes
type ListReceiptNotesRequest struct {
	Page       int       `form:"page" binding:"omitempty,min=1"`
	PageSize   int       `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string    `form:"order_by"`
	OrderDir   string    `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search     string    `form:"search"`
	DocumentID string    `form:"document_id" binding:"omitempty,uuid"`
	Status     string    `form:"status"`
	StartDate  time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate    time.Time `form:"end_date" time_format:"2006-01-02"`
}

func (r *ListReceiptNotesRequest) toFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if r.Page > 0 {
		filter.Page = r.Page
	}
	if r.PageSize > 0 {
		filter.PageSize = r.PageSize
	}
	if r.OrderBy != "" {
		filter.OrderBy = r.OrderBy
	}
	if r.OrderDir != "" {
		filter.OrderDir = r.OrderDir
	}
	filter.Search = r.Search
	if r.DocumentID != "" {
		filter.Filters["document_id"] = r.DocumentID
	}
	if r.Status != "" {
		filter.Filters["status"] = r.Status
	}
	if !r.StartDate.IsZero() {
		filter.Filters["start_date"] = r.StartDate
	}
	if !r.EndDate.IsZero() {
		filter.Filters["end_date"] = r.EndDate
	}
	return filter
}

// SaveOutcomeResponse represents the structured result of a receipt note save
// @Description Structured outcome of the receipt note save orchestration
type SaveOutcomeResponse struct {
	Stage           string                            `json:"stage" example:"DONE"`
	ReceiptSaved    bool                              `json:"receipt_saved" example:"true"`
	ReturnNoteSaved bool                              `json:"return_note_saved" example:"false"`
	ReceiptNote     *procapp.ReceiptNoteResponse      `json:"receipt_note,omitempty"`
	ReturnNote      *procapp.ReturnNoteResponse       `json:"return_note,omitempty"`
	Shortfalls      []procapp.ShortfallItemResponse   `json:"shortfalls,omitempty"`
	Decision        string                            `json:"decision,omitempty" example:"SAVE_AS_OPEN"`
	Error           string                            `json:"error,omitempty"`
}

func toSaveOutcomeResponse(outcome procapp.SaveOutcome) SaveOutcomeResponse {
	resp := SaveOutcomeResponse{
		Stage:           string(outcome.Stage),
		ReceiptSaved:    outcome.ReceiptSaved,
		ReturnNoteSaved: outcome.ReturnNoteSaved,
		ReceiptNote:     outcome.ReceiptNote,
		ReturnNote:      outcome.ReturnNote,
		Shortfalls:      outcome.Shortfalls,
		Decision:        string(outcome.Decision),
	}
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
	}
	return resp
}

func (r SaveReceiptNoteRequest) toAppRequest(scope shared.ProjectScope) (procapp.SaveReceiptNoteRequest, error) {
	docID, err := uuid.Parse(r.DocumentID)
	if err != nil {
		return procapp.SaveReceiptNoteRequest{}, err
	}

	appReq := procapp.SaveReceiptNoteRequest{
		CorporationID: scope.CorporationID,
		ProjectID:     scope.ProjectID,
		DocumentID:    docID,
		DocumentKind:  procurement.DocumentKind(r.DocumentKind),
		Items:         make([]procapp.ReceiptItemRequest, len(r.Items)),
		Remark:        r.Remark,
	}
	if r.NoteID != "" {
		noteID, err := uuid.Parse(r.NoteID)
		if err != nil {
			return procapp.SaveReceiptNoteRequest{}, err
		}
		appReq.NoteID = &noteID
	}
	for idx, item := range r.Items {
		appReq.Items[idx] = procapp.ReceiptItemRequest{
			ItemID:           item.ItemID,
			BaseItemID:       item.BaseItemID,
			ReceivedQuantity: toDecimal(item.ReceivedQuantity),
			Qty:              toDecimal(item.Qty),
		}
	}
	return appReq, nil
}

// decisionFunc maps the request's decision field onto the save orchestration.
// An empty decision falls back to the service default (save as open).
func (r SaveReceiptNoteRequest) decisionFunc() procapp.DecisionFunc {
	if r.Decision == "" {
		return nil
	}
	decision := procapp.ShortfallDecision(r.Decision)
	return func([]procurement.ShortfallItem) procapp.ShortfallDecision {
		return decision
	}
}

// GetByID godoc
// @ID           getReceiptNote
// @Summary      Get a receipt note
// @Description  Get a receipt note by ID, including its received lines
// @Tags         receipt-notes
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Receipt note ID"
// @Success      200 {object} APIResponse[procapp.ReceiptNoteResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /procurement/receipt-notes/{id} [get]
func (h *ReceiptNoteHandler) GetByID(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt note ID format")
		return
	}

	note, err := h.receiptService.GetByID(c.Request.Context(), scope, noteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, note)
}

// List godoc
// @ID           listReceiptNotes
// @Summary      List receipt notes
// @Description  List receipt notes for the project scope with filtering and pagination
// @Tags         receipt-notes
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        document_id query string false "Filter by ordering document"
// @Param        status query string false "Filter by status"
// @Success      200 {object} APIResponse[[]procapp.ReceiptNoteResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /procurement/receipt-notes [get]
func (h *ReceiptNoteHandler) List(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	var req ListReceiptNotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.receiptService.List(c.Request.Context(), scope, req.toFilter())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// PreviewShortfalls godoc
// @ID           previewReceiptNoteShortfalls
// @Summary      Preview shortfalls for a pending save
// @Description  Compute the shortfalls a receipt note save would detect, without persisting anything
// @Tags         receipt-notes
// @Accept       json
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        request body SaveReceiptNoteRequest true "Receipt note contents"
// @Success      200 {object} APIResponse[[]procapp.ShortfallItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/receipt-notes/preview-shortfalls [post]
func (h *ReceiptNoteHandler) PreviewShortfalls(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	var req SaveReceiptNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq, err := req.toAppRequest(scope)
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return
	}

	shortfalls, err := h.receiptService.PreviewShortfalls(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, shortfalls)
}

// Save godoc
// @ID           saveReceiptNote
// @Summary      Save a receipt note with shortfall reconciliation
// @Description  Save a receipt note and reconcile shortfalls according to the decision field. The receipt note and the return note succeed or fail independently; the response reports the stage reached and what was persisted.
// @Tags         receipt-notes
// @Accept       json
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        request body SaveReceiptNoteRequest true "Receipt note save request"
// @Success      200 {object} APIResponse[SaveOutcomeResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/receipt-notes/save [post]
func (h *ReceiptNoteHandler) Save(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	var req SaveReceiptNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq, err := req.toAppRequest(scope)
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return
	}

	outcome := h.receiptService.SaveWithReconciliation(c.Request.Context(), appReq, req.decisionFunc())

	// A failure before anything was persisted is a plain error response.
	// Once the receipt note is on disk the caller gets the structured
	// outcome so it can see what survived.
	if !outcome.ReceiptSaved && outcome.Err != nil {
		var stageErr *procapp.StageFailure
		if errors.As(outcome.Err, &stageErr) {
			h.HandleDomainError(c, stageErr.Err)
			return
		}
		h.HandleDomainError(c, outcome.Err)
		return
	}

	h.Success(c, toSaveOutcomeResponse(outcome))
}

// Cancel godoc
// @ID           cancelReceiptNote
// @Summary      Cancel a receipt note
// @Description  Cancel a receipt note, releasing its received quantities from the fulfillment ledger
// @Tags         receipt-notes
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Receipt note ID"
// @Success      200 {object} APIResponse[procapp.ReceiptNoteResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/receipt-notes/{id}/cancel [post]
func (h *ReceiptNoteHandler) Cancel(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt note ID format")
		return
	}

	note, err := h.receiptService.Cancel(c.Request.Context(), scope, noteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, note)
}
