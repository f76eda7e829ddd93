package handler

import (
	"time"

	procapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReturnNoteHandler handles return note API endpoints
type ReturnNoteHandler struct {
	BaseHandler
	returnService *procapp.ReturnNoteService
}

// NewReturnNoteHandler creates a new ReturnNoteHandler
func NewReturnNoteHandler(returnService *procapp.ReturnNoteService) *ReturnNoteHandler {
	return &ReturnNoteHandler{
		returnService: returnService,
	}
}

// ReturnItemInput represents one returned line in an update request
// @Description Returned line item
type ReturnItemInput struct {
	ItemID         string  `json:"item_id" example:"ITM-1001"`
	BaseItemID     string  `json:"base_item_id" example:"BASE-2001"`
	ItemName       string  `json:"item_name" example:"Carbon steel pipe DN50"`
	ReturnQuantity float64 `json:"return_quantity" example:"40"`
	Qty            float64 `json:"qty" example:"40"` // Alternate spelling accepted from legacy clients
}

// UpdateReturnNoteItemsRequest replaces a return note's item list
// @Description Request body for replacing a return note's items. An empty list clears the note.
type UpdateReturnNoteItemsRequest struct {
	Items []ReturnItemInput `json:"items"`
}

// ListReturnNotesRequest represents list query parameters
// @Description Query parameters for listing return notes
type ListReturnNotesRequest struct {
	Page          int       `form:"page" binding:"omitempty,min=1"`
	PageSize      int       `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string    `form:"order_by"`
	OrderDir      string    `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search        string    `form:"search"`
	DocumentID    string    `form:"document_id" binding:"omitempty,uuid"`
	ReceiptNoteID string    `form:"receipt_note_id" binding:"omitempty,uuid"`
	Status        string    `form:"status"`
	StartDate     time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate       time.Time `form:"end_date" time_format:"2006-01-02"`
}

func (r *ListReturnNotesRequest) toFilter() shared.Filter {
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
	if r.ReceiptNoteID != "" {
		filter.Filters["receipt_note_id"] = r.ReceiptNoteID
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

// GetByID godoc
// @ID           getReturnNote
// @Summary      Get a return note
// @Description  Get a return note by ID, including its returned lines
// @Tags         return-notes
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Return note ID"
// @Success      200 {object} APIResponse[procapp.ReturnNoteResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /procurement/return-notes/{id} [get]
func (h *ReturnNoteHandler) GetByID(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return note ID format")
		return
	}

	note, err := h.returnService.GetByID(c.Request.Context(), scope, noteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, note)
}

// List godoc
// @ID           listReturnNotes
// @Summary      List return notes
// @Description  List return notes for the project scope with filtering and pagination
// @Tags         return-notes
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        document_id query string false "Filter by ordering document"
// @Param        receipt_note_id query string false "Filter by receipt note"
// @Param        status query string false "Filter by status"
// @Success      200 {object} APIResponse[[]procapp.ReturnNoteResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /procurement/return-notes [get]
func (h *ReturnNoteHandler) List(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	var req ListReturnNotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.List(c.Request.Context(), scope, req.toFilter())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// UpdateItems godoc
// @ID           updateReturnNoteItems
// @Summary      Replace a return note's items
// @Description  Replace the full item list of an open return note. Return quantities are validated against the outstanding shortfall. An empty list clears the note.
// @Tags         return-notes
// @Accept       json
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Return note ID"
// @Param        request body UpdateReturnNoteItemsRequest true "Replacement item list"
// @Success      200 {object} APIResponse[procapp.ReturnNoteResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/return-notes/{id}/items [put]
func (h *ReturnNoteHandler) UpdateItems(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return note ID format")
		return
	}

	var req UpdateReturnNoteItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := procapp.UpdateReturnNoteRequest{
		Items: make([]procapp.ReturnItemRequest, len(req.Items)),
	}
	for idx, item := range req.Items {
		appReq.Items[idx] = procapp.ReturnItemRequest{
			ItemID:         item.ItemID,
			BaseItemID:     item.BaseItemID,
			ItemName:       item.ItemName,
			ReturnQuantity: toDecimal(item.ReturnQuantity),
			Qty:            toDecimal(item.Qty),
		}
	}

	note, err := h.returnService.UpdateItems(c.Request.Context(), scope, noteID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, note)
}

// Close godoc
// @ID           closeReturnNote
// @Summary      Close a return note
// @Description  Close an open return note, marking the return as settled with the supplier
// @Tags         return-notes
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Return note ID"
// @Success      200 {object} APIResponse[procapp.ReturnNoteResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/return-notes/{id}/close [post]
func (h *ReturnNoteHandler) Close(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return note ID format")
		return
	}

	note, err := h.returnService.Close(c.Request.Context(), scope, noteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, note)
}

// Cancel godoc
// @ID           cancelReturnNote
// @Summary      Cancel a return note
// @Description  Cancel an open return note
// @Tags         return-notes
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Return note ID"
// @Success      200 {object} APIResponse[procapp.ReturnNoteResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/return-notes/{id}/cancel [post]
func (h *ReturnNoteHandler) Cancel(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	noteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return note ID format")
		return
	}

	note, err := h.returnService.Cancel(c.Request.Context(), scope, noteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, note)
}
