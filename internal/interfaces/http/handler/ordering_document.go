package handler

import (
	"time"

	procapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderingDocumentHandler handles ordering document API endpoints
type OrderingDocumentHandler struct {
	BaseHandler
	docService *procapp.OrderingDocumentService
}

// NewOrderingDocumentHandler creates a new OrderingDocumentHandler
func NewOrderingDocumentHandler(docService *procapp.OrderingDocumentService) *OrderingDocumentHandler {
	return &OrderingDocumentHandler{
		docService: docService,
	}
}

// OrderingLineItemInput represents a line item in a document request
// @Description Ordered line item for creation
type OrderingLineItemInput struct {
	ItemID     string  `json:"item_id" example:"ITM-1001"`
	BaseItemID string  `json:"base_item_id" example:"BASE-2001"`
	ItemName   string  `json:"item_name" binding:"required,min=1,max=200" example:"Carbon steel pipe DN50"`
	Quantity   float64 `json:"quantity" example:"120"`
	Qty        float64 `json:"qty" example:"120"` // Alternate spelling accepted from legacy clients
	UnitPrice  float64 `json:"unit_price" example:"35.50"`
	UnitPriceA float64 `json:"unitPrice" example:"35.50"` // Alternate spelling accepted from legacy clients
	Remark     string  `json:"remark" example:"mill certificate required"`
}

// ChargeConfigInput represents one charge type's percentage configuration
// @Description Charge configuration (percentage of item total)
type ChargeConfigInput struct {
	Percentage float64 `json:"percentage" example:"2.5"`
	Taxable    bool    `json:"taxable" example:"true"`
}

// ChargeTaxConfigInput represents the document's charge and tax configuration
// @Description Charge and tax configuration for a document
type ChargeTaxConfigInput struct {
	Freight      ChargeConfigInput `json:"freight"`
	Packing      ChargeConfigInput `json:"packing"`
	CustomDuties ChargeConfigInput `json:"custom_duties"`
	Other        ChargeConfigInput `json:"other"`
	Tax1Percent  float64           `json:"tax1_percent" example:"5"`
	Tax2Percent  float64           `json:"tax2_percent" example:"0"`
}

// CreateOrderingDocumentRequest represents a request to create an ordering document
// @Description Request body for creating a purchase order or change order
type CreateOrderingDocumentRequest struct {
	Kind         string                  `json:"kind" binding:"required,oneof=PURCHASE_ORDER CHANGE_ORDER" example:"PURCHASE_ORDER"`
	SupplierID   string                  `json:"supplier_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	SupplierName string                  `json:"supplier_name" binding:"required,min=1,max=200" example:"Acme Industrial Supply"`
	Items        []OrderingLineItemInput `json:"items" binding:"required,min=1,dive"`
	Charges      *ChargeTaxConfigInput   `json:"charges"`
	Remark       string                  `json:"remark" example:"Q3 pipeline materials"`
}

// UpdateChargesRequest represents a request to replace a document's charge configuration
// @Description Request body for replacing the charge/tax configuration of a draft document
type UpdateChargesRequest struct {
	Charges ChargeTaxConfigInput `json:"charges" binding:"required"`
}

// UpdateItemQuantityRequest represents a request to change an ordered quantity
// @Description Request body for changing the ordered quantity of a line item
type UpdateItemQuantityRequest struct {
	Quantity float64 `json:"quantity" example:"90"`
	Qty      float64 `json:"qty" example:"90"` // Alternate spelling accepted from legacy clients
}

// CancelOrderingDocumentRequest represents a request to cancel a document
// @Description Request body for cancelling an ordering document
type CancelOrderingDocumentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"supplier cannot deliver"`
}

// ListOrderingDocumentsRequest represents list query parameters
// @Description Query parameters for listing ordering documents
type ListOrderingDocumentsRequest struct {
	Page       int       `form:"page" binding:"omitempty,min=1"`
	PageSize   int       `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string    `form:"order_by"`
	OrderDir   string    `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Search     string    `form:"search"`
	Kind       string    `form:"kind" binding:"omitempty,oneof=PURCHASE_ORDER CHANGE_ORDER"`
	SupplierID string    `form:"supplier_id" binding:"omitempty,uuid"`
	Status     string    `form:"status" binding:"omitempty,oneof=DRAFT APPROVED CLOSED CANCELLED"`
	StartDate  time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate    time.Time `form:"end_date" time_format:"2006-01-02"`
}

func (r *ListOrderingDocumentsRequest) toFilter() shared.Filter {
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
	if r.Kind != "" {
		filter.Filters["kind"] = r.Kind
	}
	if r.SupplierID != "" {
		filter.Filters["supplier_id"] = r.SupplierID
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

func toLineItemRequests(items []OrderingLineItemInput) []procapp.LineItemRequest {
	requests := make([]procapp.LineItemRequest, len(items))
	for idx, item := range items {
		requests[idx] = procapp.LineItemRequest{
			ItemID:     item.ItemID,
			BaseItemID: item.BaseItemID,
			ItemName:   item.ItemName,
			Quantity:   toDecimal(item.Quantity),
			Qty:        toDecimal(item.Qty),
			UnitPrice:  toDecimal(item.UnitPrice),
			UnitPriceA: toDecimal(item.UnitPriceA),
			Remark:     item.Remark,
		}
	}
	return requests
}

func toChargeTaxConfigRequest(input ChargeTaxConfigInput) procapp.ChargeTaxConfigRequest {
	return procapp.ChargeTaxConfigRequest{
		Freight:      procapp.ChargeConfigRequest{Percentage: toDecimal(input.Freight.Percentage), Taxable: input.Freight.Taxable},
		Packing:      procapp.ChargeConfigRequest{Percentage: toDecimal(input.Packing.Percentage), Taxable: input.Packing.Taxable},
		CustomDuties: procapp.ChargeConfigRequest{Percentage: toDecimal(input.CustomDuties.Percentage), Taxable: input.CustomDuties.Taxable},
		Other:        procapp.ChargeConfigRequest{Percentage: toDecimal(input.Other.Percentage), Taxable: input.Other.Taxable},
		Tax1Percent:  toDecimal(input.Tax1Percent),
		Tax2Percent:  toDecimal(input.Tax2Percent),
	}
}

// Create godoc
// @ID           createOrderingDocument
// @Summary      Create an ordering document
// @Description  Create a purchase order or change order with its line items and charge configuration
// @Tags         ordering-documents
// @Accept       json
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        request body CreateOrderingDocumentRequest true "Document creation request"
// @Success      201 {object} APIResponse[procapp.OrderingDocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/ordering-documents [post]
func (h *OrderingDocumentHandler) Create(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	var req CreateOrderingDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	appReq := procapp.CreateOrderingDocumentRequest{
		CorporationID: scope.CorporationID,
		ProjectID:     scope.ProjectID,
		Kind:          procurement.DocumentKind(req.Kind),
		SupplierID:    supplierID,
		SupplierName:  req.SupplierName,
		Items:         toLineItemRequests(req.Items),
		Remark:        req.Remark,
	}
	if req.Charges != nil {
		appReq.Charges = toChargeTaxConfigRequest(*req.Charges)
	}

	doc, err := h.docService.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, doc)
}

// GetByID godoc
// @ID           getOrderingDocument
// @Summary      Get an ordering document
// @Description  Get an ordering document by ID, including line items and financial breakdown
// @Tags         ordering-documents
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Document ID"
// @Success      200 {object} APIResponse[procapp.OrderingDocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /procurement/ordering-documents/{id} [get]
func (h *OrderingDocumentHandler) GetByID(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.docService.GetByID(c.Request.Context(), scope, docID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, doc)
}

// List godoc
// @ID           listOrderingDocuments
// @Summary      List ordering documents
// @Description  List ordering documents for the project scope with filtering and pagination
// @Tags         ordering-documents
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        kind query string false "Filter by document kind"
// @Param        supplier_id query string false "Filter by supplier"
// @Param        status query string false "Filter by status"
// @Success      200 {object} APIResponse[[]procapp.OrderingDocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /procurement/ordering-documents [get]
func (h *OrderingDocumentHandler) List(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	var req ListOrderingDocumentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.docService.List(c.Request.Context(), scope, req.toFilter())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// UpdateCharges godoc
// @ID           updateOrderingDocumentCharges
// @Summary      Replace a document's charge configuration
// @Description  Replace the charge/tax configuration of a draft document; the financial breakdown and per-line totals are recomputed
// @Tags         ordering-documents
// @Accept       json
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Document ID"
// @Param        request body UpdateChargesRequest true "Charge configuration"
// @Success      200 {object} APIResponse[procapp.OrderingDocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/ordering-documents/{id}/charges [put]
func (h *OrderingDocumentHandler) UpdateCharges(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req UpdateChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.docService.UpdateCharges(c.Request.Context(), scope, docID, procapp.UpdateChargesRequest{
		Charges: toChargeTaxConfigRequest(req.Charges),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, doc)
}

// UpdateItemQuantity godoc
// @ID           updateOrderingDocumentItemQuantity
// @Summary      Change an ordered quantity
// @Description  Change the ordered quantity of one line item on a draft document
// @Tags         ordering-documents
// @Accept       json
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Document ID"
// @Param        item_id path string true "Line item ID"
// @Param        request body UpdateItemQuantityRequest true "New quantity"
// @Success      200 {object} APIResponse[procapp.OrderingDocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/ordering-documents/{id}/items/{item_id} [put]
func (h *OrderingDocumentHandler) UpdateItemQuantity(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req UpdateItemQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.docService.UpdateItemQuantity(c.Request.Context(), scope, docID, itemID, procapp.LineItemRequest{
		Quantity: toDecimal(req.Quantity),
		Qty:      toDecimal(req.Qty),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, doc)
}

// Approve godoc
// @ID           approveOrderingDocument
// @Summary      Approve an ordering document
// @Description  Approve a draft document, freezing its items and charge configuration
// @Tags         ordering-documents
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Document ID"
// @Success      200 {object} APIResponse[procapp.OrderingDocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/ordering-documents/{id}/approve [post]
func (h *OrderingDocumentHandler) Approve(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.docService.Approve(c.Request.Context(), scope, docID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, doc)
}

// Cancel godoc
// @ID           cancelOrderingDocument
// @Summary      Cancel an ordering document
// @Description  Cancel a document with a reason
// @Tags         ordering-documents
// @Accept       json
// @Produce      json
// @Param        X-Corporation-ID header string true "Corporation ID"
// @Param        X-Project-ID header string true "Project ID"
// @Param        id path string true "Document ID"
// @Param        request body CancelOrderingDocumentRequest true "Cancellation reason"
// @Success      200 {object} APIResponse[procapp.OrderingDocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /procurement/ordering-documents/{id}/cancel [post]
func (h *OrderingDocumentHandler) Cancel(c *gin.Context) {
	scope, err := getScope(c)
	if err != nil {
		h.Unauthorized(c, "Project scope identification required")
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req CancelOrderingDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.docService.Cancel(c.Request.Context(), scope, docID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, doc)
}
