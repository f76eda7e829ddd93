package procurement

import (
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItemRequest represents a line item in a create/update document request.
//
// Upstream clients disagree on field naming (unit_price vs unitPrice, qty vs
// quantity), so the request accepts the known alternates and Normalize folds
// them into the canonical fields before anything else sees the payload. The
// engine itself only ever works on the canonical shape.
type LineItemRequest struct {
	ItemID     string          `json:"item_id"`
	BaseItemID string          `json:"base_item_id"`
	ItemName   string          `json:"item_name" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Qty        decimal.Decimal `json:"qty"` // Alternate field name, folded by Normalize
	UnitPrice  decimal.Decimal `json:"unit_price"`
	UnitPriceA decimal.Decimal `json:"unitPrice"` // Alternate field name, folded by Normalize
	Remark     string          `json:"remark"`
}

// Normalize folds alternate field spellings into the canonical fields
func (r *LineItemRequest) Normalize() {
	if r.Quantity.IsZero() && !r.Qty.IsZero() {
		r.Quantity = r.Qty
	}
	if r.UnitPrice.IsZero() && !r.UnitPriceA.IsZero() {
		r.UnitPrice = r.UnitPriceA
	}
}

// ChargeConfigRequest represents one charge type's configuration
type ChargeConfigRequest struct {
	Percentage decimal.Decimal `json:"percentage"`
	Taxable    bool            `json:"taxable"`
}

// ChargeTaxConfigRequest represents the full charge/tax configuration
type ChargeTaxConfigRequest struct {
	Freight      ChargeConfigRequest `json:"freight"`
	Packing      ChargeConfigRequest `json:"packing"`
	CustomDuties ChargeConfigRequest `json:"custom_duties"`
	Other        ChargeConfigRequest `json:"other"`
	Tax1Percent  decimal.Decimal     `json:"tax1_percent"`
	Tax2Percent  decimal.Decimal     `json:"tax2_percent"`
}

// ToDomain maps the request to the domain configuration
func (r ChargeTaxConfigRequest) ToDomain() procurement.ChargeTaxConfig {
	return procurement.ChargeTaxConfig{
		Freight:      procurement.ChargeConfig{Percentage: r.Freight.Percentage, Taxable: r.Freight.Taxable},
		Packing:      procurement.ChargeConfig{Percentage: r.Packing.Percentage, Taxable: r.Packing.Taxable},
		CustomDuties: procurement.ChargeConfig{Percentage: r.CustomDuties.Percentage, Taxable: r.CustomDuties.Taxable},
		Other:        procurement.ChargeConfig{Percentage: r.Other.Percentage, Taxable: r.Other.Taxable},
		Tax1Percent:  r.Tax1Percent,
		Tax2Percent:  r.Tax2Percent,
	}
}

// CreateOrderingDocumentRequest represents a request to create an ordering document
type CreateOrderingDocumentRequest struct {
	CorporationID uuid.UUID                `json:"corporation_id" binding:"required"`
	ProjectID     uuid.UUID                `json:"project_id" binding:"required"`
	Kind          procurement.DocumentKind `json:"kind" binding:"required"`
	SupplierID    uuid.UUID                `json:"supplier_id" binding:"required"`
	SupplierName  string                   `json:"supplier_name" binding:"required"`
	Items         []LineItemRequest        `json:"items" binding:"required,min=1,dive"`
	Charges       ChargeTaxConfigRequest   `json:"charges"`
	Remark        string                   `json:"remark"`
}

// UpdateChargesRequest represents a request to replace a document's charge/tax configuration
type UpdateChargesRequest struct {
	Charges ChargeTaxConfigRequest `json:"charges" binding:"required"`
}

// ReceiptItemRequest represents one received line in a receipt note request
type ReceiptItemRequest struct {
	ItemID           string          `json:"item_id"`
	BaseItemID       string          `json:"base_item_id"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	Qty              decimal.Decimal `json:"qty"` // Alternate field name, folded by Normalize
}

// Normalize folds alternate field spellings into the canonical fields
func (r *ReceiptItemRequest) Normalize() {
	if r.ReceivedQuantity.IsZero() && !r.Qty.IsZero() {
		r.ReceivedQuantity = r.Qty
	}
}

// SaveReceiptNoteRequest represents the orchestrated receipt note save
type SaveReceiptNoteRequest struct {
	NoteID        *uuid.UUID               `json:"note_id"` // nil creates a new note
	CorporationID uuid.UUID                `json:"corporation_id" binding:"required"`
	ProjectID     uuid.UUID                `json:"project_id" binding:"required"`
	DocumentID    uuid.UUID                `json:"document_id" binding:"required"`
	DocumentKind  procurement.DocumentKind `json:"document_kind" binding:"required"`
	Items         []ReceiptItemRequest     `json:"items" binding:"required,min=1,dive"`
	Remark        string                   `json:"remark"`
}

// ReturnItemRequest represents one returned line in a return note request
type ReturnItemRequest struct {
	ItemID         string          `json:"item_id"`
	BaseItemID     string          `json:"base_item_id"`
	ItemName       string          `json:"item_name"`
	ReturnQuantity decimal.Decimal `json:"return_quantity"`
	Qty            decimal.Decimal `json:"qty"` // Alternate field name, folded by Normalize
}

// Normalize folds alternate field spellings into the canonical fields
func (r *ReturnItemRequest) Normalize() {
	if r.ReturnQuantity.IsZero() && !r.Qty.IsZero() {
		r.ReturnQuantity = r.Qty
	}
}

// UpdateReturnNoteRequest replaces a return note's item list
type UpdateReturnNoteRequest struct {
	Items []ReturnItemRequest `json:"items"`
}

// ShortfallItemResponse represents one under-fulfilled line in API responses
type ShortfallItemResponse struct {
	ItemID            string          `json:"item_id"`
	BaseItemID        string          `json:"base_item_id,omitempty"`
	ItemName          string          `json:"item_name"`
	OrderedQuantity   decimal.Decimal `json:"ordered_quantity"`
	ReceivedQuantity  decimal.Decimal `json:"received_quantity"`
	LeftoverQuantity  decimal.Decimal `json:"leftover_quantity"`
	ShortfallQuantity decimal.Decimal `json:"shortfall_quantity"`
}

// ToShortfallItemResponses maps domain shortfalls to their response form
func ToShortfallItemResponses(shortfalls []procurement.ShortfallItem) []ShortfallItemResponse {
	if len(shortfalls) == 0 {
		return nil
	}
	responses := make([]ShortfallItemResponse, len(shortfalls))
	for idx, s := range shortfalls {
		responses[idx] = ShortfallItemResponse{
			ItemID:            s.ItemID,
			BaseItemID:        s.BaseItemID,
			ItemName:          s.ItemName,
			OrderedQuantity:   s.OrderedQuantity,
			ReceivedQuantity:  s.ReceivedQuantity,
			LeftoverQuantity:  s.LeftoverQuantity,
			ShortfallQuantity: s.ShortfallQuantity,
		}
	}
	return responses
}

// BreakdownResponse represents a financial breakdown in API responses
type BreakdownResponse struct {
	ItemTotal          decimal.Decimal `json:"item_total"`
	FreightAmount      decimal.Decimal `json:"freight_amount"`
	PackingAmount      decimal.Decimal `json:"packing_amount"`
	CustomDutiesAmount decimal.Decimal `json:"custom_duties_amount"`
	OtherAmount        decimal.Decimal `json:"other_amount"`
	ChargesTotal       decimal.Decimal `json:"charges_total"`
	Tax1Amount         decimal.Decimal `json:"tax1_amount"`
	Tax2Amount         decimal.Decimal `json:"tax2_amount"`
	TaxTotal           decimal.Decimal `json:"tax_total"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
}

// ToBreakdownResponse maps a domain breakdown to its response form
func ToBreakdownResponse(b procurement.FinancialBreakdown) BreakdownResponse {
	return BreakdownResponse{
		ItemTotal:          b.ItemTotal,
		FreightAmount:      b.FreightAmount,
		PackingAmount:      b.PackingAmount,
		CustomDutiesAmount: b.CustomDutiesAmount,
		OtherAmount:        b.OtherAmount,
		ChargesTotal:       b.ChargesTotal,
		Tax1Amount:         b.Tax1Amount,
		Tax2Amount:         b.Tax2Amount,
		TaxTotal:           b.TaxTotal,
		GrandTotal:         b.GrandTotal,
	}
}

// LineItemResponse represents an ordered line item in API responses
type LineItemResponse struct {
	ID                       uuid.UUID       `json:"id"`
	ItemID                   string          `json:"item_id"`
	BaseItemID               string          `json:"base_item_id,omitempty"`
	ItemName                 string          `json:"item_name"`
	OrderedQuantity          decimal.Decimal `json:"ordered_quantity"`
	UnitPrice                decimal.Decimal `json:"unit_price"`
	Total                    decimal.Decimal `json:"total"`
	TotalWithChargesAndTaxes decimal.Decimal `json:"total_with_charges_and_taxes"`
}

// OrderingDocumentResponse represents an ordering document in API responses
type OrderingDocumentResponse struct {
	ID            uuid.UUID                          `json:"id"`
	CorporationID uuid.UUID                          `json:"corporation_id"`
	ProjectID     uuid.UUID                          `json:"project_id"`
	Number        string                             `json:"number"`
	Kind          procurement.DocumentKind           `json:"kind"`
	SupplierID    uuid.UUID                          `json:"supplier_id"`
	SupplierName  string                             `json:"supplier_name"`
	Status        procurement.OrderingDocumentStatus `json:"status"`
	Items         []LineItemResponse                 `json:"items"`
	Charges       procurement.ChargeTaxConfig        `json:"charges"`
	Breakdown     BreakdownResponse                  `json:"breakdown"`
	Remark        string                             `json:"remark,omitempty"`
	CreatedAt     time.Time                          `json:"created_at"`
	UpdatedAt     time.Time                          `json:"updated_at"`
}

// ToOrderingDocumentResponse maps a domain document to its response form
func ToOrderingDocumentResponse(doc *procurement.OrderingDocument) OrderingDocumentResponse {
	items := make([]LineItemResponse, len(doc.Items))
	for idx, item := range doc.Items {
		items[idx] = LineItemResponse{
			ID:                       item.ID,
			ItemID:                   item.ItemID,
			BaseItemID:               item.BaseItemID,
			ItemName:                 item.ItemName,
			OrderedQuantity:          item.OrderedQuantity,
			UnitPrice:                item.UnitPrice,
			Total:                    item.Total,
			TotalWithChargesAndTaxes: item.TotalWithChargesAndTaxes,
		}
	}
	return OrderingDocumentResponse{
		ID:            doc.ID,
		CorporationID: doc.CorporationID,
		ProjectID:     doc.ProjectID,
		Number:        doc.Number,
		Kind:          doc.Kind,
		SupplierID:    doc.SupplierID,
		SupplierName:  doc.SupplierName,
		Status:        doc.Status,
		Items:         items,
		Charges:       doc.Charges,
		Breakdown:     ToBreakdownResponse(doc.Breakdown),
		Remark:        doc.Remark,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

// ReceiptItemResponse represents a receipt note item in API responses
type ReceiptItemResponse struct {
	ID                       uuid.UUID       `json:"id"`
	ItemID                   string          `json:"item_id"`
	BaseItemID               string          `json:"base_item_id,omitempty"`
	ItemName                 string          `json:"item_name"`
	ReceivedQuantity         decimal.Decimal `json:"received_quantity"`
	UnitPrice                decimal.Decimal `json:"unit_price"`
	Total                    decimal.Decimal `json:"total"`
	TotalWithChargesAndTaxes decimal.Decimal `json:"total_with_charges_and_taxes"`
	IsActive                 bool            `json:"is_active"`
}

// ReceiptNoteResponse represents a receipt note in API responses
type ReceiptNoteResponse struct {
	ID           uuid.UUID                     `json:"id"`
	Number       string                        `json:"number"`
	DocumentID   uuid.UUID                     `json:"document_id"`
	DocumentKind procurement.DocumentKind      `json:"document_kind"`
	Status       procurement.ReceiptNoteStatus `json:"status"`
	IsActive     bool                          `json:"is_active"`
	Items        []ReceiptItemResponse         `json:"items"`
	Breakdown    BreakdownResponse             `json:"breakdown"`
	CreatedAt    time.Time                     `json:"created_at"`
	UpdatedAt    time.Time                     `json:"updated_at"`
}

// ToReceiptNoteResponse maps a domain receipt note to its response form
func ToReceiptNoteResponse(note *procurement.ReceiptNote) ReceiptNoteResponse {
	items := make([]ReceiptItemResponse, len(note.Items))
	for idx, item := range note.Items {
		items[idx] = ReceiptItemResponse{
			ID:                       item.ID,
			ItemID:                   item.ItemID,
			BaseItemID:               item.BaseItemID,
			ItemName:                 item.ItemName,
			ReceivedQuantity:         item.ReceivedQuantity,
			UnitPrice:                item.UnitPrice,
			Total:                    item.Total,
			TotalWithChargesAndTaxes: item.TotalWithChargesAndTaxes,
			IsActive:                 item.IsActive,
		}
	}
	return ReceiptNoteResponse{
		ID:           note.ID,
		Number:       note.Number,
		DocumentID:   note.DocumentID,
		DocumentKind: note.DocumentKind,
		Status:       note.Status,
		IsActive:     note.IsActive,
		Items:        items,
		Breakdown:    ToBreakdownResponse(note.Breakdown),
		CreatedAt:    note.CreatedAt,
		UpdatedAt:    note.UpdatedAt,
	}
}

// ReturnItemResponse represents a return note item in API responses
type ReturnItemResponse struct {
	ID             *uuid.UUID      `json:"id,omitempty"`
	ItemID         string          `json:"item_id"`
	BaseItemID     string          `json:"base_item_id,omitempty"`
	ItemName       string          `json:"item_name,omitempty"`
	ReturnQuantity decimal.Decimal `json:"return_quantity"`
	IsActive       bool            `json:"is_active"`
}

// ReturnNoteResponse represents a return note in API responses
type ReturnNoteResponse struct {
	ID           uuid.UUID                    `json:"id"`
	Number       string                       `json:"number"`
	DocumentID   uuid.UUID                    `json:"document_id"`
	DocumentKind procurement.DocumentKind     `json:"document_kind"`
	Status       procurement.ReturnNoteStatus `json:"status"`
	IsActive     bool                         `json:"is_active"`
	Items        []ReturnItemResponse         `json:"items"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

// ToReturnNoteResponse maps a domain return note to its response form
func ToReturnNoteResponse(note *procurement.ReturnNote) ReturnNoteResponse {
	items := make([]ReturnItemResponse, len(note.Items))
	for idx, item := range note.Items {
		items[idx] = ReturnItemResponse{
			ID:             item.ID,
			ItemID:         item.ItemID,
			BaseItemID:     item.BaseItemID,
			ItemName:       item.ItemName,
			ReturnQuantity: item.ReturnQuantity,
			IsActive:       item.IsActive,
		}
	}
	return ReturnNoteResponse{
		ID:           note.ID,
		Number:       note.Number,
		DocumentID:   note.DocumentID,
		DocumentKind: note.DocumentKind,
		Status:       note.Status,
		IsActive:     note.IsActive,
		Items:        items,
		CreatedAt:    note.CreatedAt,
		UpdatedAt:    note.UpdatedAt,
	}
}
