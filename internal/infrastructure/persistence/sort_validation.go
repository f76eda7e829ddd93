package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// OrderingDocumentSortFields contains allowed sort fields for ordering documents
var OrderingDocumentSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"kind":          true,
	"supplier_id":   true,
	"supplier_name": true,
	"status":        true,
	"item_total":    true,
	"grand_total":   true,
	"approved_at":   true,
	"closed_at":     true,
}

// ReceiptNoteSortFields contains allowed sort fields for receipt notes
var ReceiptNoteSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"document_id":   true,
	"document_kind": true,
	"status":        true,
	"item_total":    true,
	"grand_total":   true,
	"posted_at":     true,
}

// ReturnNoteSortFields contains allowed sort fields for return notes
var ReturnNoteSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"document_id":   true,
	"document_kind": true,
	"status":        true,
	"closed_at":     true,
}
