package procurement

import (
	"fmt"

	"github.com/google/uuid"
)

// DocumentKind discriminates the two ordering document variants.
// Purchase orders and change orders share the same shape but live in
// separate number ranges, so fulfillment must never mix their receipts.
type DocumentKind string

const (
	DocumentKindPurchaseOrder DocumentKind = "PURCHASE_ORDER"
	DocumentKindChangeOrder   DocumentKind = "CHANGE_ORDER"
)

// IsValid checks if the kind is a valid DocumentKind
func (k DocumentKind) IsValid() bool {
	return k == DocumentKindPurchaseOrder || k == DocumentKindChangeOrder
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// DocumentRef identifies an ordering document by id and kind.
// Receipt and return notes reference their ordering document through this
// pair; matching on the id alone is not sufficient.
type DocumentRef struct {
	ID   uuid.UUID    `json:"id"`
	Kind DocumentKind `json:"kind"`
}

// NewDocumentRef creates a document reference
func NewDocumentRef(id uuid.UUID, kind DocumentKind) DocumentRef {
	return DocumentRef{ID: id, Kind: kind}
}

// Equals returns true when both id and kind match
func (r DocumentRef) Equals(other DocumentRef) bool {
	return r.ID == other.ID && r.Kind == other.Kind
}

// IsZero reports whether the reference is unset
func (r DocumentRef) IsZero() bool {
	return r.ID == uuid.Nil
}

// String returns a human-readable form, used in log fields
func (r DocumentRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}
