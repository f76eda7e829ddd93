package procurement

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationWarning reports a soft inconsistency found while summing
// fulfillment: an item that could not be matched to any ordered line. Such
// items are excluded from the sums rather than failing the whole
// computation; callers are expected to log the warnings.
type ReconciliationWarning struct {
	NoteID uuid.UUID `json:"note_id"`
	ItemID string    `json:"item_id"`
	Reason string    `json:"reason"`
}

// String returns a loggable description of the warning
func (w ReconciliationWarning) String() string {
	return fmt.Sprintf("note %s item %q: %s", w.NoteID, w.ItemID, w.Reason)
}

// FulfillmentLedger computes, per ordering document and ordered item, how
// much of the ordered quantity is still outstanding.
//
// The ledger is deliberately stateless: every call recomputes from the full
// set of receipt notes passed in, because notes can be edited or
// deactivated out of order and a cached running counter would drift. At the
// expected cardinalities (tens of notes per document) the repeated scans
// are cheap.
type FulfillmentLedger struct{}

// NewFulfillmentLedger creates a fulfillment ledger
func NewFulfillmentLedger() *FulfillmentLedger {
	return &FulfillmentLedger{}
}

// ReceivedQuantity sums the received quantity for an ordered item across
// all active receipt notes for the same document reference, excluding the
// note identified by excludeNoteID (the note currently being edited, whose
// draft quantities must not count against themselves).
//
// Matching rules: a note only counts when both its document id and kind
// match; inactive notes and inactive items are skipped; item identity is
// resolved through the fallback chain in ItemIdentity with normalized keys.
// Items whose identity cannot be resolved are skipped with a warning.
func (l *FulfillmentLedger) ReceivedQuantity(identity ItemIdentity, ref DocumentRef, notes []ReceiptNote, excludeNoteID uuid.UUID) (decimal.Decimal, []ReconciliationWarning) {
	total := decimal.Zero
	var warnings []ReconciliationWarning

	for idx := range notes {
		note := &notes[idx]
		if !note.IsActive || note.ID == excludeNoteID || !note.Ref().Equals(ref) {
			continue
		}
		for j := range note.Items {
			item := &note.Items[j]
			if !item.IsActive {
				continue
			}
			if _, ok := item.Identity().Key(); !ok {
				warnings = append(warnings, ReconciliationWarning{
					NoteID: note.ID,
					ItemID: item.ItemID,
					Reason: "receipt note item has no resolvable item identity",
				})
				continue
			}
			if item.Identity().Matches(identity) {
				total = total.Add(item.ReceivedQuantity)
			}
		}
	}

	return total, warnings
}

// LeftoverQuantity returns how much of an ordered line item remains to be
// received, given the full set of candidate receipt notes. Over-receipt
// clamps the leftover to zero rather than propagating a negative value.
func (l *FulfillmentLedger) LeftoverQuantity(ordered *OrderedLineItem, ref DocumentRef, notes []ReceiptNote, excludeNoteID uuid.UUID) (decimal.Decimal, []ReconciliationWarning) {
	received, warnings := l.ReceivedQuantity(ordered.Identity(), ref, notes, excludeNoteID)
	leftover := ordered.OrderedQuantity.Sub(received)
	if leftover.IsNegative() {
		leftover = decimal.Zero
	}
	return leftover, warnings
}
