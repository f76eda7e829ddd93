package procurement

import (
	"github.com/shopspring/decimal"
)

// ShortfallItem describes an under-fulfilled ordered line: the portion of
// the leftover quantity that the current receipt note does not cover.
type ShortfallItem struct {
	ItemID            string          `json:"item_id"`
	BaseItemID        string          `json:"base_item_id,omitempty"`
	ItemName          string          `json:"item_name"`
	OrderedQuantity   decimal.Decimal `json:"ordered_quantity"`
	ReceivedQuantity  decimal.Decimal `json:"received_quantity"`
	LeftoverQuantity  decimal.Decimal `json:"leftover_quantity"`
	ShortfallQuantity decimal.Decimal `json:"shortfall_quantity"`
}

// Identity returns the item identity used for fulfillment matching
func (s ShortfallItem) Identity() ItemIdentity {
	return ItemIdentity{ItemID: s.ItemID, BaseItemID: s.BaseItemID}
}

// DetectShortfalls compares the quantities on the receipt note currently
// being edited (possibly unsaved) against the ledger's leftover quantities
// for its ordering document.
//
// A shortfall is emitted only when the note receives less than a positive
// leftover; fully covered items are dropped, so the result is exactly the
// set of under-fulfilled items. Note items that cannot be matched to any
// ordered line are skipped with a warning rather than failing the check.
func (l *FulfillmentLedger) DetectShortfalls(current *ReceiptNote, doc *OrderingDocument, otherNotes []ReceiptNote) ([]ShortfallItem, []ReconciliationWarning) {
	var shortfalls []ShortfallItem
	var warnings []ReconciliationWarning

	for idx := range current.Items {
		item := &current.Items[idx]
		if !item.IsActive {
			continue
		}

		ordered := doc.FindItemByIdentity(item.Identity())
		if ordered == nil {
			warnings = append(warnings, ReconciliationWarning{
				NoteID: current.ID,
				ItemID: item.ItemID,
				Reason: "receipt note item does not match any ordered line item",
			})
			continue
		}

		leftover, ledgerWarnings := l.LeftoverQuantity(ordered, doc.Ref(), otherNotes, current.ID)
		warnings = append(warnings, ledgerWarnings...)

		received := item.ReceivedQuantity
		if leftover.IsPositive() && received.LessThan(leftover) {
			shortfalls = append(shortfalls, ShortfallItem{
				ItemID:            ordered.ItemID,
				BaseItemID:        ordered.BaseItemID,
				ItemName:          ordered.ItemName,
				OrderedQuantity:   ordered.OrderedQuantity,
				ReceivedQuantity:  received,
				LeftoverQuantity:  leftover,
				ShortfallQuantity: leftover.Sub(received),
			})
		}
	}

	return shortfalls, warnings
}

// ReduceByReturns cross-references shortfall items against the active
// return-note items already recorded for the same ordering document and
// reduces each shortfall by the quantity already returned. Shortfalls that
// reduce to zero (or below, clamped) are dropped from the result.
func ReduceByReturns(shortfalls []ShortfallItem, returnItems []ReturnNoteItem) []ShortfallItem {
	if len(shortfalls) == 0 {
		return nil
	}

	remaining := make([]ShortfallItem, 0, len(shortfalls))
	for _, s := range shortfalls {
		returned := decimal.Zero
		for idx := range returnItems {
			item := &returnItems[idx]
			if !item.IsActive {
				continue
			}
			if item.Identity().Matches(s.Identity()) {
				returned = returned.Add(item.ReturnQuantity)
			}
		}

		uncovered := s.ShortfallQuantity.Sub(returned)
		if uncovered.IsPositive() {
			s.ShortfallQuantity = uncovered
			remaining = append(remaining, s)
		}
	}

	if len(remaining) == 0 {
		return nil
	}
	return remaining
}
