package procurement

import (
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AllocateLineItemTotals distributes a document grand total (item total plus
// charges and taxes) proportionally back onto line items by their raw totals.
//
// Each item's share is rawTotal / itemTotal, where itemTotal is the sum of
// the raw totals; the allocated amount is round(share * grandTotal, 2), half
// away from zero. When itemTotal is zero the share is zero and nothing is
// distributed. The allocation is always recomputed in full from the current
// items and grand total, never incrementally patched.
func AllocateLineItemTotals(grandTotal decimal.Decimal, rawTotals []decimal.Decimal) ([]decimal.Decimal, error) {
	if grandTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_GRAND_TOTAL", "Grand total cannot be negative")
	}

	itemTotal := decimal.Zero
	for _, raw := range rawTotals {
		if raw.IsNegative() {
			return nil, shared.NewDomainError("INVALID_ITEM_TOTAL", "Line item total cannot be negative")
		}
		itemTotal = itemTotal.Add(raw)
	}

	allocated := make([]decimal.Decimal, len(rawTotals))
	if itemTotal.IsZero() {
		for i := range allocated {
			allocated[i] = decimal.Zero
		}
		return allocated, nil
	}

	for i, raw := range rawTotals {
		allocated[i] = valueobject.RoundAmount(raw.Mul(grandTotal).Div(itemTotal))
	}
	return allocated, nil
}
