package procurement

import (
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeBreakdown turns an item total and a charge/tax configuration into
// a fully itemized FinancialBreakdown.
//
// Each charge amount is a percentage of the item total. Charges flagged
// taxable join the item total to form the tax base; both tax percentages
// are applied to that same base (taxes are not compounded on each other).
// Every sub-amount is rounded to two places, half away from zero, at the
// point it is produced, so GrandTotal is always the exact sum of the
// rounded parts: ItemTotal + ChargesTotal + TaxTotal.
//
// The function is pure and never fails for valid input. A negative item
// total or a negative percentage is a caller contract violation and is
// rejected up front. A zero item total yields an all-zero breakdown.
func ComputeBreakdown(itemTotal decimal.Decimal, cfg ChargeTaxConfig) (FinancialBreakdown, error) {
	if itemTotal.IsNegative() {
		return FinancialBreakdown{}, shared.NewDomainError("INVALID_ITEM_TOTAL", "Item total cannot be negative")
	}
	if err := cfg.Validate(); err != nil {
		return FinancialBreakdown{}, err
	}

	b := FinancialBreakdown{ItemTotal: valueobject.RoundAmount(itemTotal)}

	chargesTotal := decimal.Zero
	taxableCharges := decimal.Zero
	for _, line := range cfg.Charges() {
		amount := percentageOf(itemTotal, line.Config.Percentage)
		switch line.Type {
		case ChargeFreight:
			b.FreightAmount = amount
		case ChargePacking:
			b.PackingAmount = amount
		case ChargeCustomDuties:
			b.CustomDutiesAmount = amount
		case ChargeOther:
			b.OtherAmount = amount
		}
		chargesTotal = chargesTotal.Add(amount)
		if line.Config.Taxable {
			taxableCharges = taxableCharges.Add(amount)
		}
	}
	b.ChargesTotal = chargesTotal

	taxBase := itemTotal.Add(taxableCharges)
	b.Tax1Amount = percentageOf(taxBase, cfg.Tax1Percent)
	b.Tax2Amount = percentageOf(taxBase, cfg.Tax2Percent)
	b.TaxTotal = b.Tax1Amount.Add(b.Tax2Amount)

	b.GrandTotal = b.ItemTotal.Add(b.ChargesTotal).Add(b.TaxTotal)

	return b, nil
}

// percentageOf computes base * percent / 100 rounded to monetary precision
func percentageOf(base, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return decimal.Zero
	}
	return valueobject.RoundAmount(base.Mul(percent).Div(oneHundred))
}
