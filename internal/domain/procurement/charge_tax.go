package procurement

import (
	"fmt"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ChargeType identifies one of the document-level charge categories
type ChargeType string

const (
	ChargeFreight      ChargeType = "FREIGHT"
	ChargePacking      ChargeType = "PACKING"
	ChargeCustomDuties ChargeType = "CUSTOM_DUTIES"
	ChargeOther        ChargeType = "OTHER"
)

// ChargeConfig is the configuration of a single charge type: a percentage
// of the document item total, and whether the resulting amount joins the
// tax base. Taxability is per-charge data, never a hardcoded subset.
type ChargeConfig struct {
	Percentage decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"percentage"`
	Taxable    bool            `gorm:"not null;default:false" json:"taxable"`
}

// ChargeTaxConfig is the full charge and tax configuration of an ordering
// document. A percentage of zero participates as a no-op; only negative
// percentages are rejected.
type ChargeTaxConfig struct {
	Freight      ChargeConfig    `gorm:"embedded;embeddedPrefix:freight_" json:"freight"`
	Packing      ChargeConfig    `gorm:"embedded;embeddedPrefix:packing_" json:"packing"`
	CustomDuties ChargeConfig    `gorm:"embedded;embeddedPrefix:custom_duties_" json:"custom_duties"`
	Other        ChargeConfig    `gorm:"embedded;embeddedPrefix:other_" json:"other"`
	Tax1Percent  decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"tax1_percent"`
	Tax2Percent  decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"tax2_percent"`
}

// ChargeLine pairs a charge type with its configuration for iteration
type ChargeLine struct {
	Type   ChargeType
	Config ChargeConfig
}

// Charges returns the four charge lines in their canonical order
func (c ChargeTaxConfig) Charges() []ChargeLine {
	return []ChargeLine{
		{Type: ChargeFreight, Config: c.Freight},
		{Type: ChargePacking, Config: c.Packing},
		{Type: ChargeCustomDuties, Config: c.CustomDuties},
		{Type: ChargeOther, Config: c.Other},
	}
}

// Validate rejects negative percentages. Zero percentages are valid no-ops.
func (c ChargeTaxConfig) Validate() error {
	for _, line := range c.Charges() {
		if line.Config.Percentage.IsNegative() {
			return shared.NewDomainError("INVALID_PERCENTAGE",
				fmt.Sprintf("%s percentage cannot be negative", line.Type))
		}
	}
	if c.Tax1Percent.IsNegative() {
		return shared.NewDomainError("INVALID_PERCENTAGE", "Tax 1 percentage cannot be negative")
	}
	if c.Tax2Percent.IsNegative() {
		return shared.NewDomainError("INVALID_PERCENTAGE", "Tax 2 percentage cannot be negative")
	}
	return nil
}

// FinancialBreakdown is the fully itemized monetary total of a document.
// It is derived from an item total and a ChargeTaxConfig, never stored
// independently; aggregates embed it and recompute it on every change.
type FinancialBreakdown struct {
	ItemTotal          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"item_total"`
	FreightAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"freight_amount"`
	PackingAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"packing_amount"`
	CustomDutiesAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"custom_duties_amount"`
	OtherAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"other_amount"`
	ChargesTotal       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"charges_total"`
	Tax1Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax1_amount"`
	Tax2Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax2_amount"`
	TaxTotal           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"tax_total"`
	GrandTotal         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"grand_total"`
}

// ChargeAmount returns the amount computed for a charge type
func (b FinancialBreakdown) ChargeAmount(t ChargeType) decimal.Decimal {
	switch t {
	case ChargeFreight:
		return b.FreightAmount
	case ChargePacking:
		return b.PackingAmount
	case ChargeCustomDuties:
		return b.CustomDutiesAmount
	case ChargeOther:
		return b.OtherAmount
	}
	return decimal.Zero
}
