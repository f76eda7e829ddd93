// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReconciliationMetricsProvider implements ReconciliationMetricsProvider
// using GORM. It queries the procurement tables directly for aggregated metrics.
type GormReconciliationMetricsProvider struct {
	db *gorm.DB
}

// NewGormReconciliationMetricsProvider creates a new GormReconciliationMetricsProvider.
func NewGormReconciliationMetricsProvider(db *gorm.DB) *GormReconciliationMetricsProvider {
	return &GormReconciliationMetricsProvider{db: db}
}

// GetOpenReturnNoteCount returns the number of open return notes for a corporation.
func (p *GormReconciliationMetricsProvider) GetOpenReturnNoteCount(ctx context.Context, corporationID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("return_notes").
		Where("corporation_id = ? AND deleted_at IS NULL", corporationID).
		Where("status = ? AND is_active = ?", "OPEN", true).
		Count(&count).Error

	return count, err
}

// GetReceivableDocumentCount returns the number of approved ordering documents
// still eligible for receipt for a corporation.
func (p *GormReconciliationMetricsProvider) GetReceivableDocumentCount(ctx context.Context, corporationID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("ordering_documents").
		Where("corporation_id = ? AND deleted_at IS NULL", corporationID).
		Where("status = ?", "APPROVED").
		Count(&count).Error

	return count, err
}

// GormCorporationProvider implements CorporationProvider using GORM.
type GormCorporationProvider struct {
	db *gorm.DB
}

// NewGormCorporationProvider creates a new GormCorporationProvider.
func NewGormCorporationProvider(db *gorm.DB) *GormCorporationProvider {
	return &GormCorporationProvider{db: db}
}

// GetActiveCorporationIDs returns the distinct corporation IDs that own
// ordering documents.
func (p *GormCorporationProvider) GetActiveCorporationIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("ordering_documents").
		Distinct("corporation_id").
		Where("deleted_at IS NULL").
		Find(&ids).Error

	return ids, err
}
