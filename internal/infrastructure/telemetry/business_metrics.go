// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the procurement system.
// It tracks ordering document creation, receipt save activity, and
// reconciliation health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	documentCreatedTotal  *Counter
	documentAmountTotal   *Counter
	receiptSaveTotal      *Counter
	shortfallTotal        *Counter
	returnNoteRaisedTotal *Counter

	// Gauge metrics (point-in-time values)
	openReturnNoteCount    *Gauge
	receivableDocumentCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	reconciliationProvider ReconciliationMetricsProvider
}

// ReconciliationMetricsProvider provides reconciliation data for periodic
// metrics collection. This interface allows the telemetry layer to query
// procurement state without depending on the domain directly.
type ReconciliationMetricsProvider interface {
	// GetOpenReturnNoteCount returns the number of open return notes for a corporation
	GetOpenReturnNoteCount(ctx context.Context, corporationID uuid.UUID) (int64, error)

	// GetReceivableDocumentCount returns the number of approved ordering documents
	// still eligible for receipt for a corporation
	GetReceivableDocumentCount(ctx context.Context, corporationID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter                  metric.Meter
	Logger                 *zap.Logger
	CollectInterval        time.Duration // Default: 5 minutes
	ReconciliationProvider ReconciliationMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:                  cfg.Meter,
		logger:                 logger,
		stopChan:               make(chan struct{}),
		reconciliationProvider: cfg.ReconciliationProvider,
	}

	// Initialize counter metrics
	var err error

	// Ordering document metrics
	bm.documentCreatedTotal, err = NewCounter(
		cfg.Meter,
		"erp_document_created_total",
		"Total number of ordering documents created",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	bm.documentAmountTotal, err = NewCounter(
		cfg.Meter,
		"erp_document_amount_total",
		"Total ordering document amount in cents (fen)",
		"{fen}",
	)
	if err != nil {
		return nil, err
	}

	// Receipt save metrics
	bm.receiptSaveTotal, err = NewCounter(
		cfg.Meter,
		"erp_receipt_save_total",
		"Total number of receipt note save attempts",
		"{saves}",
	)
	if err != nil {
		return nil, err
	}

	bm.shortfallTotal, err = NewCounter(
		cfg.Meter,
		"erp_shortfall_detected_total",
		"Total number of shortfall line items detected during receipt saves",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	bm.returnNoteRaisedTotal, err = NewCounter(
		cfg.Meter,
		"erp_return_note_raised_total",
		"Total number of return notes raised from shortfalls",
		"{notes}",
	)
	if err != nil {
		return nil, err
	}

	// Reconciliation gauge metrics
	bm.openReturnNoteCount, err = NewGauge(
		cfg.Meter,
		"erp_return_note_open_count",
		"Number of return notes currently open",
		"{notes}",
	)
	if err != nil {
		return nil, err
	}

	bm.receivableDocumentCount, err = NewGauge(
		cfg.Meter,
		"erp_document_receivable_count",
		"Number of approved ordering documents eligible for receipt",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Ordering Document Metrics
// =============================================================================

// DocumentKind represents the kind of ordering document for metrics labeling.
type DocumentKind string

const (
	DocumentKindPurchaseOrder DocumentKind = "PURCHASE_ORDER"
	DocumentKindChangeOrder   DocumentKind = "CHANGE_ORDER"
)

// RecordDocumentCreated records an ordering document creation event.
// This should be called from the application layer when a document is created.
func (bm *BusinessMetrics) RecordDocumentCreated(ctx context.Context, corporationID uuid.UUID, kind DocumentKind) {
	bm.documentCreatedTotal.Inc(ctx,
		AttrCorporationID.String(corporationID.String()),
		AttrDocumentKind.String(string(kind)),
	)
}

// RecordDocumentAmount records the document grand total.
// Amount should be in the smallest currency unit (cents/fen).
func (bm *BusinessMetrics) RecordDocumentAmount(ctx context.Context, corporationID uuid.UUID, kind DocumentKind, amountFen int64) {
	bm.documentAmountTotal.Add(ctx, amountFen,
		AttrCorporationID.String(corporationID.String()),
		AttrDocumentKind.String(string(kind)),
	)
}

// RecordDocumentWithAmount is a convenience method that records both document count and amount.
func (bm *BusinessMetrics) RecordDocumentWithAmount(ctx context.Context, corporationID uuid.UUID, kind DocumentKind, amount decimal.Decimal) {
	bm.RecordDocumentCreated(ctx, corporationID, kind)

	// Convert to fen (multiply by 100)
	amountFen := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordDocumentAmount(ctx, corporationID, kind, amountFen)
}

// =============================================================================
// Receipt Save Metrics
// =============================================================================

// RecordReceiptSave records a receipt note save attempt and the stage it reached.
// This should be called when the save orchestration completes.
func (bm *BusinessMetrics) RecordReceiptSave(ctx context.Context, corporationID uuid.UUID, stage string) {
	bm.receiptSaveTotal.Inc(ctx,
		AttrCorporationID.String(corporationID.String()),
		AttrSaveStage.String(stage),
	)
}

// RecordShortfalls records the number of shortfall line items surfaced by a save.
func (bm *BusinessMetrics) RecordShortfalls(ctx context.Context, corporationID uuid.UUID, count int64) {
	if count <= 0 {
		return
	}
	bm.shortfallTotal.Add(ctx, count,
		AttrCorporationID.String(corporationID.String()),
	)
}

// RecordReturnNoteRaised records a return note raised from shortfalls,
// labeled with the decision that produced it.
func (bm *BusinessMetrics) RecordReturnNoteRaised(ctx context.Context, corporationID uuid.UUID, decision string) {
	bm.returnNoteRaisedTotal.Inc(ctx,
		AttrCorporationID.String(corporationID.String()),
		AttrDecision.String(decision),
	)
}

// =============================================================================
// Reconciliation Gauge Metrics
// =============================================================================

// RecordOpenReturnNoteCount records the number of open return notes.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOpenReturnNoteCount(ctx context.Context, corporationID uuid.UUID, count int64) {
	bm.openReturnNoteCount.Record(ctx, count,
		AttrCorporationID.String(corporationID.String()),
	)
}

// RecordReceivableDocumentCount records the number of approved documents
// still eligible for receipt.
func (bm *BusinessMetrics) RecordReceivableDocumentCount(ctx context.Context, corporationID uuid.UUID, count int64) {
	bm.receivableDocumentCount.Record(ctx, count,
		AttrCorporationID.String(corporationID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// CorporationProvider provides corporation IDs for periodic metrics collection.
type CorporationProvider interface {
	GetActiveCorporationIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects reconciliation metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, corporationProvider CorporationProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, corporationProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, corporationProvider CorporationProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectReconciliationMetrics(ctx, corporationProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectReconciliationMetrics(ctx, corporationProvider)
		}
	}
}

// collectReconciliationMetrics collects reconciliation gauge metrics for all corporations.
func (bm *BusinessMetrics) collectReconciliationMetrics(ctx context.Context, corporationProvider CorporationProvider) {
	if bm.reconciliationProvider == nil {
		bm.logger.Debug("No reconciliation provider configured, skipping reconciliation metrics collection")
		return
	}

	corporationIDs, err := corporationProvider.GetActiveCorporationIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get corporation IDs for metrics collection", zap.Error(err))
		return
	}

	for _, corporationID := range corporationIDs {
		bm.collectCorporationMetrics(ctx, corporationID)
	}
}

// collectCorporationMetrics collects reconciliation metrics for a single corporation.
func (bm *BusinessMetrics) collectCorporationMetrics(ctx context.Context, corporationID uuid.UUID) {
	// Collect open return note count
	openCount, err := bm.reconciliationProvider.GetOpenReturnNoteCount(ctx, corporationID)
	if err != nil {
		bm.logger.Warn("Failed to get open return note count for corporation",
			zap.String("corporation_id", corporationID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOpenReturnNoteCount(ctx, corporationID, openCount)
	}

	// Collect receivable document count
	receivable, err := bm.reconciliationProvider.GetReceivableDocumentCount(ctx, corporationID)
	if err != nil {
		bm.logger.Warn("Failed to get receivable document count for corporation",
			zap.String("corporation_id", corporationID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordReceivableDocumentCount(ctx, corporationID, receivable)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	// Additional business attributes can be added here
	AttrDocumentNumber = attribute.Key("document_number")
)
