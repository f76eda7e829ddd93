package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewBusinessMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_RecordDocumentCreated(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	corporationID := uuid.New()

	// Should not panic
	bm.RecordDocumentCreated(ctx, corporationID, telemetry.DocumentKindPurchaseOrder)
	bm.RecordDocumentCreated(ctx, corporationID, telemetry.DocumentKindChangeOrder)
}

func TestBusinessMetrics_RecordDocumentAmount(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	corporationID := uuid.New()

	// Should not panic
	bm.RecordDocumentAmount(ctx, corporationID, telemetry.DocumentKindPurchaseOrder, 10000) // 100.00
	bm.RecordDocumentAmount(ctx, corporationID, telemetry.DocumentKindChangeOrder, 50000)
}

func TestBusinessMetrics_RecordDocumentWithAmount(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	corporationID := uuid.New()
	amount := decimal.NewFromFloat(199.99)

	// Should not panic and record both count and amount
	bm.RecordDocumentWithAmount(ctx, corporationID, telemetry.DocumentKindPurchaseOrder, amount)
}

func TestBusinessMetrics_RecordReceiptSave(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	corporationID := uuid.New()

	// Should not panic
	bm.RecordReceiptSave(ctx, corporationID, "DONE")
	bm.RecordReceiptSave(ctx, corporationID, "ERROR")
}

func TestBusinessMetrics_RecordShortfalls(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	corporationID := uuid.New()

	// Should not panic; non-positive counts are ignored
	bm.RecordShortfalls(ctx, corporationID, 3)
	bm.RecordShortfalls(ctx, corporationID, 0)
	bm.RecordShortfalls(ctx, corporationID, -1)
}

func TestBusinessMetrics_RecordReturnNoteRaised(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	corporationID := uuid.New()

	// Should not panic
	bm.RecordReturnNoteRaised(ctx, corporationID, "RAISE_RETURN_NOTE")
}

func TestBusinessMetrics_RecordOpenReturnNoteCount(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	corporationID := uuid.New()

	// Should not panic
	bm.RecordOpenReturnNoteCount(ctx, corporationID, 5)
	bm.RecordOpenReturnNoteCount(ctx, corporationID, 0)
}

// Mock implementations for testing periodic collection

type mockCorporationProvider struct {
	corporationIDs []uuid.UUID
	err            error
}

func (m *mockCorporationProvider) GetActiveCorporationIDs(ctx context.Context) ([]uuid.UUID, error) {
	return m.corporationIDs, m.err
}

type mockReconciliationProvider struct {
	openReturnNotes int64
	receivableDocs  int64
	err             error
}

func (m *mockReconciliationProvider) GetOpenReturnNoteCount(ctx context.Context, corporationID uuid.UUID) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.openReturnNotes, nil
}

func (m *mockReconciliationProvider) GetReceivableDocumentCount(ctx context.Context, corporationID uuid.UUID) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.receivableDocs, nil
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	corporationID := uuid.New()

	reconciliationProvider := &mockReconciliationProvider{
		openReturnNotes: 2,
		receivableDocs:  7,
	}

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:                  meter,
		Logger:                 zap.NewNop(),
		ReconciliationProvider: reconciliationProvider,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corporationProvider := &mockCorporationProvider{
		corporationIDs: []uuid.UUID{corporationID},
	}

	// Start periodic collection with short interval for testing
	bm.StartPeriodicCollection(ctx, corporationProvider, 100*time.Millisecond)

	// Wait for at least one collection cycle
	time.Sleep(150 * time.Millisecond)

	// Stop collection
	bm.Stop()

	// Should complete without error
}

func TestBusinessMetrics_PeriodicCollection_NoProvider(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
		// No reconciliation provider
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corporationProvider := &mockCorporationProvider{
		corporationIDs: []uuid.UUID{uuid.New()},
	}

	// Should not panic with no reconciliation provider
	bm.StartPeriodicCollection(ctx, corporationProvider, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	bm.Stop()
}

func TestBusinessMetrics_Stop_Idempotent(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	// Calling Stop multiple times should not panic
	bm.Stop()
	bm.Stop()
	bm.Stop()
}

func TestBusinessMetrics_StartPeriodicCollection_OnlyOnce(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	corporationProvider := &mockCorporationProvider{
		corporationIDs: []uuid.UUID{},
	}

	// Calling StartPeriodicCollection multiple times should only start once
	bm.StartPeriodicCollection(ctx, corporationProvider, time.Hour)
	bm.StartPeriodicCollection(ctx, corporationProvider, time.Minute)
	bm.StartPeriodicCollection(ctx, corporationProvider, time.Second)

	bm.Stop()
}

func TestDocumentKind_Values(t *testing.T) {
	assert.Equal(t, telemetry.DocumentKind("PURCHASE_ORDER"), telemetry.DocumentKindPurchaseOrder)
	assert.Equal(t, telemetry.DocumentKind("CHANGE_ORDER"), telemetry.DocumentKindChangeOrder)
}

func TestMetricsError_Error(t *testing.T) {
	err := &telemetry.MetricsError{
		Op:  "TestOperation",
		Err: "test error message",
	}

	assert.Equal(t, "TestOperation: test error message", err.Error())
}
