package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newGormTestLogger(level gormlogger.LogLevel, cfg GormLoggerConfig) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLoggerWithConfig(zap.New(core), level, cfg), logs
}

func traceQuery(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Defaults(t *testing.T) {
	cfg := DefaultGormLoggerConfig()

	assert.Equal(t, 200*time.Millisecond, cfg.SlowThreshold)
	assert.True(t, cfg.SkipRecordNotFound)
}

func TestGormLogger_LogMode(t *testing.T) {
	base, logs := newGormTestLogger(gormlogger.Silent, DefaultGormLoggerConfig())

	raised := base.LogMode(gormlogger.Info)
	raised.Info(context.Background(), "loaded %d fulfillment rows", 3)

	// The original stays silent after LogMode returns a copy.
	base.Info(context.Background(), "must not appear")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "loaded 3 fulfillment rows", entries[0].Message)
}

func TestGormLogger_Trace_Query(t *testing.T) {
	log, logs := newGormTestLogger(gormlogger.Info, DefaultGormLoggerConfig())

	log.Trace(context.Background(), time.Now(), traceQuery("SELECT * FROM receipt_notes", 4), nil)

	entries := logs.FilterMessage("SQL Query").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "SELECT * FROM receipt_notes", fields["sql"])
	assert.Equal(t, int64(4), fields["rows"])
}

func TestGormLogger_Trace_Silent(t *testing.T) {
	log, logs := newGormTestLogger(gormlogger.Silent, DefaultGormLoggerConfig())

	log.Trace(context.Background(), time.Now(), traceQuery("SELECT 1", 1), nil)

	assert.Empty(t, logs.All())
}

func TestGormLogger_Trace_Error(t *testing.T) {
	log, logs := newGormTestLogger(gormlogger.Error, DefaultGormLoggerConfig())

	log.Trace(context.Background(), time.Now(),
		traceQuery("INSERT INTO return_note_items", 0), errors.New("duplicate key"))

	entries := logs.FilterMessage("SQL Error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestGormLogger_Trace_RecordNotFound(t *testing.T) {
	t.Run("skipped by default", func(t *testing.T) {
		log, logs := newGormTestLogger(gormlogger.Error, DefaultGormLoggerConfig())

		log.Trace(context.Background(), time.Now(),
			traceQuery("SELECT * FROM ordering_documents WHERE id = ?", 0),
			gormlogger.ErrRecordNotFound)

		assert.Empty(t, logs.All())
	})

	t.Run("logged when configured", func(t *testing.T) {
		cfg := DefaultGormLoggerConfig()
		cfg.SkipRecordNotFound = false
		log, logs := newGormTestLogger(gormlogger.Error, cfg)

		log.Trace(context.Background(), time.Now(),
			traceQuery("SELECT * FROM ordering_documents WHERE id = ?", 0),
			gormlogger.ErrRecordNotFound)

		assert.Len(t, logs.FilterMessage("SQL Error").All(), 1)
	})
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	cfg := GormLoggerConfig{SlowThreshold: time.Nanosecond, SkipRecordNotFound: true}
	log, logs := newGormTestLogger(gormlogger.Warn, cfg)

	begin := time.Now().Add(-time.Millisecond)
	log.Trace(context.Background(), begin, traceQuery("SELECT * FROM fulfillment_ledger", 900), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "SLOW SQL")
}

func TestGormLogger_Trace_CarriesRequestID(t *testing.T) {
	log, logs := newGormTestLogger(gormlogger.Info, DefaultGormLoggerConfig())

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-77")
	log.Trace(ctx, time.Now(), traceQuery("SELECT 1", 1), nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-77", entries[0].ContextMap()["request_id"])
}

func TestGormLogger_Levels(t *testing.T) {
	log, logs := newGormTestLogger(gormlogger.Warn, DefaultGormLoggerConfig())

	log.Info(context.Background(), "suppressed at warn level")
	log.Warn(context.Background(), "callback replaced %q", "gorm:create")
	log.Error(context.Background(), "migration failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, `callback replaced "gorm:create"`, entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MapGormLogLevel(tt.input))
		})
	}
}
