package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelFromCtx reads a pprof label inside a WithProfilingLabels callback.
func labelFromCtx(ctx context.Context, key string) (string, bool) {
	return pprof.Label(ctx, key)
}

func TestWithProfilingLabels_AttachesLabels(t *testing.T) {
	labels := map[string]string{
		ProfilingLabelController: "ReceiptNoteHandler",
		ProfilingLabelMethod:     "POST",
		ProfilingLabelRoute:      "/api/v1/receipt-notes",
	}

	called := false
	WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
		called = true
		controller, ok := labelFromCtx(ctx, ProfilingLabelController)
		require.True(t, ok)
		assert.Equal(t, "ReceiptNoteHandler", controller)

		method, _ := labelFromCtx(ctx, ProfilingLabelMethod)
		assert.Equal(t, "POST", method)
	})
	assert.True(t, called)
}

func TestWithProfilingLabels_NoLabelsStillRunsFn(t *testing.T) {
	for _, labels := range []map[string]string{nil, {}} {
		called := false
		WithProfilingLabels(context.Background(), labels, func(context.Context) {
			called = true
		})
		assert.True(t, called)
	}
}

func TestWithProfilingLabels_DropsHighCardinalityKeys(t *testing.T) {
	labels := map[string]string{
		"document_id":           "b1c2d3",
		"request_id":            "req-42",
		ProfilingLabelRoute:     "/api/v1/ordering-documents",
		ProfilingLabelOperation: "save",
	}

	WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
		_, ok := labelFromCtx(ctx, "document_id")
		assert.False(t, ok, "document_id is per-document and must not be attached")
		_, ok = labelFromCtx(ctx, "request_id")
		assert.False(t, ok)

		route, ok := labelFromCtx(ctx, ProfilingLabelRoute)
		require.True(t, ok)
		assert.Equal(t, "/api/v1/ordering-documents", route)
	})
}

func TestWithProfilingLabels_NestedScopesMerge(t *testing.T) {
	outer := map[string]string{ProfilingLabelController: "OrderingDocumentHandler"}
	inner := map[string]string{ProfilingLabelOperation: "reconcile"}

	WithProfilingLabels(context.Background(), outer, func(ctx context.Context) {
		WithProfilingLabels(ctx, inner, func(ctx context.Context) {
			controller, ok := labelFromCtx(ctx, ProfilingLabelController)
			require.True(t, ok, "outer labels survive nesting")
			assert.Equal(t, "OrderingDocumentHandler", controller)

			op, ok := labelFromCtx(ctx, ProfilingLabelOperation)
			require.True(t, ok)
			assert.Equal(t, "reconcile", op)
		})
	})
}

func TestWithProfilingLabels_DoesNotMutateInput(t *testing.T) {
	labels := map[string]string{"Corporation-ID": "acme"}

	WithProfilingLabels(context.Background(), labels, func(context.Context) {})

	assert.Equal(t, map[string]string{"Corporation-ID": "acme"}, labels)
}

func TestSanitizeLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
		want   []string
	}{
		{
			name:   "empty map",
			labels: map[string]string{},
			want:   nil,
		},
		{
			name:   "empty key and value skipped",
			labels: map[string]string{"": "x", "status": ""},
			want:   []string{},
		},
		{
			name: "deterministic key order",
			labels: map[string]string{
				"route":  "/api/v1/return-notes",
				"method": "PUT",
			},
			want: []string{"method", "PUT", "route", "/api/v1/return-notes"},
		},
		{
			name:   "high cardinality dropped",
			labels: map[string]string{"trace_id": "abc", "operation": "post"},
			want:   []string{"operation", "post"},
		},
		{
			name:   "key normalized to snake case",
			labels: map[string]string{"Supplier Code": "SUP-01"},
			want:   []string{"supplier_code", "SUP-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeLabels(tt.labels))
		})
	}
}

func TestSanitizeLabels_TruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", MaxLabelValueLength+50)

	pairs := sanitizeLabels(map[string]string{"note": long})

	require.Len(t, pairs, 2)
	assert.Len(t, pairs[1], MaxLabelValueLength)
}

func TestSanitizeLabelKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"controller", "controller"},
		{"Corporation-ID", "corporation_id"},
		{"http method", "http_method"},
		{"ROUTE", "route"},
		{"v2", "v2"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeLabelKey(tt.in), "key %q", tt.in)
	}
}

func TestProfilingLabelConstants(t *testing.T) {
	// These names show up in stored profiles; renaming them breaks saved
	// Pyroscope queries.
	assert.Equal(t, "controller", ProfilingLabelController)
	assert.Equal(t, "route", ProfilingLabelRoute)
	assert.Equal(t, "method", ProfilingLabelMethod)
	assert.Equal(t, "corporation_id", ProfilingLabelCorporationID)
	assert.Equal(t, "operation", ProfilingLabelOperation)
}
