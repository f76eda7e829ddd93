package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_TypedSubscription(t *testing.T) {
	registry := NewHandlerRegistry()

	posted := newRecordingHandler("receipt_note.posted")
	saved := newRecordingHandler("ordering_document.saved")
	registry.Register(posted, "receipt_note.posted")
	registry.Register(saved, "ordering_document.saved")

	handlers := registry.GetHandlers("receipt_note.posted")
	assert.Len(t, handlers, 1)
	assert.Same(t, posted, handlers[0].(*recordingHandler))

	assert.Empty(t, registry.GetHandlers("return_note.reconciled"))
}

func TestHandlerRegistry_MultipleTypesOneHandler(t *testing.T) {
	registry := NewHandlerRegistry()

	handler := newRecordingHandler()
	registry.Register(handler, "receipt_note.posted", "receipt_note.voided")

	assert.Len(t, registry.GetHandlers("receipt_note.posted"), 1)
	assert.Len(t, registry.GetHandlers("receipt_note.voided"), 1)
}

func TestHandlerRegistry_WildcardSeesEverything(t *testing.T) {
	registry := NewHandlerRegistry()

	audit := newRecordingHandler()
	typed := newRecordingHandler("receipt_note.posted")
	registry.Register(audit)
	registry.Register(typed, "receipt_note.posted")

	assert.Len(t, registry.GetHandlers("receipt_note.posted"), 2)
	assert.Len(t, registry.GetHandlers("return_note.reconciled"), 1)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()

	handler := newRecordingHandler()
	registry.Register(handler, "receipt_note.posted", "receipt_note.voided")
	registry.Register(handler)

	registry.Unregister(handler)

	assert.Empty(t, registry.GetHandlers("receipt_note.posted"))
	assert.Empty(t, registry.GetHandlers("receipt_note.voided"))
}

func TestHandlerRegistry_UnregisterKeepsOtherHandlers(t *testing.T) {
	registry := NewHandlerRegistry()

	going := newRecordingHandler("receipt_note.posted")
	staying := newRecordingHandler("receipt_note.posted")
	registry.Register(going, "receipt_note.posted")
	registry.Register(staying, "receipt_note.posted")

	registry.Unregister(going)

	handlers := registry.GetHandlers("receipt_note.posted")
	assert.Len(t, handlers, 1)
	assert.Same(t, staying, handlers[0].(*recordingHandler))
}
