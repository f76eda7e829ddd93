package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_Register(t *testing.T) {
	serializer := NewEventSerializer()

	serializer.Register("receipt_note.posted", &stubEvent{})

	assert.True(t, serializer.IsRegistered("receipt_note.posted"))
	assert.False(t, serializer.IsRegistered("receipt_note.voided"))
}

func TestEventSerializer_RegisteredTypes(t *testing.T) {
	serializer := NewEventSerializer()

	serializer.Register("receipt_note.posted", &stubEvent{})
	serializer.Register("ordering_document.saved", &stubEvent{})

	assert.Equal(t, []string{"ordering_document.saved", "receipt_note.posted"}, serializer.RegisteredTypes())
}

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("receipt_note.posted", &stubEvent{})

	corporationID := uuid.New()
	original := newScopedStubEvent("receipt_note.posted", corporationID)

	payload, err := serializer.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"note":"GRN-2024-001"`)

	restored, err := serializer.Deserialize("receipt_note.posted", payload)
	require.NoError(t, err)

	evt, ok := restored.(*stubEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), evt.EventID())
	assert.Equal(t, original.AggregateID(), evt.AggregateID())
	assert.Equal(t, original.AggregateType(), evt.AggregateType())
	assert.Equal(t, corporationID, evt.CorporationID())
	assert.Equal(t, original.Note, evt.Note)
}

func TestEventSerializer_Deserialize_UnknownType(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize("receipt_note.voided", []byte(`{}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_Deserialize_InvalidPayload(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("receipt_note.posted", &stubEvent{})

	_, err := serializer.Deserialize("receipt_note.posted", []byte(`{not json`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestEventSerializer_ReRegisterReplacesFactory(t *testing.T) {
	serializer := NewEventSerializer()

	serializer.Register("receipt_note.posted", &stubEvent{})
	serializer.Register("receipt_note.posted", &stubEvent{})

	assert.Len(t, serializer.RegisteredTypes(), 1)
}
