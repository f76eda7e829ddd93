package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOutboxRepo is an in-memory OutboxRepository for processor tests.
type fakeOutboxRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*shared.OutboxEntry

	deleteFn func(ctx context.Context, before time.Time) (int64, error)
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *fakeOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *fakeOutboxRepo) FindPending(_ context.Context, limit int) ([]*shared.OutboxEntry, error) {
	return r.withStatus(shared.OutboxStatusPending, limit), nil
}

func (r *fakeOutboxRepo) FindRetryable(_ context.Context, before time.Time, limit int) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusFailed && e.NextRetryAt != nil && !e.NextRetryAt.After(before) {
			due = append(due, e)
			if len(due) >= limit {
				break
			}
		}
	}
	return due, nil
}

func (r *fakeOutboxRepo) MarkProcessing(_ context.Context, ids []uuid.UUID) ([]*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed []*shared.OutboxEntry
	for _, id := range ids {
		if e, ok := r.entries[id]; ok {
			e.Status = shared.OutboxStatusProcessing
			claimed = append(claimed, e)
		}
	}
	return claimed, nil
}

func (r *fakeOutboxRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return nil
}

func (r *fakeOutboxRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, before)
	}
	return 0, nil
}

func (r *fakeOutboxRepo) FindDead(_ context.Context, _, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	dead := r.withStatus(shared.OutboxStatusDead, pageSize)
	return dead, int64(len(dead)), nil
}

func (r *fakeOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id], nil
}

func (r *fakeOutboxRepo) CountByStatus(_ context.Context) (map[shared.OutboxStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (r *fakeOutboxRepo) withStatus(status shared.OutboxStatus, limit int) []*shared.OutboxEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == status {
			matched = append(matched, e)
			if len(matched) >= limit {
				break
			}
		}
	}
	return matched
}

func (r *fakeOutboxRepo) statusOf(id uuid.UUID) shared.OutboxStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id].Status
}

func newProcessorFixture(t *testing.T) (*fakeOutboxRepo, *InMemoryEventBus, *EventSerializer) {
	t.Helper()
	serializer := NewEventSerializer()
	serializer.Register("receipt_note.posted", &stubEvent{})
	return newFakeOutboxRepo(), NewInMemoryEventBus(zap.NewNop()), serializer
}

func savePostedEntry(t *testing.T, repo *fakeOutboxRepo, serializer *EventSerializer) *shared.OutboxEntry {
	t.Helper()
	corporationID := uuid.New()
	evt := newScopedStubEvent("receipt_note.posted", corporationID)
	payload, err := serializer.Serialize(evt)
	require.NoError(t, err)
	entry := shared.NewOutboxEntry(corporationID, evt, payload)
	require.NoError(t, repo.Save(context.Background(), entry))
	return entry
}

func TestOutboxProcessor_DeliversPendingEntries(t *testing.T) {
	repo, bus, serializer := newProcessorFixture(t)

	handler := newRecordingHandler("receipt_note.posted")
	bus.Subscribe(handler, "receipt_note.posted")
	entry := savePostedEntry(t, repo, serializer)

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
	processor.drainDue(context.Background())

	assert.Len(t, handler.received(), 1)
	assert.Equal(t, shared.OutboxStatusSent, repo.statusOf(entry.ID))
}

func TestOutboxProcessor_UnknownEventTypeGoesToRetry(t *testing.T) {
	repo, bus, _ := newProcessorFixture(t)

	// A serializer without the event type registered cannot deserialize
	// the stored payload.
	empty := NewEventSerializer()
	entry := savePostedEntry(t, repo, empty)

	processor := NewOutboxProcessor(repo, bus, empty, DefaultOutboxProcessorConfig(), zap.NewNop())
	processor.drainDue(context.Background())

	assert.Equal(t, shared.OutboxStatusFailed, repo.statusOf(entry.ID))
	assert.Contains(t, repo.entries[entry.ID].LastError, "unknown event type")
}

func TestOutboxProcessor_RetriesFailedEntryWhenDue(t *testing.T) {
	repo, bus, serializer := newProcessorFixture(t)

	handler := newRecordingHandler("receipt_note.posted")
	bus.Subscribe(handler, "receipt_note.posted")

	entry := savePostedEntry(t, repo, serializer)
	entry.Status = shared.OutboxStatusFailed
	due := time.Now().Add(-time.Second)
	entry.NextRetryAt = &due

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
	processor.drainDue(context.Background())

	assert.Len(t, handler.received(), 1)
	assert.Equal(t, shared.OutboxStatusSent, repo.statusOf(entry.ID))
}

func TestOutboxProcessor_PrunesSentEntries(t *testing.T) {
	repo, bus, serializer := newProcessorFixture(t)

	var gotCutoff time.Time
	repo.deleteFn = func(_ context.Context, before time.Time) (int64, error) {
		gotCutoff = before
		return 3, nil
	}

	config := DefaultOutboxProcessorConfig()
	processor := NewOutboxProcessor(repo, bus, serializer, config, zap.NewNop())
	processor.pruneSent(context.Background())

	expected := time.Now().Add(-config.CleanupRetention)
	assert.WithinDuration(t, expected, gotCutoff, time.Second)
}

func TestOutboxProcessor_PruneErrorIsLoggedNotFatal(t *testing.T) {
	repo, bus, serializer := newProcessorFixture(t)
	repo.deleteFn = func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("table locked")
	}

	processor := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())

	assert.NotPanics(t, func() { processor.pruneSent(context.Background()) })
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	repo, bus, serializer := newProcessorFixture(t)

	handler := newRecordingHandler("receipt_note.posted")
	bus.Subscribe(handler, "receipt_note.posted")
	entry := savePostedEntry(t, repo, serializer)

	config := DefaultOutboxProcessorConfig()
	config.PollInterval = 20 * time.Millisecond
	config.CleanupEnabled = false
	processor := NewOutboxProcessor(repo, bus, serializer, config, zap.NewNop())

	require.NoError(t, processor.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return repo.statusOf(entry.ID) == shared.OutboxStatusSent
	}, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, processor.Stop(stopCtx))
}

func TestDefaultOutboxProcessorConfig(t *testing.T) {
	config := DefaultOutboxProcessorConfig()

	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 5*time.Second, config.PollInterval)
	assert.True(t, config.CleanupEnabled)
	assert.Equal(t, 7*24*time.Hour, config.CleanupRetention)
	assert.Equal(t, time.Hour, config.CleanupInterval)
}
