package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotencyStore(t *testing.T) *InMemoryIdempotencyStore {
	t.Helper()
	store := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInMemoryIdempotencyStore_FirstMarkWins(t *testing.T) {
	store := newIdempotencyStore(t)
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "evt-receipt-posted-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(ctx, "evt-receipt-posted-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, fresh, "second mark of the same event is a duplicate")
}

func TestInMemoryIdempotencyStore_ExpiredMarkIsReusable(t *testing.T) {
	store := newIdempotencyStore(t)
	ctx := context.Background()

	fresh, err := store.MarkProcessed(ctx, "evt-doc-saved-1", time.Nanosecond)
	require.NoError(t, err)
	require.True(t, fresh)

	time.Sleep(2 * time.Millisecond)

	seen, err := store.IsProcessed(ctx, "evt-doc-saved-1")
	require.NoError(t, err)
	assert.False(t, seen, "expired mark counts as unseen")

	fresh, err = store.MarkProcessed(ctx, "evt-doc-saved-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh, "expired mark can be claimed again")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := newIdempotencyStore(t)
	ctx := context.Background()

	seen, err := store.IsProcessed(ctx, "evt-unknown")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = store.MarkProcessed(ctx, "evt-return-reconciled-1", time.Minute)
	require.NoError(t, err)

	seen, err = store.IsProcessed(ctx, "evt-return-reconciled-1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestInMemoryIdempotencyStore_SweepEvictsExpiredMarks(t *testing.T) {
	store := newIdempotencyStore(t)
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "evt-live", time.Hour)
	require.NoError(t, err)
	_, err = store.MarkProcessed(ctx, "evt-stale", time.Nanosecond)
	require.NoError(t, err)
	require.Equal(t, 2, store.Size())

	store.sweep(time.Now().Add(time.Millisecond))

	assert.Equal(t, 1, store.Size())
	seen, err := store.IsProcessed(ctx, "evt-live")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	for range 3 {
		assert.NoError(t, store.Close())
	}
}

func TestInMemoryIdempotencyStore_ConcurrentMarksSingleWinner(t *testing.T) {
	store := newIdempotencyStore(t)
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	var winners atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, err := store.MarkProcessed(ctx, "evt-contended", time.Minute)
			assert.NoError(t, err)
			if fresh {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load(), "exactly one goroutine claims the event")
}

func TestInMemoryIdempotencyStore_SizeTracksDistinctEvents(t *testing.T) {
	store := newIdempotencyStore(t)
	ctx := context.Background()

	for i := range 5 {
		_, err := store.MarkProcessed(ctx, fmt.Sprintf("evt-%d", i), time.Minute)
		require.NoError(t, err)
	}
	// Re-marking an existing event does not grow the store.
	_, err := store.MarkProcessed(ctx, "evt-0", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 5, store.Size())
}
