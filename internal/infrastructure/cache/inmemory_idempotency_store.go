package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/procurement/internal/domain/shared"
)

const defaultIdempotencySweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore tracks processed event IDs in a local map.
// State is per process, so it only suits single-instance deployments
// and tests. A background sweeper evicts expired marks.
type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	marks   map[string]time.Time
	done    chan struct{}
	sweeper sync.WaitGroup
	once    sync.Once
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		marks: make(map[string]time.Time),
		done:  make(chan struct{}),
	}
	s.sweeper.Add(1)
	go s.sweepLoop(defaultIdempotencySweepInterval)
	return s
}

// MarkProcessed records eventID for ttl. It returns false when a live
// mark already exists, meaning the event was seen before.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if until, ok := s.marks[eventID]; ok && now.Before(until) {
		return false, nil
	}
	s.marks[eventID] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether a live mark exists for eventID. Expired
// marks count as unseen.
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, ok := s.marks[eventID]
	return ok && time.Now().Before(until), nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.sweeper.Wait()
	})
	return nil
}

// Size reports the number of marks, expired ones included until the
// next sweep.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.marks)
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer s.sweeper.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for eventID, until := range s.marks {
		if now.After(until) {
			delete(s.marks, eventID)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
