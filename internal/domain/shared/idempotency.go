package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which event IDs a handler already consumed.
// The outbox redelivers on retry, so handlers with side effects sit
// behind one of these.
type IdempotencyStore interface {
	// MarkProcessed claims eventID for ttl. False means another delivery
	// already claimed it.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether eventID holds a live claim.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	Close() error
}

// IdempotencyConfig tunes duplicate suppression per handler.
type IdempotencyConfig struct {
	// TTL bounds how long a processed event ID is remembered. After it
	// passes, a redelivery of the same event runs again.
	TTL time.Duration

	// Enabled short-circuits the whole check when false.
	Enabled bool
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}
