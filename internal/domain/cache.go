package domain

import (
	"context"
	"time"
)

// GroupCache holds a short-lived snapshot of the reconciled group list so the
// API can serve a warm view while a fresh chain read is in flight.
type GroupCache interface {
	SetSnapshot(ctx context.Context, groups []Group) error
	GetSnapshot(ctx context.Context) ([]Group, error)
	Invalidate(ctx context.Context) error
}

// BalanceCache holds per-wallet token balances with a TTL.
type BalanceCache interface {
	Set(ctx context.Context, wallet, balance string, ttl time.Duration) error
	Get(ctx context.Context, wallet string) (string, error)
}

// SignalBus carries group and winner updates: ephemeral pub/sub for
// connected clients plus a durable, trimmed stream for consumers that must
// not miss a draw.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// StreamMessage is one durable entry read back from an event stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// LockManager provides distributed locks so only one instance runs a given
// background job at a time.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter bounds how often a keyed action may run.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
