package db

import (
	"context"
	"time"
)

// Store is the Redis facade used by the preference reader and the
// analytics sink.
type Store interface {
	Pinger
	KVStore
	StreamStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value reads.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// StreamEntry is one stream record. Fields keep insertion order.
type StreamEntry struct {
	Stream string
	MaxLen int64 // approximate cap, 0 means untrimmed
	Fields [][2]string
}

// StreamStore appends records to streams.
type StreamStore interface {
	XAdd(ctx context.Context, e StreamEntry) (string, error)
}
