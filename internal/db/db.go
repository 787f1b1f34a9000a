package db

import (
	"context"
	"time"
)

// Store is the key-value facade used by the Redis page cache driver.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides write-once key-value operations.
type KVStore interface {
	// Get returns ErrKeyNotFound when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetNX stores value only if key is absent; otherwise it returns ErrKeyExists.
	SetNX(ctx context.Context, key string, value []byte) error
}
