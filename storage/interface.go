package storage

import "context"

// KV abstracts durable key-value persistence for user settings.
// Implementations can be swapped for testing or different backends.
type KV interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Lifecycle
	Close() error
}

// Ensure implementations satisfy KV at compile time.
var (
	_ KV = (*MemoryKV)(nil)
	_ KV = (*SQLiteKV)(nil)
	_ KV = (*PostgresKV)(nil)
)
