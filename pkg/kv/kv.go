package kv

import "errors"

// MaxValueBytes is the largest value a single key may hold (1 MiB).
const MaxValueBytes = 1 << 20

// ErrNotFound is returned by Store.Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// Store defines the interface for a persistent key-value store.
// Implementations of this interface can be swapped out,
// allowing for different storage backends (e.g., SQLite, Bolt, in-memory).
type Store interface {
	// Get retrieves the value associated with the given key.
	// Returns ErrNotFound if the key has never been written.
	Get(key string) (string, error)

	// Set inserts or replaces the value for key.
	// Concurrent readers observe either the old or the new value.
	Set(key, value string) error

	// Count returns the number of distinct keys.
	Count() (int64, error)

	// SizeBytes returns the size of the store on disk.
	SizeBytes() (int64, error)

	// Close releases the underlying resources.
	Close() error
}
