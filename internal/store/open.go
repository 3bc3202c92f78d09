package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/heysubinoy/keyval/pkg/kv"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Open returns the store for the named backend, creating the parent
// directory of path when the backend lives on disk. An empty backend
// selects SQLite.
func Open(backend, path string) (kv.Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemStore(), nil
	case "", BackendSQLite, BackendBolt:
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}

	if path == "" {
		return nil, fmt.Errorf("data path is required for backend %q", backend)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if backend == BackendBolt {
		return NewBoltStore(path)
	}
	return NewSQLiteStore(path)
}
