package store

import (
	"bytes"
	"fmt"
	"time"

	"github.com/heysubinoy/keyval/pkg/kv"
	bolt "go.etcd.io/bbolt"
)

var entriesBucket = []byte("entries")

// BoltStore keeps entries in a single Bolt bucket. Bolt allows one writer
// transaction at a time, which makes every Set an atomic replace.
type BoltStore struct {
	db *bolt.DB
}

// Compile-time check to ensure BoltStore implements kv.Store.
var _ kv.Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) the Bolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt file: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(key string) (string, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		// Seek rather than Get so an empty value is still found.
		k, v := tx.Bucket(entriesBucket).Cursor().Seek([]byte(key))
		if k != nil && bytes.Equal(k, []byte(key)) {
			value, found = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	if !found {
		return "", kv.ErrNotFound
	}
	return value, nil
}

func (s *BoltStore) Set(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

func (s *BoltStore) Count() (int64, error) {
	var n int64
	err := s.db.View(func(tx *bolt.Tx) error {
		n = int64(tx.Bucket(entriesBucket).Stats().KeyN)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count keys: %w", err)
	}
	return n, nil
}

func (s *BoltStore) SizeBytes() (int64, error) {
	var n int64
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read size: %w", err)
	}
	return n, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
