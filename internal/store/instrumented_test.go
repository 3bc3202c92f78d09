package store_test

import (
	"errors"
	"testing"

	"github.com/heysubinoy/keyval/internal/metrics"
	"github.com/heysubinoy/keyval/internal/store"
	"github.com/heysubinoy/keyval/pkg/kv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenStore fails every write.
type brokenStore struct {
	*store.MemStore
}

func (brokenStore) Set(string, string) error { return errors.New("disk on fire") }

func TestInstrumentedStore_CountsOperations(t *testing.T) {
	s := store.NewInstrumentedStore(store.NewMemStore(), nil)

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "2"))
	_, err := s.Get("a")
	require.NoError(t, err)
	_, err = s.Get("missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	m := s.GetMetrics()
	assert.Equal(t, uint64(2), m.GetCount)
	assert.Equal(t, uint64(2), m.SetCount)
}

func TestInstrumentedStore_NoOperations(t *testing.T) {
	s := store.NewInstrumentedStore(store.NewMemStore(), nil)

	m := s.GetMetrics()
	assert.Zero(t, m.GetCount)
	assert.Zero(t, m.SetCount)
	assert.Zero(t, m.GetAvgLatency)
	assert.Zero(t, m.SetAvgLatency)
}

func TestInstrumentedStore_Prometheus(t *testing.T) {
	prom := metrics.New(prometheus.NewRegistry())
	s := store.NewInstrumentedStore(brokenStore{store.NewMemStore()}, prom)

	assert.Error(t, s.Set("a", "1"))
	_, err := s.Get("a")
	assert.ErrorIs(t, err, kv.ErrNotFound)
	_, err = s.Count()
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(prom.StoreOperations.WithLabelValues("set", "error")))
	// A miss is still a successful lookup.
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.StoreOperations.WithLabelValues("get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.StoreOperations.WithLabelValues("count", "ok")))
}
