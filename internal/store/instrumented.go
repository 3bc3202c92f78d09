package store

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/heysubinoy/keyval/internal/metrics"
	"github.com/heysubinoy/keyval/pkg/kv"
)

// Metrics holds timing statistics for store operations.
// Uses atomic operations for thread-safe updates without locks.
type Metrics struct {
	GetCount atomic.Uint64
	SetCount atomic.Uint64

	// Cumulative latencies in nanoseconds
	GetLatencyNs atomic.Uint64
	SetLatencyNs atomic.Uint64
}

// InstrumentedStore wraps any kv.Store implementation with timing metrics.
// When prom is set, every call is also reported to Prometheus.
type InstrumentedStore struct {
	store   kv.Store
	metrics *Metrics
	prom    *metrics.Metrics
}

// Compile-time check to ensure InstrumentedStore implements kv.Store.
var _ kv.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps a store with instrumentation. prom may be nil.
func NewInstrumentedStore(store kv.Store, prom *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{
		store:   store,
		metrics: &Metrics{},
		prom:    prom,
	}
}

// Get delegates to the wrapped store and records timing.
// A missing key is a successful lookup as far as metrics are concerned.
func (s *InstrumentedStore) Get(key string) (string, error) {
	start := time.Now()
	value, err := s.store.Get(key)
	elapsed := time.Since(start)

	s.metrics.GetCount.Add(1)
	s.metrics.GetLatencyNs.Add(uint64(elapsed.Nanoseconds()))

	observed := err
	if errors.Is(err, kv.ErrNotFound) {
		observed = nil
	}
	s.prom.ObserveStore("get", elapsed.Seconds(), observed)

	return value, err
}

// Set delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Set(key, value string) error {
	start := time.Now()
	err := s.store.Set(key, value)
	elapsed := time.Since(start)

	s.metrics.SetCount.Add(1)
	s.metrics.SetLatencyNs.Add(uint64(elapsed.Nanoseconds()))
	s.prom.ObserveStore("set", elapsed.Seconds(), err)

	return err
}

func (s *InstrumentedStore) Count() (int64, error) {
	start := time.Now()
	n, err := s.store.Count()
	s.prom.ObserveStore("count", time.Since(start).Seconds(), err)
	return n, err
}

func (s *InstrumentedStore) SizeBytes() (int64, error) {
	start := time.Now()
	n, err := s.store.SizeBytes()
	s.prom.ObserveStore("size", time.Since(start).Seconds(), err)
	return n, err
}

func (s *InstrumentedStore) Close() error {
	return s.store.Close()
}

// GetMetrics returns a snapshot of current metrics.
func (s *InstrumentedStore) GetMetrics() MetricsSnapshot {
	getCount := s.metrics.GetCount.Load()
	setCount := s.metrics.SetCount.Load()

	return MetricsSnapshot{
		GetCount:      getCount,
		SetCount:      setCount,
		GetAvgLatency: avgLatency(s.metrics.GetLatencyNs.Load(), getCount),
		SetAvgLatency: avgLatency(s.metrics.SetLatencyNs.Load(), setCount),
	}
}

func avgLatency(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	GetCount      uint64
	SetCount      uint64
	GetAvgLatency time.Duration
	SetAvgLatency time.Duration
}
