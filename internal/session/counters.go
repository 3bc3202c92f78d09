// Package session tracks what the server has done since it started.
// Nothing here is persisted; a restart resets every counter.
package session

import (
	"sync/atomic"
	"time"
)

// Counters is the set of per-process read/write tallies shared by every
// request handler.
type Counters interface {
	IncrementReads()
	IncrementWrites()
	Reads() uint64
	Writes() uint64
}

// AtomicCounters implements Counters with lock-free atomic adds.
type AtomicCounters struct {
	reads     atomic.Uint64
	writes    atomic.Uint64
	startedAt time.Time
}

var _ Counters = (*AtomicCounters)(nil)

// NewAtomicCounters returns zeroed counters stamped with the current time.
func NewAtomicCounters() *AtomicCounters {
	return &AtomicCounters{startedAt: time.Now().UTC()}
}

func (c *AtomicCounters) IncrementReads()  { c.reads.Add(1) }
func (c *AtomicCounters) IncrementWrites() { c.writes.Add(1) }
func (c *AtomicCounters) Reads() uint64    { return c.reads.Load() }
func (c *AtomicCounters) Writes() uint64   { return c.writes.Load() }

// StartedAt is the UTC time the counters were created.
func (c *AtomicCounters) StartedAt() time.Time { return c.startedAt }

// Uptime is the time elapsed since StartedAt.
func (c *AtomicCounters) Uptime() time.Duration { return time.Since(c.startedAt) }
