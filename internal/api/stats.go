package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keyval/internal/session"
	"github.com/heysubinoy/keyval/internal/store"
	"github.com/heysubinoy/keyval/pkg/kv"
)

// Stats is the server information served at /stats and over gRPC.
type Stats struct {
	Keys        int64         `json:"keys"`
	Reads       uint64        `json:"reads"`
	Writes      uint64        `json:"writes"`
	StartedAt   time.Time     `json:"started_at,omitzero"`
	UptimeHours float64       `json:"uptime_hours"`
	SizeBytes   int64         `json:"size_bytes"`
	Size        string        `json:"size"`
	AvgLatency  *LatencyStats `json:"avg_latency,omitempty"`
}

// LatencyStats is present when the store is instrumented.
type LatencyStats struct {
	Get string `json:"get"`
	Set string `json:"set"`
}

// startTimer is satisfied by counters that know when the process started.
type startTimer interface {
	StartedAt() time.Time
}

// instrumented is satisfied by store.InstrumentedStore.
type instrumented interface {
	GetMetrics() store.MetricsSnapshot
}

// CollectStats never fails: a key count that cannot be read is reported
// as -1 and an unreadable size as 0.
func CollectStats(kvs kv.Store, counters session.Counters, logger hclog.Logger) Stats {
	st := Stats{
		Reads:  counters.Reads(),
		Writes: counters.Writes(),
	}

	keys, err := kvs.Count()
	if err != nil {
		logger.Warn("failed to count keys", "error", err)
		keys = -1
	}
	st.Keys = keys

	size, err := kvs.SizeBytes()
	if err != nil {
		logger.Warn("failed to read store size", "error", err)
		size = 0
	}
	st.SizeBytes = size
	st.Size = humanize.IBytes(uint64(size))

	if t, ok := counters.(startTimer); ok {
		st.StartedAt = t.StartedAt()
		st.UptimeHours = time.Since(st.StartedAt).Hours()
	}
	if is, ok := kvs.(instrumented); ok {
		m := is.GetMetrics()
		st.AvgLatency = &LatencyStats{
			Get: m.GetAvgLatency.String(),
			Set: m.SetAvgLatency.String(),
		}
	}
	return st
}

// handleStats returns current server stats as JSON.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CollectStats(s.Store, s.Counters, s.Logger))
}
