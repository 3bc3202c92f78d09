package session

import "github.com/prometheus/client_golang/prometheus"

var (
	readsDesc = prometheus.NewDesc(
		"keyval_session_reads_total",
		"Reads attempted since the process started",
		nil, nil,
	)
	writesDesc = prometheus.NewDesc(
		"keyval_session_writes_total",
		"Writes attempted since the process started",
		nil, nil,
	)
	uptimeDesc = prometheus.NewDesc(
		"keyval_session_uptime_seconds",
		"Seconds since the process started",
		nil, nil,
	)
)

// Collector exposes AtomicCounters to Prometheus. Values are read at scrape
// time, so the counters stay the single source of truth.
type Collector struct {
	counters *AtomicCounters
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(c *AtomicCounters) *Collector {
	return &Collector{counters: c}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- readsDesc
	ch <- writesDesc
	ch <- uptimeDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(readsDesc, prometheus.CounterValue, float64(c.counters.Reads()))
	ch <- prometheus.MustNewConstMetric(writesDesc, prometheus.CounterValue, float64(c.counters.Writes()))
	ch <- prometheus.MustNewConstMetric(uptimeDesc, prometheus.GaugeValue, c.counters.Uptime().Seconds())
}
