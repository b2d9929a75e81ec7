// Package metrics adapts the logger's plain string-keyed counter map
// onto prometheus.Collector, for scraping over /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Source is the logger's metrics surface: a snapshot of every counter
// at the moment of a scrape. *logger.Logger satisfies this via its
// AllMetrics method.
type Source interface {
	AllMetrics() map[string]uint64
}

// names lists every counter key exposed by Source.AllMetrics, fixing
// both the metric name and whether it is rendered as a counter or a
// gauge. circularBufferEventsSize is the one current-size reading in
// the set; every other key is monotonically non-decreasing.
var names = []struct {
	key   string
	name  string
	help  string
	gauge bool
}{
	{"memoryCopyCount", "eventlog_memory_copy_total", "Number of drain cycles that copied events into the in-memory store.", false},
	{"diskCopyCount", "eventlog_disk_copy_total", "Number of drain cycles that copied events into the on-disk store.", false},
	{"getAllEventsCallsCount", "eventlog_get_all_events_calls_total", "Number of get-all-events calls served.", false},
	{"getAllEventsEventsCount", "eventlog_get_all_events_events_total", "Number of events returned across all get-all-events calls.", false},
	{"totalMemoryCopyTimeMicros", "eventlog_memory_copy_time_micros_total", "Cumulative time spent copying events into the in-memory store.", false},
	{"totalDiskCopyTimeMicros", "eventlog_disk_copy_time_micros_total", "Cumulative time spent copying events into the on-disk store.", false},
	{"totalGetAllEventsDiskCopyTimeMicros", "eventlog_get_all_events_disk_copy_time_micros_total", "Cumulative time spent serving get-all-events calls.", false},
	{"totalEventsCopiedToMemory", "eventlog_events_copied_to_memory_total", "Cumulative number of events copied into the in-memory store.", false},
	{"totalEventsCopiedToDisk", "eventlog_events_copied_to_disk_total", "Cumulative number of events copied into the on-disk store.", false},
	{"circularBufferEventsAddedCount", "eventlog_buffer_events_added_total", "Cumulative number of events pushed into the circular buffer.", false},
	{"circularBufferEventsDroppedCount", "eventlog_buffer_events_dropped_total", "Cumulative number of events dropped from the circular buffer on overflow.", false},
	{"circularBufferEventsSize", "eventlog_buffer_events_size", "Current number of events held in the circular buffer.", true},
}

// Collector implements prometheus.Collector by re-reading src on every
// scrape, rather than caching: the underlying counters are already
// atomics cheap to read, so there is no benefit to a caching layer
// Prometheus's own scrape interval already amortizes.
type Collector struct {
	src   Source
	descs map[string]*prometheus.Desc
}

// NewCollector returns a Collector that reads src on each scrape.
func NewCollector(src Source) *Collector {
	c := &Collector{src: src, descs: make(map[string]*prometheus.Desc, len(names))}
	for _, n := range names {
		c.descs[n.key] = prometheus.NewDesc(n.name, n.help, nil, nil)
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.src.AllMetrics()
	for _, n := range names {
		v, ok := snapshot[n.key]
		if !ok {
			continue
		}
		valueType := prometheus.CounterValue
		if n.gauge {
			valueType = prometheus.GaugeValue
		}
		ch <- prometheus.MustNewConstMetric(c.descs[n.key], valueType, float64(v))
	}
}
