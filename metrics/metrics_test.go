package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/mickamy/query-eventlog/metrics"
)

type fakeSource struct {
	m map[string]uint64
}

func (f fakeSource) AllMetrics() map[string]uint64 { return f.m }

func TestCollectorExportsAllCounters(t *testing.T) {
	t.Parallel()

	src := fakeSource{m: map[string]uint64{
		"memoryCopyCount":                     1,
		"diskCopyCount":                       2,
		"getAllEventsCallsCount":              3,
		"getAllEventsEventsCount":             4,
		"totalMemoryCopyTimeMicros":           5,
		"totalDiskCopyTimeMicros":             6,
		"totalGetAllEventsDiskCopyTimeMicros": 7,
		"totalEventsCopiedToMemory":           8,
		"totalEventsCopiedToDisk":             9,
		"circularBufferEventsAddedCount":      10,
		"circularBufferEventsDroppedCount":    11,
		"circularBufferEventsSize":            12,
	}}

	c := metrics.NewCollector(src)
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(mfs) != 12 {
		t.Fatalf("len(mfs) = %d, want 12", len(mfs))
	}

	for _, mf := range mfs {
		if mf.GetName() != "eventlog_buffer_events_size" {
			continue
		}
		if mf.GetType() != dto.MetricType_GAUGE {
			t.Errorf("eventlog_buffer_events_size type = %v, want GAUGE", mf.GetType())
		}
		if got := mf.Metric[0].GetGauge().GetValue(); got != 12 {
			t.Errorf("eventlog_buffer_events_size value = %v, want 12", got)
		}
	}
}
