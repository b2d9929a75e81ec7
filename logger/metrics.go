package logger

import "sync/atomic"

// Metrics holds the subsystem's counters, each independently
// atomic so producers and the drain goroutine never need a shared lock
// purely to bump a counter.
type Metrics struct {
	memoryCopyCount    atomic.Uint64
	diskCopyCount      atomic.Uint64
	getAllEventsCalls  atomic.Uint64
	getAllEventsEvents atomic.Uint64

	totalMemoryCopyTimeMicros            atomic.Uint64
	totalDiskCopyTimeMicros              atomic.Uint64
	totalGetAllEventsDiskCopyTimeMicros  atomic.Uint64
	totalEventsCopiedToMemory            atomic.Uint64
	totalEventsCopiedToDisk              atomic.Uint64
}

// Snapshot returns the current value of every counter as a plain
// string-keyed map, matching the host-facing all_metrics() surface.
// circularBufferEvents{Added,Dropped}Count and circularBufferEventsSize
// are supplied by the caller (Logger.AllMetrics), since those three
// live on the buffer, not here.
func (m *Metrics) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"memoryCopyCount":                     m.memoryCopyCount.Load(),
		"diskCopyCount":                       m.diskCopyCount.Load(),
		"getAllEventsCallsCount":              m.getAllEventsCalls.Load(),
		"getAllEventsEventsCount":             m.getAllEventsEvents.Load(),
		"totalMemoryCopyTimeMicros":           m.totalMemoryCopyTimeMicros.Load(),
		"totalDiskCopyTimeMicros":             m.totalDiskCopyTimeMicros.Load(),
		"totalGetAllEventsDiskCopyTimeMicros": m.totalGetAllEventsDiskCopyTimeMicros.Load(),
		"totalEventsCopiedToMemory":           m.totalEventsCopiedToMemory.Load(),
		"totalEventsCopiedToDisk":             m.totalEventsCopiedToDisk.Load(),
	}
}

func (m *Metrics) addMemoryCopy(count, micros uint64) {
	m.memoryCopyCount.Add(1)
	m.totalMemoryCopyTimeMicros.Add(micros)
	m.totalEventsCopiedToMemory.Add(count)
}

func (m *Metrics) addDiskCopy(count, micros uint64) {
	m.diskCopyCount.Add(1)
	m.totalDiskCopyTimeMicros.Add(micros)
	m.totalEventsCopiedToDisk.Add(count)
}

func (m *Metrics) addGetAllEvents(count, micros uint64) {
	m.getAllEventsCalls.Add(1)
	m.getAllEventsEvents.Add(count)
	m.totalGetAllEventsDiskCopyTimeMicros.Add(micros)
}
