package event

import "time"

// RealTime corrects a monotonic clock reading into wall-clock time by
// adding the offset between the current monotonic and real clocks:
// real = mono + (realNow - monoNow). This mirrors the original source's
// curtime_real + mono_timestamp - curtime_mono correction, used both
// for CurrentQuery.start_time/end_time and for a session's creation
// time on *_Close audit events.
func RealTime(mono, monoNow, realNow time.Time) time.Time {
	return mono.Add(realNow.Sub(monoNow))
}
