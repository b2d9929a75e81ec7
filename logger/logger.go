// Package logger implements the logger facade: construction of event
// records from session state, dispatch to the file sinks and the
// circular buffer, and the generic-to-flavor audit kind mapping.
package logger

import (
	"bytes"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/mickamy/query-eventlog/buffer"
	"github.com/mickamy/query-eventlog/event"
	"github.com/mickamy/query-eventlog/filesink"
	"github.com/mickamy/query-eventlog/session"
)

// Logger is the subsystem's entry point: two file sinks guarded by one
// write lock, an independent circular buffer, and a metrics block.
type Logger struct {
	log zerolog.Logger

	mu     sync.Mutex
	events *filesink.Sink
	audit  *filesink.Sink

	buf     *buffer.Buffer
	metrics *Metrics

	cfg atomic.Pointer[Config]
}

// New constructs a Logger. maxEventsFileSize and maxAuditFileSize are
// the two streams' rotation thresholds in bytes.
func New(log zerolog.Logger, cfg *Config, maxEventsFileSize, maxAuditFileSize int64) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Logger{
		log:     log,
		events:  filesink.New(log, maxEventsFileSize),
		audit:   filesink.New(log, maxAuditFileSize),
		buf:     buffer.New(cfg.BufferHistorySize),
		metrics: &Metrics{},
	}
	l.cfg.Store(cfg)
	return l
}

// SetConfig atomically swaps the active configuration snapshot. It does
// not resize the circular buffer: its capacity stays the value the
// Logger was constructed with. The new BufferHistorySize is still read
// by LogRequest to decide whether to push into the buffer at all.
func (l *Logger) SetConfig(cfg *Config) {
	l.cfg.Store(cfg)
}

func (l *Logger) config() *Config {
	return l.cfg.Load()
}

// SetEventsBaseFilename sets the events stream's base filename.
func (l *Logger) SetEventsBaseFilename(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events.SetBaseFilename(name)
}

// SetEventsDataDir sets the events stream's data directory, then
// reopens both sinks, matching the source's shared flush_log() call on
// either stream's datadir change.
func (l *Logger) SetEventsDataDir(dir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reopenBothWithDataDir(l.events, dir)
}

// SetAuditBaseFilename sets the audit stream's base filename.
func (l *Logger) SetAuditBaseFilename(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.audit.SetBaseFilename(name)
}

// SetAuditDataDir sets the audit stream's data directory, then reopens
// both sinks.
func (l *Logger) SetAuditDataDir(dir string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reopenBothWithDataDir(l.audit, dir)
}

func (l *Logger) reopenBothWithDataDir(target *filesink.Sink, dir string) error {
	if err := target.SetDataDir(dir); err != nil {
		return err
	}
	other := l.events
	if target == l.events {
		other = l.audit
	}
	return other.Flush()
}

// LogRequest builds an event record from sess and backend, writes it to
// the events sink, and, if buffering is enabled, deep-copies it into
// the circular buffer. It returns early without error if sess lacks the
// minimum navigable state, or if buffering is disabled and the sink is
// disabled, matching the pre-write checks.
func (l *Logger) LogRequest(sess session.Session, backend session.Backend) error {
	if !sess.HasClientStream() {
		return nil
	}

	cfg := l.config()

	l.mu.Lock()
	sinkUsable := l.events.Enabled()
	l.mu.Unlock()
	bufferEnabled := cfg.BufferHistorySize > 0
	if !bufferEnabled && !sinkUsable {
		return nil
	}

	f := buildRequestFields(sess, backend)
	ref := &event.Ref{Fields: f}

	var writeErr error
	l.mu.Lock()
	if l.events.Enabled() {
		writeErr = l.writeEventUnlocked(&f, cfg.EventsBinaryFormat)
	}
	l.mu.Unlock()

	if bufferEnabled {
		l.buf.Push(ref.DeepCopy(cfg.BufferMaxQueryLength))
	}

	return writeErr
}

func (l *Logger) writeEventUnlocked(f *event.Fields, binary bool) error {
	var buf bytes.Buffer
	var err error
	if binary {
		_, err = f.WriteBinary(&buf)
	} else {
		err = f.WriteJSON(&buf)
	}
	if err != nil {
		return err
	}
	return l.events.Write(buf.Bytes())
}

func buildRequestFields(sess session.Session, backend session.Backend) event.Fields {
	kind := event.Query
	switch sess.Status() {
	case session.StatusStmtExecute:
		kind = event.StmtExecute
	case session.StatusStmtPrepare:
		kind = event.StmtPrepare
	case session.StatusWaitingClientData:
		if sess.PendingCommandIsStmtPrepare() {
			kind = event.StmtPrepare
		}
	}

	realNow := sess.RealNow()
	monoNow := sess.MonotonicNow()
	startTime := uint64(event.RealTime(sess.MonotonicStart(), monoNow, realNow).UnixMicro())
	endTime := uint64(event.RealTime(sess.MonotonicEnd(), monoNow, realNow).UnixMicro())

	f := event.Fields{
		Kind:        kind,
		ThreadID:    sess.ThreadID(),
		User:        sess.Username(),
		Schema:      sess.SchemaName(),
		Client:      sess.ClientAddr(),
		HostGroupID: event.NoHostGroup,
		StartTime:   startTime,
		EndTime:     endTime,
		Digest:      sess.Digest(),
		Query:       sess.Query(),

		ClientStmtID: sess.ClientStmtID(),

		HaveAffectedRows: sess.HaveAffectedRows(),
		AffectedRows:     sess.AffectedRows(),
		LastInsertID:     sess.LastInsertID(),

		HaveRowsSent: true,
		RowsSent:     sess.RowsSent(),

		HaveGTID: sess.HaveGTID(),
		GTID:     sess.GTID(),
	}

	if backend != nil {
		f.HostGroupID = backend.HostGroupID()
		f.Server = backend.Addr()
	}

	return f
}

// LogAudit builds an audit record for genericKind mapped through sess's
// session type, and writes it to the audit sink. It returns early
// without error if sess lacks the minimum navigable state.
func (l *Logger) LogAudit(genericKind event.Kind, sess session.Session, backend session.Backend, extraInfo string) error {
	if !sess.HasClientStream() {
		return nil
	}

	kind := mapAuditKind(genericKind, sess.SessionType())

	f := event.Fields{
		Kind:       kind,
		ThreadID:   sess.ThreadID(),
		User:       sess.Username(),
		Schema:     sess.SchemaName(),
		Client:     sess.ClientAddr(),
		StartTime:  uint64(sess.RealNow().UnixMicro()),
		ExtraInfo:  extraInfo,
		ProxyAddr:  sess.ProxyAddr(),
	}
	f.HaveProxyTLS = sess.HaveProxyTLS()
	f.ProxyTLS = sess.ProxyTLS()

	if backend != nil {
		f.Server = backend.Addr()
	}

	if kind.IsClose() {
		f.AuditCreationTime = uint64(event.RealTime(sess.MonotonicStart(), sess.MonotonicNow(), sess.RealNow()).UnixMicro())
		f.AuditDurationMicros = uint64(sess.MonotonicNow().Sub(sess.MonotonicStart()).Microseconds())
	}

	var buf bytes.Buffer
	if err := f.WriteAuditJSON(&buf); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.audit.Write(buf.Bytes())
}

// Flush closes and reopens both sinks under the write lock.
func (l *Logger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.events.Flush(); err != nil {
		return err
	}
	return l.audit.Flush()
}

// Sync flushes the underlying OS file handle for each open sink.
func (l *Logger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.events.Sync(); err != nil {
		return err
	}
	return l.audit.Sync()
}

// AllMetrics returns every counter, including the three circular-buffer
// counters, as a plain string-keyed map.
func (l *Logger) AllMetrics() map[string]uint64 {
	m := l.metrics.Snapshot()
	m["circularBufferEventsAddedCount"] = l.buf.AddedCount()
	m["circularBufferEventsDroppedCount"] = l.buf.DroppedCount()
	m["circularBufferEventsSize"] = uint64(l.buf.Size())
	return m
}

// Buffer exposes the underlying circular buffer for the drain step.
func (l *Logger) Buffer() *buffer.Buffer {
	return l.buf
}

// Metrics exposes the underlying metrics block for the drain step.
func (l *Logger) Metrics() *Metrics {
	return l.metrics
}
