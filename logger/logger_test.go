package logger_test

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mickamy/query-eventlog/event"
	"github.com/mickamy/query-eventlog/logger"
	"github.com/mickamy/query-eventlog/session"
	"github.com/mickamy/query-eventlog/session/fake"
)

func newTestLogger(t *testing.T, cfg *logger.Config) (*logger.Logger, string) {
	t.Helper()
	dir := t.TempDir()
	l := logger.New(zerolog.Nop(), cfg, 1<<20, 1<<20)
	if err := l.SetEventsDataDir(dir); err != nil {
		t.Fatalf("SetEventsDataDir: %v", err)
	}
	if err := l.SetAuditDataDir(dir); err != nil {
		t.Fatalf("SetAuditDataDir: %v", err)
	}
	if err := l.SetAuditBaseFilename("audit"); err != nil {
		t.Fatalf("SetAuditBaseFilename: %v", err)
	}
	if err := l.SetEventsBaseFilename("events"); err != nil {
		t.Fatalf("SetEventsBaseFilename: %v", err)
	}
	return l, dir
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open %s: %v", path, err)
	}
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func baseSession() *fake.Session {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &fake.Session{
		ThreadIDValue:        1,
		StatusValue:          session.StatusQuery,
		UsernameValue:        "u",
		SchemaNameValue:      "db",
		ClientAddrValue:      "1.2.3.4:3306",
		MonotonicStartValue:  now,
		MonotonicEndValue:    now.Add(time.Millisecond),
		MonotonicNowValue:    now,
		RealNowValue:         now,
		DigestValue:          0xABCD,
		QueryValue:           []byte("SELECT 1"),
		HasClientStreamValue: true,
	}
}

func TestLogRequestWritesToEventsSink(t *testing.T) {
	t.Parallel()

	cfg := logger.DefaultConfig()
	l, dir := newTestLogger(t, cfg)

	if err := l.LogRequest(baseSession(), nil); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "events.00000001"))
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0]["query"] != "SELECT 1" {
		t.Errorf("query = %v", lines[0]["query"])
	}
	if hg, ok := lines[0]["hostgroup_id"].(float64); !ok || hg != -1 {
		t.Errorf("hostgroup_id = %v, want -1 (no backend)", lines[0]["hostgroup_id"])
	}
}

func TestLogRequestSkippedWithoutClientStream(t *testing.T) {
	t.Parallel()

	cfg := logger.DefaultConfig()
	l, dir := newTestLogger(t, cfg)

	sess := baseSession()
	sess.HasClientStreamValue = false
	if err := l.LogRequest(sess, nil); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "events.00000001")); err != nil {
		t.Fatalf("expected rotation file to still exist (created at open): %v", err)
	}
	lines := readLines(t, filepath.Join(dir, "events.00000001"))
	if len(lines) != 0 {
		t.Errorf("expected no lines written, got %d", len(lines))
	}
}

// The session's monotonic clock may be offset from its real clock at
// the point LogRequest is called; StartTime/EndTime must be corrected
// into real time via the RealNow()-MonotonicNow() delta, not copied
// straight from the monotonic readings.
func TestLogRequestCorrectsMonotonicToRealTime(t *testing.T) {
	t.Parallel()

	cfg := logger.DefaultConfig()
	l, dir := newTestLogger(t, cfg)

	mono := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	real := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC) // one hour ahead of mono

	sess := baseSession()
	sess.MonotonicStartValue = mono
	sess.MonotonicEndValue = mono.Add(time.Millisecond)
	sess.MonotonicNowValue = mono
	sess.RealNowValue = real

	if err := l.LogRequest(sess, nil); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "events.00000001"))
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}

	wantStart := float64(real.UnixMicro())
	wantEnd := float64(real.Add(time.Millisecond).UnixMicro())
	if got := lines[0]["starttime_timestamp_us"]; got != wantStart {
		t.Errorf("starttime_timestamp_us = %v, want %v", got, wantStart)
	}
	if got := lines[0]["endtime_timestamp_us"]; got != wantEnd {
		t.Errorf("endtime_timestamp_us = %v, want %v", got, wantEnd)
	}
}

// The WAITING_CLIENT_DATA + pending-COM_STMT_PREPARE special case forces
// a StmtPrepare kind.
func TestLogRequestWaitingClientDataForcesStmtPrepare(t *testing.T) {
	t.Parallel()

	cfg := logger.DefaultConfig()
	l, dir := newTestLogger(t, cfg)

	sess := baseSession()
	sess.StatusValue = session.StatusWaitingClientData
	sess.PendingCommandIsStmtPrepareValue = true
	if err := l.LogRequest(sess, nil); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "events.00000001"))
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0]["event"] != "COM_STMT_PREPARE" {
		t.Errorf("event = %v, want COM_STMT_PREPARE", lines[0]["event"])
	}
}

func TestLogRequestBuffersWhenEnabled(t *testing.T) {
	t.Parallel()

	cfg := logger.DefaultConfig()
	cfg.BufferHistorySize = 4
	l, _ := newTestLogger(t, cfg)

	if err := l.LogRequest(baseSession(), nil); err != nil {
		t.Fatalf("LogRequest: %v", err)
	}
	if got := l.Buffer().Size(); got != 1 {
		t.Errorf("Buffer().Size() = %d, want 1", got)
	}
	if got := l.AllMetrics()["circularBufferEventsAddedCount"]; got != 1 {
		t.Errorf("circularBufferEventsAddedCount = %d, want 1", got)
	}
}

func TestLogAuditWritesToAuditSinkWithMapping(t *testing.T) {
	t.Parallel()

	cfg := logger.DefaultConfig()
	l, dir := newTestLogger(t, cfg)

	sess := baseSession()
	sess.SessionTypeValue = session.TypeAdmin

	if err := l.LogAudit(event.MySQLAuthOK, sess, nil, ""); err != nil {
		t.Fatalf("LogAudit: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "audit.00000001"))
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0]["event"] != "Admin_Connect_OK" {
		t.Errorf("event = %v, want Admin_Connect_OK", lines[0]["event"])
	}
}
