// Package event implements the event record data model and its two
// on-wire encodings (length-prefixed binary and newline-delimited
// JSON), plus the audit-event JSON encoding.
package event

import "math"

// NoHostGroup is the sentinel value for Fields.HostGroupID meaning "no
// backend associated with this record". It must never be paired with a
// non-empty Server field (Invariant 2).
const NoHostGroup = math.MaxUint64

// Fields holds the attributes common to both the borrowing and the
// owning event variants. A zero Fields is a valid, empty query-family
// event with HostGroupID left at zero (callers constructing a real
// event must set HostGroupID explicitly, usually to NoHostGroup).
type Fields struct {
	Kind        Kind
	ThreadID    uint64
	User        string
	Schema      string
	Client      string // host:port
	HostGroupID uint64 // NoHostGroup if absent
	Server      string // must be empty when HostGroupID == NoHostGroup

	StartTime uint64 // microseconds since Unix epoch
	EndTime   uint64 // microseconds since Unix epoch

	ClientStmtID uint64 // valid only for StmtPrepare/StmtExecute

	HaveAffectedRows bool
	AffectedRows     uint64
	LastInsertID     uint64

	HaveRowsSent bool
	RowsSent     uint64

	HaveGTID bool
	GTID     string

	Digest uint64
	Query  []byte // not assumed NUL-terminated; see Owned.Query for the buffer variant

	ExtraInfo string // audit only

	// Audit-only fields below. StartTime doubles as the audit
	// timestamp (EndTime is unused for audit records, matching the
	// original source's log_audit_entry, which passes 0 for end_time).
	AuditCreationTime   uint64 // real time at session start, microseconds; *_Close only
	AuditDurationMicros uint64 // monotonic session lifetime, microseconds; *_Close only

	ProxyAddr    string // proxy-facing endpoint, when the session exposes one
	HaveProxyTLS bool   // whether ProxyTLS is meaningful
	ProxyTLS     bool   // whether the proxy-facing connection is encrypted
}

// Duration returns EndTime-StartTime in microseconds. Invariant 1
// (EndTime >= StartTime) means this never underflows for a
// well-formed Fields.
func (f *Fields) Duration() uint64 {
	return f.EndTime - f.StartTime
}

// Ref is an event built in place on the request goroutine. Its string
// fields are immutable Go strings taken from the session; its Query is
// the session's own byte slice, shared rather than copied. Ref frees
// nothing on drop (the original source's free_on_delete question does
// not arise); DeepCopy produces an Owned with its own query bytes.
type Ref struct {
	Fields
}

// Owned is the variant placed into the circular buffer. It is produced
// exclusively by Ref.DeepCopy, which truncates and NUL-terminates the
// query payload per Invariant 4.
type Owned struct {
	Fields
	queryBuf []byte // backing allocation for Query, including the trailing NUL
}

// DeepCopy returns an Owned event whose Query is truncated to maxQueryLen
// bytes with a trailing NUL appended beyond that length, per Invariant 4.
// All other fields are copied by value (Go strings are immutable, so no
// further copying is needed for User/Schema/Client/Server/GTID/ExtraInfo).
func (r *Ref) DeepCopy(maxQueryLen int) *Owned {
	o := &Owned{Fields: r.Fields}

	n := len(r.Query)
	if maxQueryLen >= 0 && n > maxQueryLen {
		n = maxQueryLen
	}
	buf := make([]byte, n+1)
	copy(buf, r.Query[:n])
	buf[n] = 0
	o.Query = buf[:n] // length excludes the trailing NUL, matching query_len semantics
	o.queryBuf = buf

	return o
}

// NULTerminatedQuery returns the query payload including its trailing
// NUL byte, for callers binding against APIs that expect a C string.
func (o *Owned) NULTerminatedQuery() []byte {
	return o.queryBuf
}
