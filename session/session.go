// Package session declares the narrow read-only accessor surface the
// logger facade needs from an upstream proxy's connection state. It
// defines no implementation of its own: a real proxy wires its session
// type to these interfaces, and package session/fake provides a test
// double grounded on the teacher's own proxy.Event shape.
package session

import "time"

// Status mirrors the small set of session states log_request switches
// on to pick an event kind.
type Status int

const (
	StatusQuery Status = iota
	StatusStmtPrepare
	StatusStmtExecute
	StatusWaitingClientData
)

// SessionType distinguishes the three session flavors the audit kind
// mapping cares about. Stats sessions map identically to Admin
// sessions, matching the original source's switch fallthrough.
type SessionType int

const (
	TypeMySQL SessionType = iota
	TypeAdmin
	TypeStats
	TypeSQLite
)

// Session is the read-only view of a client session a logger needs to
// build a query-family event record or a *_Close audit record.
type Session interface {
	// ThreadID is the proxy-assigned session identifier.
	ThreadID() uint64
	// Status is the session's current processing state.
	Status() Status
	// PendingCommandIsStmtPrepare reports whether, while Status is
	// StatusWaitingClientData, the first byte of the session's pending
	// packet is a prepared-statement command. This is the "odd case"
	// log_request special-cases to still log a StmtPrepare kind.
	PendingCommandIsStmtPrepare() bool

	Username() string
	SchemaName() string
	ClientAddr() string // host:port, already formatted; empty if unknown
	SessionType() SessionType

	// MonotonicStart/MonotonicEnd and RealNow/MonotonicNow together let
	// the caller correct a monotonic clock reading into wall-clock time
	// via RealTime, matching the original's curtime_real-curtime_mono
	// correction.
	MonotonicStart() time.Time
	MonotonicEnd() time.Time
	MonotonicNow() time.Time
	RealNow() time.Time

	Digest() uint64

	// Query returns the raw query bytes for the current request: the
	// prepare/execute payload for statement kinds, or the plain query
	// text otherwise.
	Query() []byte
	ClientStmtID() uint64

	HaveAffectedRows() bool
	AffectedRows() uint64
	LastInsertID() uint64
	RowsSent() uint64

	HaveGTID() bool
	GTID() string

	// HasClientStream reports whether the session has a navigable
	// client stream and connection, the minimum state log_request and
	// log_audit both require before proceeding.
	HasClientStream() bool

	// For audit records: proxy-facing endpoint and TLS state of the
	// client-facing connection, if the proxy exposes one.
	ProxyAddr() string
	HaveProxyTLS() bool
	ProxyTLS() bool
}

// Backend is the read-only view of the backend connection a completed
// request was routed to, used to populate the server/hostgroup fields.
// A nil Backend means "no backend was used" (hostgroup_id absent).
type Backend interface {
	HostGroupID() uint64
	Addr() string // host:port
}
