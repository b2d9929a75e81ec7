// Package fake provides an in-memory session.Session/session.Backend
// test double, shaped after the teacher's own proxy.Event struct
// (proxy/proxy.go): a flat, directly settable record rather than a
// real proxy connection.
package fake

import (
	"time"

	"github.com/mickamy/query-eventlog/session"
)

// Session is a directly settable session.Session implementation for tests.
type Session struct {
	ThreadIDValue                    uint64
	StatusValue                      session.Status
	PendingCommandIsStmtPrepareValue bool

	UsernameValue    string
	SchemaNameValue  string
	ClientAddrValue  string
	SessionTypeValue session.SessionType

	MonotonicStartValue time.Time
	MonotonicEndValue   time.Time
	MonotonicNowValue   time.Time
	RealNowValue        time.Time

	DigestValue uint64

	QueryValue        []byte
	ClientStmtIDValue uint64

	HaveAffectedRowsValue bool
	AffectedRowsValue     uint64
	LastInsertIDValue     uint64
	RowsSentValue         uint64

	HaveGTIDValue bool
	GTIDValue     string

	HasClientStreamValue bool

	ProxyAddrValue    string
	HaveProxyTLSValue bool
	ProxyTLSValue     bool
}

func (s *Session) ThreadID() uint64                    { return s.ThreadIDValue }
func (s *Session) Status() session.Status              { return s.StatusValue }
func (s *Session) PendingCommandIsStmtPrepare() bool    { return s.PendingCommandIsStmtPrepareValue }
func (s *Session) Username() string                    { return s.UsernameValue }
func (s *Session) SchemaName() string                  { return s.SchemaNameValue }
func (s *Session) ClientAddr() string                  { return s.ClientAddrValue }
func (s *Session) SessionType() session.SessionType     { return s.SessionTypeValue }
func (s *Session) MonotonicStart() time.Time            { return s.MonotonicStartValue }
func (s *Session) MonotonicEnd() time.Time              { return s.MonotonicEndValue }
func (s *Session) MonotonicNow() time.Time              { return s.MonotonicNowValue }
func (s *Session) RealNow() time.Time                   { return s.RealNowValue }
func (s *Session) Digest() uint64                       { return s.DigestValue }
func (s *Session) Query() []byte                        { return s.QueryValue }
func (s *Session) ClientStmtID() uint64                 { return s.ClientStmtIDValue }
func (s *Session) HaveAffectedRows() bool               { return s.HaveAffectedRowsValue }
func (s *Session) AffectedRows() uint64                 { return s.AffectedRowsValue }
func (s *Session) LastInsertID() uint64                 { return s.LastInsertIDValue }
func (s *Session) RowsSent() uint64                     { return s.RowsSentValue }
func (s *Session) HaveGTID() bool                       { return s.HaveGTIDValue }
func (s *Session) GTID() string                         { return s.GTIDValue }
func (s *Session) HasClientStream() bool                { return s.HasClientStreamValue }
func (s *Session) ProxyAddr() string                    { return s.ProxyAddrValue }
func (s *Session) HaveProxyTLS() bool                   { return s.HaveProxyTLSValue }
func (s *Session) ProxyTLS() bool                       { return s.ProxyTLSValue }

// Backend is a directly settable session.Backend implementation for tests.
type Backend struct {
	HostGroupIDValue uint64
	AddrValue        string
}

func (b *Backend) HostGroupID() uint64 { return b.HostGroupIDValue }
func (b *Backend) Addr() string        { return b.AddrValue }
