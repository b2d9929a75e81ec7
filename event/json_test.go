package event_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/mickamy/query-eventlog/event"
)

func decodeOne(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line, err := buf.ReadBytes('\n')
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		t.Fatalf("Unmarshal: %v (line=%q)", err, line)
	}
	return m
}

// S2: format-2 query record, newline-terminated, hostgroup_id -1 when absent.
func TestWriteJSONS2NoHostGroup(t *testing.T) {
	t.Parallel()

	f := &event.Fields{
		Kind: event.Query, ThreadID: 3, User: "alice", Schema: "shop",
		Client: "127.0.0.1:55000", HostGroupID: event.NoHostGroup,
		StartTime: 1_700_000_000_000_000, EndTime: 1_700_000_000_500_000,
		Digest: 0xABCDEF, Query: []byte("SELECT * FROM t"),
	}
	var buf bytes.Buffer
	if err := f.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if b := buf.Bytes(); b[len(b)-1] != '\n' {
		t.Fatalf("record not newline-terminated: %q", b)
	}

	m := decodeOne(t, &buf)
	if hg, ok := m["hostgroup_id"].(float64); !ok || hg != -1 {
		t.Errorf("hostgroup_id = %v, want -1", m["hostgroup_id"])
	}
	if _, ok := m["server"]; ok {
		t.Errorf("server present despite absent hostgroup: %v", m["server"])
	}
	if m["event"] != "COM_QUERY" {
		t.Errorf("event = %v, want COM_QUERY", m["event"])
	}
	if m["query"] != "SELECT * FROM t" {
		t.Errorf("query = %v", m["query"])
	}
}

// Property 8: rows_affected/rows_sent/last_gtid are each present iff
// their Have* flag is set; last_insert_id is present only when
// rows_affected is and LastInsertID is non-zero.
func TestWriteJSONOptionalFieldGating(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		f    *event.Fields
		want []string
		omit []string
	}{
		{
			name: "none set",
			f:    &event.Fields{Kind: event.Query, HostGroupID: 1, Server: "s:1"},
			omit: []string{"rows_affected", "last_insert_id", "rows_sent", "last_gtid"},
		},
		{
			name: "affected rows without last insert id",
			f: &event.Fields{
				Kind: event.Query, HostGroupID: 1, Server: "s:1",
				HaveAffectedRows: true, AffectedRows: 5, LastInsertID: 0,
			},
			want: []string{"rows_affected"},
			omit: []string{"last_insert_id", "rows_sent", "last_gtid"},
		},
		{
			name: "all set",
			f: &event.Fields{
				Kind: event.Query, HostGroupID: 1, Server: "s:1",
				HaveAffectedRows: true, AffectedRows: 5, LastInsertID: 9,
				HaveRowsSent: true, RowsSent: 2,
				HaveGTID: true, GTID: "0-1-5",
			},
			want: []string{"rows_affected", "last_insert_id", "rows_sent", "last_gtid"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := tc.f.WriteJSON(&buf); err != nil {
				t.Fatalf("WriteJSON: %v", err)
			}
			m := decodeOne(t, &buf)
			for _, k := range tc.want {
				if _, ok := m[k]; !ok {
					t.Errorf("missing expected key %q in %v", k, m)
				}
			}
			for _, k := range tc.omit {
				if _, ok := m[k]; ok {
					t.Errorf("unexpected key %q present in %v", k, m)
				}
			}
		})
	}
}

// Invariant: server present iff hostgroup_id present and server non-empty.
func TestWriteJSONServerPresentWithHostGroup(t *testing.T) {
	t.Parallel()

	f := &event.Fields{Kind: event.Query, HostGroupID: 7, Server: "10.0.0.5:3306"}
	var buf bytes.Buffer
	if err := f.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	m := decodeOne(t, &buf)
	if m["server"] != "10.0.0.5:3306" {
		t.Errorf("server = %v, want 10.0.0.5:3306", m["server"])
	}
	if hg, ok := m["hostgroup_id"].(float64); !ok || hg != 7 {
		t.Errorf("hostgroup_id = %v, want 7", m["hostgroup_id"])
	}
}

// client_stmt_id appears only for StmtPrepare/StmtExecute.
func TestWriteJSONClientStmtIDGating(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		kind event.Kind
		want bool
	}{
		{event.Query, false},
		{event.StmtPrepare, true},
		{event.StmtExecute, true},
	} {
		f := &event.Fields{Kind: tc.kind, HostGroupID: event.NoHostGroup, ClientStmtID: 55}
		var buf bytes.Buffer
		if err := f.WriteJSON(&buf); err != nil {
			t.Fatalf("WriteJSON: %v", err)
		}
		m := decodeOne(t, &buf)
		_, ok := m["client_stmt_id"]
		if ok != tc.want {
			t.Errorf("kind %v: client_stmt_id present = %v, want %v", tc.kind, ok, tc.want)
		}
	}
}

// Invalid UTF-8 in Query is replaced, never rejected.
func TestWriteJSONInvalidUTF8Query(t *testing.T) {
	t.Parallel()

	f := &event.Fields{
		Kind: event.Query, HostGroupID: event.NoHostGroup,
		Query: []byte{'S', 'E', 'L', 0xFF, 0xFE, 'T'},
	}
	var buf bytes.Buffer
	if err := f.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	m := decodeOne(t, &buf)
	q, ok := m["query"].(string)
	if !ok {
		t.Fatalf("query not a string: %v", m["query"])
	}
	if q == "" {
		t.Errorf("query empty, want replacement characters preserved")
	}
}
