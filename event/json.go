package event

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// WriteJSON writes f as a single compact, newline-terminated JSON object
// per §4.3. Invalid UTF-8 in Query is not rejected: encoding/json's
// string encoder already substitutes the Unicode replacement character
// for invalid byte sequences, which is exactly the "replace-on-error,
// never rejected" policy the format calls for.
func (f *Fields) WriteJSON(w io.Writer) error {
	m := f.queryJSONMap()
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("event: marshal json record: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("event: write json record: %w", err)
	}
	return nil
}

func (f *Fields) queryJSONMap() map[string]any {
	m := make(map[string]any, 16)

	if f.HostGroupID == NoHostGroup {
		m["hostgroup_id"] = -1
	} else {
		m["hostgroup_id"] = f.HostGroupID
		if f.Server != "" {
			m["server"] = f.Server
		}
	}
	m["thread_id"] = f.ThreadID
	m["event"] = f.Kind.QueryEventName()
	m["username"] = f.User
	m["schemaname"] = f.Schema
	m["client"] = f.Client

	if f.HaveAffectedRows {
		m["rows_affected"] = f.AffectedRows
		if f.LastInsertID != 0 {
			m["last_insert_id"] = f.LastInsertID
		}
	}
	if f.HaveRowsSent {
		m["rows_sent"] = f.RowsSent
	}
	if f.HaveGTID {
		m["last_gtid"] = f.GTID
	}

	m["query"] = string(f.Query)
	m["starttime_timestamp_us"] = f.StartTime
	m["starttime"] = formatMicros(f.StartTime, 6)
	m["endtime_timestamp_us"] = f.EndTime
	m["endtime"] = formatMicros(f.EndTime, 6)
	m["duration_us"] = f.Duration()
	m["digest"] = fmt.Sprintf("0x%016X", f.Digest)

	if f.Kind == StmtPrepare || f.Kind == StmtExecute {
		m["client_stmt_id"] = f.ClientStmtID
	}

	return m
}

// formatMicros renders a microsecond Unix timestamp as local
// "YYYY-MM-DD HH:MM:SS" plus a fixed-width fractional part of frac
// digits (6 for query records, 3 for audit records).
func formatMicros(us uint64, frac int) string {
	t := time.UnixMicro(int64(us)).Local() //nolint:gosec // us is always well within int64 range for real timestamps
	switch frac {
	case 3:
		return fmt.Sprintf("%s.%03d", t.Format("2006-01-02 15:04:05"), (us%1_000_000)/1000)
	default:
		return fmt.Sprintf("%s.%06d", t.Format("2006-01-02 15:04:05"), us%1_000_000)
	}
}
