package event

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteAuditJSON writes f as a single compact, newline-terminated audit
// JSON object per §4.3's audit schema. f.Kind must already be the
// flavor-specific kind (the logger facade performs the generic-to-
// flavor mapping before calling this).
func (f *Fields) WriteAuditJSON(w io.Writer) error {
	m := f.auditJSONMap()
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("event: marshal audit record: %w", err)
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("event: write audit record: %w", err)
	}
	return nil
}

func (f *Fields) auditJSONMap() map[string]any {
	m := make(map[string]any, 12)

	m["timestamp"] = f.StartTime / 1000
	m["time"] = formatMicros(f.StartTime, 3)
	m["thread_id"] = f.ThreadID
	m["username"] = f.User
	m["schemaname"] = f.Schema
	m["client_addr"] = f.Client
	if f.Server != "" {
		m["server_addr"] = f.Server
	}
	if f.ExtraInfo != "" {
		m["extra_info"] = f.ExtraInfo
	}
	m["event"] = f.Kind.String()

	if f.Kind.IsClose() {
		m["creation_time"] = formatMicros(f.AuditCreationTime, 3)
		m["duration"] = fmt.Sprintf("%.3fms", float64(f.AuditDurationMicros)/1000)
	}

	if f.ProxyAddr != "" {
		m["proxy_addr"] = f.ProxyAddr
	}
	if f.HaveProxyTLS {
		m["ssl"] = f.ProxyTLS
	}

	return m
}
