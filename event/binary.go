package event

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mickamy/query-eventlog/lengthcodec"
)

// WriteBinary writes f as a single §4.2 binary record: an 8-byte
// little-endian total payload length, followed by the record body. It
// returns the number of body bytes written (excluding the 8-byte
// prefix), matching the original source's write_query_format_1 return
// value, which test S1/property 2 check against the prefix itself.
func (f *Fields) WriteBinary(w io.Writer) (uint64, error) {
	body := f.encodeBinaryBody()

	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return 0, fmt.Errorf("event: write length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return 0, fmt.Errorf("event: write record body: %w", err)
	}
	return uint64(len(body)), nil
}

func (f *Fields) encodeBinaryBody() []byte {
	buf := make([]byte, 0, 64+len(f.Query))

	buf = append(buf, byte(f.Kind))
	buf = lengthcodec.Append(buf, f.ThreadID)

	buf = lengthcodec.Append(buf, uint64(len(f.User)))
	buf = append(buf, f.User...)

	buf = lengthcodec.Append(buf, uint64(len(f.Schema)))
	buf = append(buf, f.Schema...)

	buf = lengthcodec.Append(buf, uint64(len(f.Client)))
	buf = append(buf, f.Client...)

	buf = lengthcodec.Append(buf, f.HostGroupID)
	if f.HostGroupID != NoHostGroup {
		buf = lengthcodec.Append(buf, uint64(len(f.Server)))
		buf = append(buf, f.Server...)
	}

	buf = lengthcodec.Append(buf, f.StartTime)
	buf = lengthcodec.Append(buf, f.EndTime)

	if f.Kind == StmtPrepare || f.Kind == StmtExecute {
		buf = lengthcodec.Append(buf, f.ClientStmtID)
	}

	buf = lengthcodec.Append(buf, f.AffectedRows)
	buf = lengthcodec.Append(buf, f.LastInsertID)
	buf = lengthcodec.Append(buf, f.RowsSent)
	buf = lengthcodec.Append(buf, f.Digest)

	buf = lengthcodec.Append(buf, uint64(len(f.Query)))
	if len(f.Query) > 0 {
		buf = append(buf, f.Query...)
	}

	return buf
}

// DecodeBinary parses a single §4.2 record from the start of buf,
// returning the decoded fields and the total number of bytes consumed
// (8-byte prefix + body). It is the inverse of WriteBinary and exists
// to exercise the round-trip property (§8 property 1); production code
// only ever writes this format.
func DecodeBinary(buf []byte) (*Fields, int, error) {
	if len(buf) < 8 {
		return nil, 0, fmt.Errorf("event: short buffer for length prefix: %d bytes", len(buf))
	}
	bodyLen := binary.LittleEndian.Uint64(buf[:8])
	body := buf[8:]
	if uint64(len(body)) < bodyLen {
		return nil, 0, fmt.Errorf("event: short buffer for body: want %d have %d", bodyLen, len(body))
	}
	body = body[:bodyLen]

	f := &Fields{}
	pos := 0

	if pos >= len(body) {
		return nil, 0, fmt.Errorf("event: truncated record: missing kind byte")
	}
	f.Kind = Kind(body[pos])
	pos++

	var n int
	f.ThreadID, n = readLenInt(body, &pos)
	_ = n

	userLen, _ := readLenInt(body, &pos)
	f.User = string(readBytes(body, &pos, int(userLen)))

	schemaLen, _ := readLenInt(body, &pos)
	f.Schema = string(readBytes(body, &pos, int(schemaLen)))

	clientLen, _ := readLenInt(body, &pos)
	f.Client = string(readBytes(body, &pos, int(clientLen)))

	f.HostGroupID, _ = readLenInt(body, &pos)
	if f.HostGroupID != NoHostGroup {
		serverLen, _ := readLenInt(body, &pos)
		f.Server = string(readBytes(body, &pos, int(serverLen)))
	}

	f.StartTime, _ = readLenInt(body, &pos)
	f.EndTime, _ = readLenInt(body, &pos)

	if f.Kind == StmtPrepare || f.Kind == StmtExecute {
		f.ClientStmtID, _ = readLenInt(body, &pos)
	}

	f.AffectedRows, _ = readLenInt(body, &pos)
	f.LastInsertID, _ = readLenInt(body, &pos)
	f.RowsSent, _ = readLenInt(body, &pos)
	f.Digest, _ = readLenInt(body, &pos)

	queryLen, _ := readLenInt(body, &pos)
	if queryLen > 0 {
		f.Query = readBytes(body, &pos, int(queryLen))
	}

	return f, 8 + int(bodyLen), nil
}

func readLenInt(buf []byte, pos *int) (uint64, int) {
	v, n := lengthcodec.Read(buf[*pos:])
	*pos += n
	return v, n
}

func readBytes(buf []byte, pos *int, n int) []byte {
	if n <= 0 {
		return nil
	}
	b := buf[*pos : *pos+n]
	*pos += n
	return b
}
