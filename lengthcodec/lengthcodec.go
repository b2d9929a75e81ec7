// Package lengthcodec implements the variable-width length-encoded
// unsigned integer used by the binary event format. It mirrors the
// MySQL wire-protocol length-encoded integer: a one-byte prefix selects
// the width of the value that follows.
package lengthcodec

import "encoding/binary"

// Prefix bytes that select an encoding width wider than one byte.
const (
	prefix2 = 0xFC // followed by a little-endian uint16
	prefix3 = 0xFD // followed by a little-endian 24-bit uint
	prefix8 = 0xFE // followed by a little-endian uint64
)

// small is one past the largest value that fits in a single byte (250).
// Values at or above it require one of the multi-byte prefixed encodings.
const small = 251

// EncodedLen returns the number of bytes Write would emit for v:
// 1, 3, 4, or 9.
func EncodedLen(v uint64) int {
	switch {
	case v < small:
		return 1
	case v < 1<<16:
		return 3
	case v < 1<<24:
		return 4
	default:
		return 9
	}
}

// Append encodes v and appends it to buf, returning the extended slice.
func Append(buf []byte, v uint64) []byte {
	switch {
	case v < small:
		return append(buf, byte(v))
	case v < 1<<16:
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(v))
		return append(append(buf, prefix2), tmp[:]...)
	case v < 1<<24:
		return append(buf, prefix3, byte(v), byte(v>>8), byte(v>>16))
	default:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		return append(append(buf, prefix8), tmp[:]...)
	}
}

// Write appends the encoding of v to *w, growing it as needed, and
// returns the number of bytes written (always EncodedLen(v)).
func Write(w *[]byte, v uint64) int {
	before := len(*w)
	*w = Append(*w, v)
	return len(*w) - before
}

// Read decodes a length-encoded integer from the start of buf, returning
// the value and the number of bytes consumed. It returns (0, 0) if buf
// is too short for the encoding its first byte selects.
func Read(buf []byte) (uint64, int) {
	if len(buf) == 0 {
		return 0, 0
	}
	switch {
	case buf[0] < small:
		return uint64(buf[0]), 1
	case buf[0] == prefix2:
		if len(buf) < 3 {
			return 0, 0
		}
		return uint64(binary.LittleEndian.Uint16(buf[1:3])), 3
	case buf[0] == prefix3:
		if len(buf) < 4 {
			return 0, 0
		}
		return uint64(buf[1]) | uint64(buf[2])<<8 | uint64(buf[3])<<16, 4
	case buf[0] == prefix8:
		if len(buf) < 9 {
			return 0, 0
		}
		return binary.LittleEndian.Uint64(buf[1:9]), 9
	}
	return 0, 0
}
