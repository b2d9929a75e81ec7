package logger

// Config is a point-in-time snapshot of the subsystem's tunables.
// Logger reads it through an atomic.Pointer so producers never take a
// lock merely to see the current settings, matching the source's
// "torn reads of primitive ints are benign" assumption realized as a
// Go-idiomatic atomic swap instead.
type Config struct {
	// EventsBinaryFormat selects the query-event wire format: true for the
	// length-prefixed binary encoding (§4.2), false for newline-delimited
	// JSON (§4.3).
	EventsBinaryFormat bool

	// BufferHistorySize is the circular buffer's fixed capacity; 0
	// disables buffering.
	BufferHistorySize int
	// BufferMaxQueryLength truncates the query payload when deep-copying
	// an event into the buffer.
	BufferMaxQueryLength int

	// TableMemorySize is the row budget for the in-memory SQL store.
	TableMemorySize int
}

// DefaultConfig returns a Config with conservative defaults: JSON
// format, buffering disabled, no in-memory row budget.
func DefaultConfig() *Config {
	return &Config{
		EventsBinaryFormat:   false,
		BufferHistorySize:    0,
		BufferMaxQueryLength: 1024,
		TableMemorySize:      0,
	}
}
