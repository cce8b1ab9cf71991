package audit

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Entry records one inlet decision: which user's settings were merged into
// which request, or why a request was rejected.
type Entry struct {
	Timestamp       time.Time `json:"timestamp"`
	RequestID       string    `json:"request_id"`
	Direction       string    `json:"direction"` // only "inlet" today
	UserID          string    `json:"user_id,omitempty"`
	Filter          string    `json:"filter,omitempty"`
	Applied         bool      `json:"applied"`
	SaveMemories    *bool     `json:"save_memories,omitempty"`
	AnonymousMode   *bool     `json:"anonymous_mode,omitempty"`
	MetadataCreated bool      `json:"metadata_created,omitempty"`
	Rejected        bool      `json:"rejected,omitempty"`
	Reason          string    `json:"reason,omitempty"`
}

// Logger writes JSON-line audit log entries.
type Logger struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewLogger creates a new audit logger writing to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{
		enc: json.NewEncoder(w),
	}
}

// NewFileLogger creates a logger that writes to a file at the given path.
// Creates the file if it doesn't exist, appends if it does.
func NewFileLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return NewLogger(f), nil
}

// NewStderrLogger creates a logger that writes to stderr.
func NewStderrLogger() *Logger {
	return NewLogger(os.Stderr)
}

// Log writes a single audit entry as a JSON line.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(entry)
}

// NopLogger returns a logger that discards all entries.
func NopLogger() *Logger {
	return NewLogger(io.Discard)
}
