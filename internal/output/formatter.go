package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// EventKind names a step of a listening session
type EventKind string

const (
	EventWake       EventKind = "wake"
	EventRecognized EventKind = "recognized"
	EventUnmatched  EventKind = "unmatched"
	EventExecuted   EventKind = "executed"
	EventFailed     EventKind = "failed"
	EventTimeout    EventKind = "timeout"
	EventCancelled  EventKind = "cancelled"
)

// Event is one journal record
type Event struct {
	Session   string        `json:"session"`
	Kind      EventKind     `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	Trigger   string        `json:"trigger,omitempty"`
	Index     *int          `json:"index,omitempty"`
	Text      string        `json:"text,omitempty"`
	Command   string        `json:"command,omitempty"`
	Output    string        `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns,omitempty"`
}

// Formatter is the interface for journal formatters
type Formatter interface {
	// WriteEvent writes one session event
	WriteEvent(event Event) error

	// Flush ensures all buffered output is written
	Flush() error

	// Close closes the formatter and releases resources
	Close() error
}

// NewFormatter creates the formatter named by format (json|text)
func NewFormatter(format string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONFormatter(w), nil
	case "text", "":
		return NewPlainTextFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown journal format: %s (valid: json, text)", format)
	}
}

// JSONFormatter writes one JSON object per line
type JSONFormatter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	closer  io.Closer
}

// NewJSONFormatter creates a new JSON formatter. If w is an io.Closer it
// is closed by Close.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	f := &JSONFormatter{encoder: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		f.closer = c
	}
	return f
}

// WriteEvent writes an event in JSON format
func (j *JSONFormatter) WriteEvent(event Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.encoder.Encode(event)
}

// Flush is a no-op; the encoder writes immediately
func (j *JSONFormatter) Flush() error {
	return nil
}

// Close closes the underlying writer when it is closable
func (j *JSONFormatter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// PlainTextFormatter writes one human-readable line per event
type PlainTextFormatter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{writer: writer}
}

// WriteEvent writes an event in plain text
func (p *PlainTextFormatter) WriteEvent(event Event) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", event.Timestamp.Format("15:04:05"), shortID(event.Session), event.Kind)

	if event.Trigger != "" {
		fmt.Fprintf(&b, " trigger=%s", event.Trigger)
	}
	if event.Index != nil {
		fmt.Fprintf(&b, " index=%d", *event.Index)
	}
	if event.Text != "" {
		fmt.Fprintf(&b, " text=%q", event.Text)
	}
	if event.Command != "" {
		fmt.Fprintf(&b, " command=%s", event.Command)
	}
	if event.Error != "" {
		fmt.Fprintf(&b, " error=%q", event.Error)
	}
	if event.Elapsed > 0 {
		fmt.Fprintf(&b, " elapsed=%s", event.Elapsed.Round(time.Millisecond))
	}
	b.WriteByte('\n')

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.writer, b.String())
	return err
}

// Flush ensures all buffered output is written
func (p *PlainTextFormatter) Flush() error {
	return nil
}

// Close closes the underlying writer when it is closable
func (p *PlainTextFormatter) Close() error {
	if c, ok := p.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
