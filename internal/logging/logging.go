// Package logging builds bolt loggers and the structured fields shared by
// the control session, the one-shot converter and the CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config configures a logger.
type Config struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string

	// Format is json or console.
	Format string

	// Output defaults to os.Stderr so stdout stays free for documents.
	Output io.Writer
}

// DefaultConfig returns console output at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// ParseLevel converts a level name to a bolt.Level. Unknown names map to info.
func ParseLevel(s string) bolt.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "warn", "warning":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// New creates a logger from cfg.
func New(cfg Config) *bolt.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var handler bolt.Handler
	if cfg.Format == FormatJSON {
		handler = bolt.NewJSONHandler(out)
	} else {
		handler = bolt.NewConsoleHandler(out)
	}
	return bolt.New(handler).SetLevel(ParseLevel(cfg.Level))
}

// Nop returns a logger that only emits errors to io.Discard.
func Nop() *bolt.Logger {
	return bolt.New(bolt.NewJSONHandler(io.Discard)).SetLevel(bolt.ERROR)
}

// Field applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// With applies fields to e in order.
func With(e *bolt.Event, fields ...Field) *bolt.Event {
	for _, f := range fields {
		e = f(e)
	}
	return e
}

// SessionID adds the control session identifier.
func SessionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session_id", id)
	}
}

// PID adds the engine process id.
func PID(pid int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("pid", pid)
	}
}

// Mode adds the conversion mode (control, oneshot, file, raster).
func Mode(mode string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("mode", mode)
	}
}

// State adds a lifecycle state.
func State(s string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("state", s)
	}
}

// Location adds the source location an engine message refers to.
func Location(loc string) Field {
	return func(e *bolt.Event) *bolt.Event {
		if loc == "" {
			return e
		}
		return e.Str("location", loc)
	}
}

// Bytes adds a payload size.
func Bytes(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("bytes", n)
	}
}

// Resources adds the number of job resources.
func Resources(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("resources", n)
	}
}

// Duration adds a duration in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Str adds an arbitrary string field.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Error adds err when non-nil.
func Error(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
