package prince

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/alnah/go-prince/internal/logging"
)

// MessageKind classifies an engine diagnostic.
type MessageKind string

// Message kinds as they appear in the structured log.
const (
	KindError   MessageKind = "ERR"
	KindWarning MessageKind = "WRN"
	KindInfo    MessageKind = "INF"
	KindDebug   MessageKind = "DBG"
	KindOutput  MessageKind = "OUT" // console.log() from document scripts
)

// Free-form prefixes written by the engine outside the structured log.
const (
	warningPrefix = "prince: warning: "
	errorPrefix   = "prince: error: "
)

// resultSuccess is the fin value of a successful conversion.
const resultSuccess = "success"

// EventSink receives engine messages synchronously, in log order.
type EventSink interface {
	// OnMessage receives a diagnostic. location is the file the message
	// refers to and may be empty.
	OnMessage(kind MessageKind, location, text string)

	// OnDataMessage receives a value logged by the document with Log.data().
	OnDataMessage(name, value string)
}

// EventFuncs adapts plain functions to EventSink. Nil fields are skipped.
type EventFuncs struct {
	Message func(kind MessageKind, location, text string)
	Data    func(name, value string)
}

// OnMessage implements EventSink.
func (f EventFuncs) OnMessage(kind MessageKind, location, text string) {
	if f.Message != nil {
		f.Message(kind, location, text)
	}
}

// OnDataMessage implements EventSink.
func (f EventFuncs) OnDataMessage(name, value string) {
	if f.Data != nil {
		f.Data(name, value)
	}
}

// ReadMessages parses the engine's structured log from r and forwards every
// recognized message to sink, which may be nil. It reads until EOF and
// reports whether the last fin line said success; a log without fin is a
// failed conversion. The error only reports read failures of r.
//
// Recognized lines:
//
//	msg|KIND|LOCATION|TEXT
//	dat|NAME|VALUE
//	fin|RESULT
//
// Malformed msg and dat lines and unknown kinds are dropped. Any other line
// is free-form output and becomes a warning, an error or a debug message
// depending on its prefix.
func ReadMessages(r io.Reader, sink EventSink) (bool, error) {
	if sink == nil {
		sink = EventFuncs{}
	}

	br := bufio.NewReader(r)
	result := ""
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if fin, ok := handleLine(line, sink); ok {
				result = fin
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return false, fmt.Errorf("reading structured log: %w", err)
		}
	}
	return result == resultSuccess, nil
}

// handleLine dispatches one line. It returns the fin result when the line
// is a fin line.
func handleLine(line string, sink EventSink) (string, bool) {
	tag, body, ok := strings.Cut(line, "|")
	if !ok {
		handleFreeForm(line, sink)
		return "", false
	}

	switch tag {
	case "msg":
		parts := strings.SplitN(body, "|", 3)
		if len(parts) != 3 {
			return "", false
		}
		if kind, known := parseKind(parts[0]); known {
			sink.OnMessage(kind, parts[1], parts[2])
		}
	case "dat":
		if name, value, found := strings.Cut(body, "|"); found {
			sink.OnDataMessage(name, value)
		}
	case "fin":
		return body, true
	default:
		handleFreeForm(line, sink)
	}
	return "", false
}

func handleFreeForm(line string, sink EventSink) {
	switch {
	case strings.HasPrefix(line, warningPrefix):
		sink.OnMessage(KindWarning, "", strings.TrimPrefix(line, warningPrefix))
	case strings.HasPrefix(line, errorPrefix):
		sink.OnMessage(KindError, "", strings.TrimPrefix(line, errorPrefix))
	default:
		sink.OnMessage(KindDebug, "", line)
	}
}

func parseKind(s string) (MessageKind, bool) {
	kind := MessageKind(strings.ToUpper(s))
	switch kind {
	case KindError, KindWarning, KindInfo, KindDebug, KindOutput:
		return kind, true
	}
	return "", false
}

// LogSink returns an EventSink writing engine messages to logger at the
// matching level.
func LogSink(logger *bolt.Logger) EventSink {
	return &logSink{logger: logger}
}

type logSink struct {
	logger *bolt.Logger
}

func (s *logSink) OnMessage(kind MessageKind, location, text string) {
	var e *bolt.Event
	switch kind {
	case KindError:
		e = s.logger.Error()
	case KindWarning:
		e = s.logger.Warn()
	case KindInfo, KindOutput:
		e = s.logger.Info()
	default:
		e = s.logger.Debug()
	}
	logging.With(e, logging.Str("kind", string(kind)), logging.Location(location)).Msg(text)
}

func (s *logSink) OnDataMessage(name, value string) {
	s.logger.Info().Str("name", name).Str("value", value).Msg("engine data")
}

// teeSink forwards to every non-nil sink.
type teeSink []EventSink

func (t teeSink) OnMessage(kind MessageKind, location, text string) {
	for _, s := range t {
		s.OnMessage(kind, location, text)
	}
}

func (t teeSink) OnDataMessage(name, value string) {
	for _, s := range t {
		s.OnDataMessage(name, value)
	}
}

func tee(sinks ...EventSink) EventSink {
	var out teeSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
