package prince

import (
	"context"
	"io"
)

// Compile-time interface implementation checks.
var (
	_ Converter = (*Control)(nil)
	_ Converter = (*Prince)(nil)
	_ Converter = (*ControlPool)(nil)
	_ io.Closer = (*Control)(nil)
	_ io.Closer = (*ControlPool)(nil)

	_ EventSink = EventFuncs{}
	_ EventSink = (*logSink)(nil)
	_ EventSink = teeSink(nil)
)

// Converter is the common contract of the conversion strategies: a
// long-lived control session (Control, ControlPool) or one process per job
// (Prince).
//
// Convert writes the produced document to out, which may be nil, and
// reports whether the engine's log ended in success. A false result with a
// nil error is an ordinary failed conversion; engine messages explain it.
type Converter interface {
	Convert(ctx context.Context, job *Job, out io.Writer) (bool, error)
}
