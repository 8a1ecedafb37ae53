package prince

// Notes:
// - The fake launcher runs a scripted stub engine in a goroutine, connected
//   to the code under test with io.Pipe. Pipes are synchronous, so every
//   script must read what the code under test writes.
// - Killing a fake process closes its pipes, which unblocks both sides the
//   way a real process exit does.

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/alnah/go-prince/internal/chunk"
)

const fakePid = 4242

var errFakeKilled = errors.New("signal: killed")

// ---------------------------------------------------------------------------
// fakeProcess
// ---------------------------------------------------------------------------

type fakeProcess struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	done    chan struct{}
	killed  chan struct{}
	once    sync.Once
	killOne sync.Once
	exitErr error
}

func newFakeProcess() *fakeProcess {
	p := &fakeProcess{done: make(chan struct{}), killed: make(chan struct{})}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	return p
}

func (p *fakeProcess) Stdin() io.WriteCloser   { return p.stdinW }
func (p *fakeProcess) Stdout() io.Reader       { return p.stdoutR }
func (p *fakeProcess) Stderr() io.Reader       { return p.stderrR }
func (p *fakeProcess) Pid() int                { return fakePid }
func (p *fakeProcess) Exited() <-chan struct{} { return p.done }

func (p *fakeProcess) Wait() error {
	<-p.done
	return p.exitErr
}

func (p *fakeProcess) Kill() error {
	p.killOne.Do(func() { close(p.killed) })
	p.exit(errFakeKilled)
	return nil
}

// exit closes the engine side of every pipe and marks the process done.
func (p *fakeProcess) exit(err error) {
	p.once.Do(func() {
		p.exitErr = err
		_ = p.stdinR.CloseWithError(io.ErrClosedPipe)
		_ = p.stdoutW.Close()
		_ = p.stderrW.Close()
		close(p.done)
	})
}

// ---------------------------------------------------------------------------
// fakeLauncher
// ---------------------------------------------------------------------------

// engineIO is the engine side of a fake process.
type engineIO struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	args   []string
	killed <-chan struct{}
}

type script func(e *engineIO) error

type fakeLauncher struct {
	script script
	err    error

	mu    sync.Mutex
	calls [][]string
	paths []string
	procs []*fakeProcess
}

func (l *fakeLauncher) Launch(path string, args []string) (Process, error) {
	l.mu.Lock()
	l.calls = append(l.calls, append([]string(nil), args...))
	l.paths = append(l.paths, path)
	l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}

	p := newFakeProcess()
	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()

	e := &engineIO{
		in:     bufio.NewReader(p.stdinR),
		out:    p.stdoutW,
		errOut: p.stderrW,
		args:   args,
		killed: p.killed,
	}
	go func() {
		p.exit(l.script(e))
	}()
	return p, nil
}

func (l *fakeLauncher) lastArgs(t *testing.T) []string {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.calls) == 0 {
		t.Fatal("engine was never launched")
	}
	return l.calls[len(l.calls)-1]
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// ---------------------------------------------------------------------------
// Stub control engine
// ---------------------------------------------------------------------------

// stubJob is what the stub engine received for one job.
type stubJob struct {
	Raw       []byte
	Desc      jobJSON
	Resources [][]byte
}

// reply answers one job. Returning an error ends the engine.
type reply func(e *engineIO, job stubJob) error

// controlEngine announces version then serves jobs with answer until an end
// chunk arrives.
func controlEngine(version string, answer reply) script {
	return func(e *engineIO) error {
		if err := chunk.WriteString(e.out, chunk.TagVersion, version); err != nil {
			return err
		}
		for {
			c, err := chunk.Read(e.in)
			if err != nil {
				return err
			}
			switch c.Tag {
			case chunk.TagEnd:
				return nil
			case chunk.TagJob:
				job := stubJob{Raw: c.Data}
				if err := json.Unmarshal(c.Data, &job.Desc); err != nil {
					return err
				}
				for range job.Desc.ResourceCount {
					d, err := chunk.Read(e.in)
					if err != nil {
						return err
					}
					if d.Tag != chunk.TagData {
						return fmt.Errorf("expected dat chunk, got %q", d.Tag)
					}
					job.Resources = append(job.Resources, d.Data)
				}
				if err := answer(e, job); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unexpected chunk %q", c.Tag)
			}
		}
	}
}

// pdfReply answers with a pdf chunk and a log chunk.
func pdfReply(pdf, log string) reply {
	return func(e *engineIO, _ stubJob) error {
		if err := chunk.WriteString(e.out, chunk.TagPDF, pdf); err != nil {
			return err
		}
		return chunk.WriteString(e.out, chunk.TagLog, log)
	}
}

// handshakeEngine writes one chunk and waits to be killed or for stdin EOF.
func handshakeEngine(tag, payload string) script {
	return func(e *engineIO) error {
		if err := chunk.WriteString(e.out, tag, payload); err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, e.in)
		return errors.New("exit status 1")
	}
}

// ---------------------------------------------------------------------------
// Event recording
// ---------------------------------------------------------------------------

type recordedMessage struct {
	Kind     MessageKind
	Location string
	Text     string
}

type recorder struct {
	mu       sync.Mutex
	messages []recordedMessage
	data     [][2]string
}

func (r *recorder) OnMessage(kind MessageKind, location, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, recordedMessage{kind, location, text})
}

func (r *recorder) OnDataMessage(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, [2]string{name, value})
}

func (r *recorder) snapshot() []recordedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedMessage(nil), r.messages...)
}

// failingWriter fails every write.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
