package prince

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/google/uuid"

	"github.com/alnah/go-prince/internal/chunk"
	"github.com/alnah/go-prince/internal/lifecycle"
	"github.com/alnah/go-prince/internal/logging"
	"github.com/alnah/go-prince/internal/metrics"
)

// SessionState is the lifecycle state of a Control.
type SessionState = lifecycle.State

// Session states.
const (
	StateNotStarted = lifecycle.NotStarted
	StateRunning    = lifecycle.Running
	StateStopped    = lifecycle.Stopped
	StateFailed     = lifecycle.Failed
)

const modeControl = "control"

// Control drives one long-lived engine process over the chunk protocol.
// Start it once, run any number of jobs, then Stop it.
//
// Calls are serialized: one job is in flight at a time. A Control that
// failed to start, or whose process stopped answering, ends in StateFailed
// and cannot be reused.
type Control struct {
	cfg     config
	id      string
	machine *lifecycle.Machine

	mu      sync.Mutex
	proc    Process
	stdout  *bufio.Reader
	stderr  *stderrDrain
	version string
}

// NewControl creates a session in StateNotStarted. No process is spawned
// until Start.
func NewControl(opts ...Option) (*Control, error) {
	id := uuid.NewString()
	machine, err := lifecycle.New("control-" + id)
	if err != nil {
		return nil, err
	}
	return &Control{
		cfg:     newConfig(opts),
		id:      id,
		machine: machine,
	}, nil
}

// ID returns the session identifier used in logs.
func (c *Control) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Control) State() SessionState {
	return c.machine.State()
}

// Version returns the engine version announced in the handshake, or ""
// before a successful Start.
func (c *Control) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Start spawns the engine in control mode and waits for its handshake.
// Cancelling ctx before the handshake kills the engine.
func (c *Control) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.machine.Require(StateNotStarted, "start"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.cfg.base.Validate(); err != nil {
		return err
	}

	args := append(c.cfg.base.Args(), "--control")
	proc, err := c.cfg.launcher.Launch(c.cfg.enginePath, args)
	if err != nil {
		c.machine.Fail()
		if !errors.Is(err, ErrStartup) {
			err = fmt.Errorf("%w: %w", ErrStartup, err)
		}
		c.log(c.cfg.logger.Error(), logging.Error(err)).Msg("engine spawn failed")
		return err
	}

	c.proc = proc
	c.stdout = bufio.NewReader(proc.Stdout())
	c.stderr = drainStderr(proc.Stderr(), func(line string) {
		c.log(c.cfg.logger.Debug(), logging.PID(proc.Pid())).Msg(line)
	})

	stop := context.AfterFunc(ctx, func() { _ = proc.Kill() })
	defer stop()

	hello, err := chunk.Read(c.stdout)
	if err != nil {
		c.abort()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: engine exited before handshake: %w: %w", ErrStartup, err, ctxErr)
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: engine exited before handshake: %w%s", ErrStartup, err, c.stderr.suffix())
		}
		return fmt.Errorf("%w: reading handshake: %w%s", ErrStartup, err, c.stderr.suffix())
	}

	switch hello.Tag {
	case chunk.TagVersion:
		c.version = hello.String()
		if err := c.machine.Start(); err != nil {
			c.abort()
			return err
		}
		c.cfg.metrics.SessionStarted()
		c.log(c.cfg.logger.Info(), logging.PID(proc.Pid()), logging.Str("version", c.version)).
			Msg("engine started")
		return nil
	case chunk.TagError:
		c.abort()
		return fmt.Errorf("%w: %s", ErrStartup, hello.String())
	default:
		c.abort()
		return fmt.Errorf("%w: unexpected %q chunk in handshake", ErrProtocol, hello.Tag)
	}
}

// Convert runs job and copies the produced document to out, which may be
// nil to discard it. It reports whether the engine's log ended in success.
//
// An err chunk from the engine returns ErrConversion and leaves the session
// running. Pipe and framing failures return ErrIO and abort the session, as
// does cancelling ctx while the job is in flight. A failing out is reported
// after the response has been read, without aborting.
func (c *Control) Convert(ctx context.Context, job *Job, out io.Writer) (bool, error) {
	if job == nil {
		return false, ErrNilJob
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.machine.Require(StateRunning, "convert"); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := job.Validate(); err != nil {
		return false, err
	}
	payload, err := job.MarshalJSON()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}

	proc := c.proc
	stop := context.AfterFunc(ctx, func() { _ = proc.Kill() })
	defer stop()

	started := time.Now()
	res, err := c.exchange(payload, job.resources, out)
	elapsed := time.Since(started)

	if err != nil && res.fatal {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", err, ctxErr)
		}
		c.abort()
	}

	c.record(res, err, elapsed, len(job.resources))
	return res.ok, err
}

// exchangeResult describes one job round trip.
type exchangeResult struct {
	ok      bool
	written int
	fatal   bool // session must be aborted
}

// exchange writes the job and its resources, then decodes the response.
func (c *Control) exchange(payload []byte, resources [][]byte, out io.Writer) (exchangeResult, error) {
	w := bufio.NewWriter(c.proc.Stdin())
	if err := writeJob(w, payload, resources); err != nil {
		return exchangeResult{fatal: true}, fmt.Errorf("%w: sending job: %w", ErrIO, err)
	}

	resp, err := chunk.Read(c.stdout)
	if err != nil {
		return exchangeResult{fatal: true}, fmt.Errorf("%w: reading response: %w", ErrIO, err)
	}

	var res exchangeResult
	var outErr error
	switch resp.Tag {
	case chunk.TagPDF, chunk.TagPNG, chunk.TagJPEG:
		if out != nil {
			res.written, outErr = out.Write(resp.Data)
		} else {
			res.written = len(resp.Data)
		}
		if resp, err = chunk.Read(c.stdout); err != nil {
			return exchangeResult{fatal: true}, fmt.Errorf("%w: reading log: %w", ErrIO, err)
		}
	}

	switch resp.Tag {
	case chunk.TagLog:
		res.ok, _ = ReadMessages(bytes.NewReader(resp.Data), tee(c.cfg.events, LogSink(c.cfg.logger)))
	case chunk.TagError:
		return exchangeResult{written: res.written}, fmt.Errorf("%w: %s", ErrConversion, resp.String())
	default:
		return exchangeResult{fatal: true}, fmt.Errorf("%w: unexpected %q chunk in response", ErrIO, resp.Tag)
	}

	if outErr != nil {
		return res, fmt.Errorf("writing output: %w", outErr)
	}
	return res, nil
}

func writeJob(w *bufio.Writer, payload []byte, resources [][]byte) error {
	if err := chunk.Write(w, chunk.TagJob, payload); err != nil {
		return err
	}
	for _, r := range resources {
		if err := chunk.Write(w, chunk.TagData, r); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (c *Control) record(res exchangeResult, err error, elapsed time.Duration, resources int) {
	outcome := metrics.OutcomeSuccess
	event := c.cfg.logger.Info()
	switch {
	case err != nil && !errors.Is(err, ErrConversion):
		outcome = metrics.OutcomeError
		event = c.cfg.logger.Error()
	case err != nil || !res.ok:
		outcome = metrics.OutcomeFailure
		event = c.cfg.logger.Warn()
	}

	c.cfg.metrics.ObserveConvert(modeControl, outcome, elapsed)
	c.cfg.metrics.AddOutput(modeControl, res.written)
	c.log(event,
		logging.Str("outcome", outcome),
		logging.Bytes(res.written),
		logging.Resources(resources),
		logging.Duration(elapsed),
		logging.Error(err),
	).Msg("job finished")
}

// Stop asks the engine to exit, waits for it, and moves the session to
// StateStopped. Errors describe an unclean exit; the session is stopped
// either way.
func (c *Control) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.machine.Require(StateRunning, "stop"); err != nil {
		return err
	}

	var errs []error
	if err := chunk.Write(c.proc.Stdin(), chunk.TagEnd, nil); err != nil {
		errs = append(errs, fmt.Errorf("%w: sending end: %w", ErrIO, err))
	}
	_ = c.proc.Stdin().Close()
	_, _ = io.Copy(io.Discard, c.stdout)
	c.stderr.wait(drainGrace)
	if err := c.proc.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("%w: engine exit: %w", ErrIO, err))
	}

	_ = c.machine.Stop()
	c.cfg.metrics.SessionStopped()
	c.log(c.cfg.logger.Info(), logging.Error(errors.Join(errs...))).Msg("engine stopped")
	return errors.Join(errs...)
}

// Close stops a running session and is a no-op in any other state. An
// engine that already exited is reaped and the session marked failed.
func (c *Control) Close() error {
	if c.State() != StateRunning {
		return nil
	}

	c.mu.Lock()
	if c.machine.State() == StateRunning && exited(c.proc) {
		c.abort()
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	err := c.Stop()
	if errors.Is(err, ErrLifecycle) {
		return nil // lost a race with another Stop
	}
	return err
}

func exited(p Process) bool {
	select {
	case <-p.Exited():
		return true
	default:
		return false
	}
}

// abort kills the engine and fails the session. Callers hold c.mu.
func (c *Control) abort() {
	wasRunning := c.machine.State() == StateRunning

	_ = c.proc.Kill()
	c.stderr.wait(drainGrace)
	_ = c.proc.Wait()
	c.machine.Fail()

	if wasRunning {
		c.cfg.metrics.SessionStopped()
	}
	c.log(c.cfg.logger.Warn()).Msg("engine aborted")
}

// log adds the session fields to e.
func (c *Control) log(e *bolt.Event, fields ...logging.Field) *bolt.Event {
	e = logging.With(e, logging.SessionID(c.id), logging.State(string(c.machine.State())))
	return logging.With(e, fields...)
}
