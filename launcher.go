package prince

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/alnah/go-prince/internal/fileutil"
	"github.com/alnah/go-prince/internal/process"
)

// Process is a running engine with redirected standard streams.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Stderr() io.Reader
	Pid() int

	// Wait blocks until the process exits and releases its streams.
	// Safe to call more than once.
	Wait() error

	// Kill terminates the process and its children.
	Kill() error

	// Exited is closed once the process has exited.
	Exited() <-chan struct{}
}

// Launcher starts engine processes.
type Launcher interface {
	Launch(path string, args []string) (Process, error)
}

// Compile-time interface implementation checks.
var (
	_ Launcher = ExecLauncher{}
	_ Process  = (*execProcess)(nil)
)

// ExecLauncher starts the engine with os/exec. The engine runs in its own
// process group so Kill also reaps its children.
type ExecLauncher struct{}

// Launch starts path with args. Spawn failures match ErrStartup and one of
// ErrEngineNotFound, ErrEnginePathNotFound or ErrEnginePermission when the
// cause is known.
func (ExecLauncher) Launch(path string, args []string) (Process, error) {
	cmd := exec.Command(path, args...) // #nosec G204 -- engine path is caller configuration
	configureProcAttr(cmd)

	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	pipe := func() (*os.File, *os.File, error) {
		r, w, err := os.Pipe()
		if err == nil {
			files = append(files, r, w)
		}
		return r, w, err
	}

	stdinR, stdinW, err := pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: creating stdin pipe: %w", ErrStartup, err)
	}
	stdoutR, stdoutW, err := pipe()
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("%w: creating stdout pipe: %w", ErrStartup, err)
	}
	stderrR, stderrW, err := pipe()
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("%w: creating stderr pipe: %w", ErrStartup, err)
	}

	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		closeAll()
		return nil, spawnError(path, err)
	}

	// The child owns its ends now.
	_ = stdinR.Close()
	_ = stdoutW.Close()
	_ = stderrW.Close()

	p := &execProcess{
		cmd:       cmd,
		stdin:     stdinW,
		stdout:    stdoutR,
		stderr:    stderrR,
		done:      make(chan struct{}),
		killGroup: process.KillProcessGroup,
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd       *exec.Cmd
	stdin     *os.File
	stdout    *os.File
	stderr    *os.File
	done      chan struct{}
	waitErr   error
	closeOnce sync.Once
	killGroup func(pid int)
}

func (p *execProcess) Stdin() io.WriteCloser { return p.stdin }
func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }
func (p *execProcess) Pid() int { return p.cmd.Process.Pid }
func (p *execProcess) Exited() <-chan struct{} { return p.done }

// Wait also releases the parent ends of the output pipes, so callers drain
// them first.
func (p *execProcess) Wait() error {
	<-p.done
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()
		_ = p.stdout.Close()
		_ = p.stderr.Close()
	})
	return p.waitErr
}

// Kill is a no-op once the process has been reaped: its pid may already
// belong to another process group.
func (p *execProcess) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	p.killGroup(p.cmd.Process.Pid)
	_ = p.stdin.Close()
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing engine: %w", err)
	}
	return nil
}

// spawnError diagnoses why the engine could not be started.
func spawnError(path string, err error) error {
	var diag error
	switch {
	case errors.Is(err, exec.ErrNotFound):
		diag = ErrEngineNotFound
	case errors.Is(err, fs.ErrPermission):
		diag = ErrEnginePermission
	case errors.Is(err, syscall.ENOTDIR):
		diag = ErrEnginePathNotFound
	case errors.Is(err, fs.ErrNotExist):
		diag = ErrEngineNotFound
		if dir := filepath.Dir(path); dir != "." && !fileutil.DirExists(dir) {
			diag = ErrEnginePathNotFound
		}
	}

	if diag == nil {
		return fmt.Errorf("%w: starting %s: %w", ErrStartup, path, err)
	}
	return fmt.Errorf("%w: %w: %s: %w", ErrStartup, diag, path, err)
}
