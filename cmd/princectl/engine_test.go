package main

// Notes:
// - fakeEngine stands in for the engine executable through Environment.Launcher.
//   It speaks both modes: the control protocol when --control is passed, and
//   the one-shot convention (document on stdout, structured log on stderr)
//   otherwise.
// - A document is rejected (fin|failure) when its input path or in-memory
//   content contains the word "reject". This lets a test mix good and bad
//   inputs in one batch.

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"

	prince "github.com/alnah/go-prince"
	"github.com/alnah/go-prince/internal/chunk"
)

const (
	fakePDF     = "%PDF-1.7 fake"
	fakePNG     = "\x89PNG fake"
	fakeVersion = "Prince 16 fake"
)

var errKilled = errors.New("signal: killed")

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake process
// ---------------------------------------------------------------------------

type pipeProcess struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	done    chan struct{}
	once    sync.Once
	exitErr error
}

func newPipeProcess() *pipeProcess {
	p := &pipeProcess{done: make(chan struct{})}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	return p
}

func (p *pipeProcess) Stdin() io.WriteCloser   { return p.stdinW }
func (p *pipeProcess) Stdout() io.Reader       { return p.stdoutR }
func (p *pipeProcess) Stderr() io.Reader       { return p.stderrR }
func (p *pipeProcess) Pid() int                { return 7 }
func (p *pipeProcess) Exited() <-chan struct{} { return p.done }

func (p *pipeProcess) Wait() error {
	<-p.done
	return p.exitErr
}

func (p *pipeProcess) Kill() error {
	p.exit(errKilled)
	return nil
}

func (p *pipeProcess) exit(err error) {
	p.once.Do(func() {
		p.exitErr = err
		_ = p.stdinR.CloseWithError(io.ErrClosedPipe)
		_ = p.stdoutW.Close()
		_ = p.stderrW.Close()
		close(p.done)
	})
}

// ---------------------------------------------------------------------------
// Test Infrastructure - Fake engine
// ---------------------------------------------------------------------------

type fakeEngine struct {
	launchErr error

	mu    sync.Mutex
	paths []string
	calls [][]string
	jobs  []string // input sources seen, in arrival order
}

var _ prince.Launcher = (*fakeEngine)(nil)

func (f *fakeEngine) Launch(path string, args []string) (prince.Process, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.calls = append(f.calls, slices.Clone(args))
	f.mu.Unlock()

	if f.launchErr != nil {
		return nil, f.launchErr
	}

	p := newPipeProcess()
	if slices.Contains(args, "--control") {
		go func() { p.exit(f.serveControl(p)) }()
	} else {
		go func() { p.exit(f.serveOneShot(p, args)) }()
	}
	return p, nil
}

func (f *fakeEngine) record(src string) {
	f.mu.Lock()
	f.jobs = append(f.jobs, src)
	f.mu.Unlock()
}

func (f *fakeEngine) launches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEngine) inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.jobs)
}

func (f *fakeEngine) allArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []string
	for _, c := range f.calls {
		all = append(all, c...)
	}
	return all
}

func (f *fakeEngine) serveControl(p *pipeProcess) error {
	in := p.stdinR
	if err := chunk.WriteString(p.stdoutW, chunk.TagVersion, fakeVersion); err != nil {
		return err
	}
	_ = p.stderrW.Close()

	for {
		c, err := chunk.Read(in)
		if err != nil {
			return err
		}
		if c.Tag == chunk.TagEnd {
			return nil
		}

		var desc struct {
			Input struct {
				Src []string `json:"src"`
			} `json:"input"`
			ResourceCount int `json:"job-resource-count"`
		}
		if err := json.Unmarshal(c.Data, &desc); err != nil {
			return err
		}
		content := strings.Join(desc.Input.Src, " ")
		for range desc.ResourceCount {
			d, err := chunk.Read(in)
			if err != nil {
				return err
			}
			content += string(d.Data)
		}
		f.record(strings.Join(desc.Input.Src, " "))

		if strings.Contains(content, "reject") {
			err = chunk.WriteString(p.stdoutW, chunk.TagLog, "msg|err||rejected\nfin|failure\n")
		} else {
			if err = chunk.WriteString(p.stdoutW, chunk.TagPDF, fakePDF); err == nil {
				err = chunk.WriteString(p.stdoutW, chunk.TagLog, "fin|success\n")
			}
		}
		if err != nil {
			return err
		}
	}
}

func (f *fakeEngine) serveOneShot(p *pipeProcess, args []string) error {
	stdin, err := io.ReadAll(p.stdinR)
	if err != nil {
		return err
	}
	src := args[len(args)-2]
	f.record(src)

	doc := fakePDF
	if slices.Contains(args, "--raster-output=-") {
		doc = fakePNG
	}

	var log bytes.Buffer
	if strings.Contains(src, "reject") || bytes.Contains(stdin, []byte("reject")) {
		log.WriteString("msg|err||rejected\nfin|failure\n")
	} else {
		log.WriteString("fin|success\n")
		if _, err := io.WriteString(p.stdoutW, doc); err != nil {
			return err
		}
	}
	_ = p.stdoutW.Close()
	_, err = p.stderrW.Write(log.Bytes())
	return err
}
