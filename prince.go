package prince

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alnah/go-prince/internal/chunk"
	"github.com/alnah/go-prince/internal/cmdline"
	"github.com/alnah/go-prince/internal/fileutil"
	"github.com/alnah/go-prince/internal/logging"
	"github.com/alnah/go-prince/internal/metrics"
)

// Structured log modes of a one-shot run.
const (
	logBuffered = "buffered" // output on stdout, log after it
	logNormal   = "normal"   // output to a file, log streamed
)

// Conversion modes recorded in logs and metrics.
const (
	modeOneShot = "oneshot"
	modeFile    = "file"
	modeRaster  = "raster"
)

// stdinInput is the input argument that makes the engine read stdin.
const stdinInput = "-"

// Prince runs one engine process per conversion. It has no session state
// and is safe for concurrent use.
type Prince struct {
	cfg config
}

// NewPrince creates a one-shot converter.
func NewPrince(opts ...Option) *Prince {
	return &Prince{cfg: newConfig(opts)}
}

// Convert converts job to PDF and copies it to out, which may be nil to
// discard it. It reports whether the engine's log ended in success.
func (p *Prince) Convert(ctx context.Context, job *Job, out io.Writer) (bool, error) {
	return p.run(ctx, job, invocation{
		mode:   modeOneShot,
		log:    logBuffered,
		output: cmdline.Value("output", "-"),
		out:    out,
	})
}

// ConvertFile converts job to a PDF written by the engine at outputPath.
func (p *Prince) ConvertFile(ctx context.Context, job *Job, outputPath string) (bool, error) {
	if outputPath == "" {
		return false, fmt.Errorf("%w: empty output path", ErrInvalidOption)
	}
	return p.run(ctx, job, invocation{
		mode:   modeFile,
		log:    logNormal,
		output: cmdline.Value("output", outputPath),
	})
}

// Rasterize renders page RasterPage of job as a PNG or JPEG image and
// copies it to out.
func (p *Prince) Rasterize(ctx context.Context, job *Job, out io.Writer) (bool, error) {
	if err := checkRaster(job); err != nil {
		return false, err
	}
	return p.run(ctx, job, invocation{
		mode:   modeRaster,
		log:    logBuffered,
		output: cmdline.Value("raster-output", "-"),
		out:    out,
	})
}

// RasterizeFile renders job to image files named after pattern, such as
// "page_%02d.png". Every page is rendered unless RasterPage is set.
func (p *Prince) RasterizeFile(ctx context.Context, job *Job, pattern string) (bool, error) {
	if pattern == "" {
		return false, fmt.Errorf("%w: empty raster output pattern", ErrInvalidOption)
	}
	return p.run(ctx, job, invocation{
		mode:   modeRaster,
		log:    logNormal,
		output: cmdline.Value("raster-output", pattern),
	})
}

func checkRaster(job *Job) error {
	if job == nil {
		return ErrNilJob
	}
	if job.RasterPage < 1 {
		return ErrRasterPageRequired
	}
	if job.RasterFormat != RasterPNG && job.RasterFormat != RasterJPEG {
		return ErrRasterFormatRequired
	}
	return nil
}

// invocation describes one engine run.
type invocation struct {
	mode   string
	log    string
	output string
	out    io.Writer
}

func (p *Prince) run(ctx context.Context, job *Job, r invocation) (bool, error) {
	if job == nil {
		return false, ErrNilJob
	}
	if err := job.Validate(); err != nil {
		return false, err
	}
	if len(job.Inputs) == 0 {
		return false, ErrNoInput
	}
	if err := p.cfg.base.Validate(); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	local, stdin, cleanup, err := materialize(job)
	if err != nil {
		return false, fmt.Errorf("%w: staging resources: %w", ErrIO, err)
	}
	defer cleanup()

	args := p.cfg.base.Args()
	args = append(args, cmdline.Value("structured-log", r.log))
	args = append(args, local.flags()...)
	args = append(args, local.Inputs...)
	args = append(args, r.output)

	started := time.Now()
	ok, written, err := p.exec(ctx, args, stdin, r.out)
	p.record(r.mode, ok, written, err, time.Since(started))
	return ok, err
}

// exec runs the engine once, feeding stdin and copying stdout to out while
// stderr is parsed as the structured log.
func (p *Prince) exec(ctx context.Context, args []string, stdin []byte, out io.Writer) (bool, int64, error) {
	proc, err := p.cfg.launcher.Launch(p.cfg.enginePath, args)
	if err != nil {
		if !errors.Is(err, ErrStartup) {
			err = fmt.Errorf("%w: %w", ErrStartup, err)
		}
		return false, 0, err
	}
	stop := context.AfterFunc(ctx, func() { _ = proc.Kill() })
	defer stop()

	stdinErr := make(chan error, 1)
	go func() {
		var err error
		if stdin != nil {
			_, err = proc.Stdin().Write(stdin)
		}
		if closeErr := proc.Stdin().Close(); err == nil {
			err = closeErr
		}
		stdinErr <- err
	}()

	type logResult struct {
		ok  bool
		err error
	}
	logDone := make(chan logResult, 1)
	sink := tee(p.cfg.events, LogSink(p.cfg.logger))
	go func() {
		ok, err := ReadMessages(proc.Stderr(), sink)
		logDone <- logResult{ok: ok, err: err}
	}()

	if out == nil {
		out = io.Discard
	}
	written, copyErr := io.Copy(out, proc.Stdout())
	if copyErr != nil {
		// Keep the engine from blocking on a stdout nobody reads.
		_, _ = io.Copy(io.Discard, proc.Stdout())
	}
	logRes := <-logDone
	writeErr := <-stdinErr
	waitErr := proc.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, written, fmt.Errorf("%w: engine killed: %w", ErrIO, ctxErr)
	}
	if copyErr != nil {
		return logRes.ok, written, fmt.Errorf("%w: copying output: %w", ErrIO, copyErr)
	}
	if logRes.err != nil {
		return false, written, fmt.Errorf("%w: %w", ErrIO, logRes.err)
	}
	// An engine that failed early stops reading stdin; its log says why.
	if writeErr != nil && logRes.ok {
		return false, written, fmt.Errorf("%w: writing input: %w", ErrIO, writeErr)
	}
	if waitErr != nil {
		logging.With(p.cfg.logger.Debug(), logging.PID(proc.Pid()), logging.Error(waitErr)).Msg("engine exit status")
	}
	return logRes.ok, written, nil
}

func (p *Prince) record(mode string, ok bool, written int64, err error, elapsed time.Duration) {
	outcome := metrics.OutcomeSuccess
	event := p.cfg.logger.Info()
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		event = p.cfg.logger.Error()
	case !ok:
		outcome = metrics.OutcomeFailure
		event = p.cfg.logger.Warn()
	}

	p.cfg.metrics.ObserveConvert(mode, outcome, elapsed)
	p.cfg.metrics.AddOutput(mode, int(written))
	logging.With(event,
		logging.Mode(mode),
		logging.Str("outcome", outcome),
		logging.Bytes(int(written)),
		logging.Duration(elapsed),
		logging.Error(err),
	).Msg("job finished")
}

// materialize returns a copy of job whose job-resource references point at
// files on disk. A job whose only input is in memory passes that input on
// stdin instead. cleanup removes every staged file.
func materialize(job *Job) (local *Job, stdin []byte, cleanup func(), err error) {
	cp := *job
	local = &cp
	cleanup = func() {}
	if len(job.resources) == 0 {
		return local, nil, cleanup, nil
	}

	stdinIdx := -1
	if len(job.Inputs) == 1 {
		if idx, ok := chunk.ParseResourceRef(job.Inputs[0]); ok {
			stdinIdx = idx
		}
	}

	names := make(map[int]string, len(job.resources))
	ext := make(map[int]string, len(job.resources))
	mark := func(refs []string, e string) {
		for _, ref := range refs {
			if idx, ok := chunk.ParseResourceRef(ref); ok {
				ext[idx] = e
			}
		}
	}
	mark(job.Inputs, inputExtension(job.InputType))
	mark(job.Scripts, "js")
	mark(job.StyleSheets, "css")
	for _, a := range job.Attachments {
		if idx, ok := chunk.ParseResourceRef(a.URL); ok {
			ext[idx] = "bin"
			names[idx] = a.Filename
		}
	}

	needFiles := false
	for idx := range ext {
		if idx != stdinIdx {
			needFiles = true
			break
		}
	}

	paths := make(map[int]string, len(ext))
	if needFiles {
		dir, removeDir, err := fileutil.TempDir()
		if err != nil {
			return nil, nil, nil, err
		}
		cleanup = removeDir

		for idx, e := range ext {
			if idx == stdinIdx {
				continue
			}
			path, err := stageResource(dir, idx, names[idx], e, job.resources[idx])
			if err != nil {
				cleanup()
				return nil, nil, nil, err
			}
			paths[idx] = path
		}
	}

	resolve := func(refs []string) []string {
		if refs == nil {
			return nil
		}
		out := make([]string, len(refs))
		for i, ref := range refs {
			out[i] = ref
			if idx, ok := chunk.ParseResourceRef(ref); ok {
				if idx == stdinIdx {
					out[i] = stdinInput
				} else if path, staged := paths[idx]; staged {
					out[i] = path
				}
			}
		}
		return out
	}

	local.Inputs = resolve(job.Inputs)
	local.Scripts = resolve(job.Scripts)
	local.StyleSheets = resolve(job.StyleSheets)
	local.Attachments = make([]Attachment, len(job.Attachments))
	for i, a := range job.Attachments {
		a.URL = resolve([]string{a.URL})[0]
		local.Attachments[i] = a
	}

	if stdinIdx >= 0 {
		stdin = job.resources[stdinIdx]
	}
	return local, stdin, cleanup, nil
}

// stageResource writes one resource under dir. Attachments with a file name
// keep it, in a per-resource subdirectory so names cannot collide.
func stageResource(dir string, idx int, name, ext string, data []byte) (string, error) {
	name = filepath.Base(name)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		name = ""
	}
	if name == "" {
		path, _, err := fileutil.WriteTempFile(dir, data, ext)
		return path, err
	}

	sub := filepath.Join(dir, strconv.Itoa(idx))
	if err := os.Mkdir(sub, 0o700); err != nil {
		return "", fmt.Errorf("creating attachment dir: %w", err)
	}
	path := filepath.Join(sub, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing attachment: %w", err)
	}
	return path, nil
}

func inputExtension(t InputType) string {
	if t == InputXML {
		return "xml"
	}
	return "html"
}
