package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	prince "github.com/alnah/go-prince"
	"github.com/alnah/go-prince/internal/markdown"
)

// rasterConverter renders page images with a one-shot converter.
type rasterConverter struct {
	p *prince.Prince
}

// Compile-time interface implementation check.
var _ prince.Converter = rasterConverter{}

func (r rasterConverter) Convert(ctx context.Context, job *prince.Job, out io.Writer) (bool, error) {
	return r.p.Rasterize(ctx, job, out)
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// convertBatch processes files concurrently, at most workers at a time.
func convertBatch(ctx context.Context, conv prince.Converter, workers int, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := max(1, min(workers, len(files)))
	results := make([]ConversionResult, len(files))
	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Go(func() {
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		})
	}

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv prince.Converter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	if params.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.timeout)
		defer cancel()
	}

	job, err := buildInputJob(ctx, f, params)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	var doc bytes.Buffer
	ok, err := conv.Convert(ctx, job, &doc)
	switch {
	case err != nil:
		result.Err = err
	case !ok:
		result.Err = ErrDocumentRejected
	default:
		result.Err = writeOutput(f.OutputPath, doc.Bytes(), params.stdout)
	}

	result.Duration = time.Since(start)
	return result
}

// buildInputJob returns the job for one input. Markdown is rendered here and
// sent in memory; other inputs are read by the engine itself.
func buildInputJob(ctx context.Context, f FileToConvert, params *conversionParams) (*prince.Job, error) {
	job := buildJob(params.cfg, params.raster)

	switch f.Kind {
	case kindURL:
		job.Inputs = []string{f.InputPath}
	case kindMarkup:
		abs, err := filepath.Abs(f.InputPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		job.Inputs = []string{abs}
	case kindMarkdown:
		content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		abs, err := filepath.Abs(f.InputPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
		}

		title := job.Title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
		}
		html, err := params.renderer.Render(ctx, markdown.Source{
			Content: content,
			Title:   title,
			Dir:     filepath.Dir(abs),
		})
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", f.InputPath, err)
		}
		job.InputType = prince.InputHTML
		job.AddInput(html)
	}
	return job, nil
}

// writeOutput writes data to path, creating parent directories, or to
// stdout for stdoutOutput.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == stdoutOutput {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDir, err)
	}
	// #nosec G306 -- documents are meant to be readable
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// firstError returns the first failure in input order.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// Result labels. color disables itself when stdout is not a terminal or
// NO_COLOR is set.
var (
	failedLabel  = color.New(color.FgRed, color.Bold)
	createdLabel = color.New(color.FgGreen)
)

// printResultsWithWriter outputs conversion results using the provided writers.
// Documents written to stdout are not announced there. Returns the failure count.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "%s %s: %v\n", failedLabel.Sprint("FAILED"), r.InputPath, r.Err)
			continue
		}

		if quiet || r.OutputPath == stdoutOutput {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "%s %s\n", createdLabel.Sprint("Created"), r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
