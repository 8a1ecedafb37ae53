package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-prince/internal/fileutil"
)

// Sentinel errors for input discovery.
var (
	ErrUnsupportedInput = errors.New("unsupported input")
	ErrNoInput          = errors.New("no input specified")
)

// stdoutOutput writes the single document to standard output.
const stdoutOutput = "-"

// Input extensions.
var (
	markdownExtensions = []string{".md", ".markdown"}
	markupExtensions   = []string{".html", ".htm", ".xhtml", ".xml"}
)

// inputKind selects how an input reaches the engine.
type inputKind int

const (
	kindMarkup   inputKind = iota // html or xml file, passed by path
	kindMarkdown                  // rendered to HTML, passed in memory
	kindURL                       // fetched by the engine
)

// FileToConvert represents a single input to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string // stdoutOutput for standard output
	Kind       inputKind
}

// discoverInputs expands args into inputs and their output paths.
// Directories are walked for supported files. output is a file ending in
// ext, a directory, stdoutOutput, or empty to write next to each source.
func discoverInputs(args []string, output, ext string) ([]FileToConvert, error) {
	if len(args) == 0 {
		return nil, ErrNoInput
	}

	var files []FileToConvert
	for _, arg := range args {
		found, err := discoverArg(arg, output, ext)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	if len(files) > 1 && (output == stdoutOutput || isOutputFile(output, ext)) {
		return nil, fmt.Errorf("%w: --output %q needs a single input, got %d", ErrUsage, output, len(files))
	}
	return files, nil
}

func discoverArg(arg, output, ext string) ([]FileToConvert, error) {
	if fileutil.IsURL(arg) {
		if output == "" {
			return nil, fmt.Errorf("%w: %s: URL inputs need --output", ErrUsage, arg)
		}
		return []FileToConvert{{
			InputPath:  arg,
			OutputPath: resolveOutputPath(urlBaseName(arg), output, "", ext),
			Kind:       kindURL,
		}}, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	if !info.IsDir() {
		kind, ok := classify(arg)
		if !ok {
			return nil, fmt.Errorf("%w: %s (want %s)", ErrUnsupportedInput, arg,
				strings.Join(slices.Concat(markupExtensions, markdownExtensions), ", "))
		}
		return []FileToConvert{{
			InputPath:  arg,
			OutputPath: resolveOutputPath(arg, output, "", ext),
			Kind:       kind,
		}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", p, err)
		}
		if d.IsDir() {
			return nil
		}
		kind, ok := classify(p)
		if !ok {
			return nil
		}
		files = append(files, FileToConvert{
			InputPath:  p,
			OutputPath: resolveOutputPath(p, output, arg, ext),
			Kind:       kind,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no supported files in %s", ErrNoInput, arg)
	}
	return files, nil
}

// classify returns the kind of a local file from its extension.
func classify(p string) (inputKind, bool) {
	switch {
	case fileutil.HasExtension(p, markdownExtensions...):
		return kindMarkdown, true
	case fileutil.HasExtension(p, markupExtensions...):
		return kindMarkup, true
	}
	return 0, false
}

// resolveOutputPath determines the output path for an input.
func resolveOutputPath(inputPath, output, baseInputDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	switch {
	case output == stdoutOutput:
		return stdoutOutput
	case output == "":
		return filepath.Join(filepath.Dir(inputPath), base+ext)
	case isOutputFile(output, ext):
		return output
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(output, filepath.Dir(relPath), base+ext)
		}
	}
	return filepath.Join(output, base+ext)
}

// isOutputFile reports whether output names a file rather than a directory.
func isOutputFile(output, ext string) bool {
	return strings.EqualFold(filepath.Ext(output), ext)
}

// urlBaseName returns a file name for a URL input, "index" for bare hosts.
func urlBaseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "index"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "index"
	}
	return name
}
