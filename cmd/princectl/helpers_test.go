package main

// Notes:
// - Test infrastructure shared by the command tests: an Environment backed by
//   in-memory writers and a fixed variable map, and small file helpers.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	prince "github.com/alnah/go-prince"
)

// ---------------------------------------------------------------------------
// syncBuffer - Writer shared by conversion goroutines
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// ---------------------------------------------------------------------------
// testEnv - Injectable environment
// ---------------------------------------------------------------------------

type testEnv struct {
	*Environment
	stdout *syncBuffer
	stderr *syncBuffer
}

// newTestEnv returns an Environment with the given variables and launcher.
func newTestEnv(vars map[string]string, launcher prince.Launcher) *testEnv {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	return &testEnv{
		Environment: &Environment{
			Now:    func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) },
			Stdout: stdout,
			Stderr: stderr,
			Getenv: func(k string) string { return vars[k] },
			Environ: func() []string {
				var out []string
				for k, v := range vars {
					out = append(out, k+"="+v)
				}
				return out
			},
			Launcher: launcher,
		},
		stdout: stdout,
		stderr: stderr,
	}
}

// writeFile creates path under dir with content and returns the full path.
func writeFile(t *testing.T, dir, path, content string) string {
	t.Helper()
	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", full, err)
	}
	return full
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
