package yamlutil_test

// Notes:
// - Marshal error branch: not tested because yaml.Marshal only fails with
//   unmarshalable types (channels, functions), which are not realistic here.
// - TestMaxInputSize mutates the package-level MaxInputSize and does not run
//   in parallel with the other tests of this file.

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-prince/internal/yamlutil"
)

type engineSection struct {
	Path    string `yaml:"path"`
	Workers int    `yaml:"workers"`
	Verbose bool   `yaml:"verbose"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - Strict decoding
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		dest     any
		wantErr  error
		wantText string
		want     engineSection
	}{
		{
			name: "known fields",
			data: []byte("path: /opt/prince/bin/prince\nworkers: 4\nverbose: true"),
			dest: &engineSection{},
			want: engineSection{Path: "/opt/prince/bin/prince", Workers: 4, Verbose: true},
		},
		{
			name: "unicode content",
			data: []byte("path: /opt/プリンス"),
			dest: &engineSection{},
			want: engineSection{Path: "/opt/プリンス"},
		},
		{
			name:     "unknown field",
			data:     []byte("path: prince\nthreads: 2"),
			dest:     &engineSection{},
			wantText: "yamlutil:",
		},
		{
			name:     "invalid syntax",
			data:     []byte("path: [unclosed"),
			dest:     &engineSection{},
			wantText: "yamlutil:",
		},
		{"nil data", nil, &engineSection{}, yamlutil.ErrNilData, "", engineSection{}},
		{"empty data", []byte{}, &engineSection{}, yamlutil.ErrNilData, "", engineSection{}},
		{"nil destination", []byte("path: prince"), nil, yamlutil.ErrNilDestination, "", engineSection{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.wantText != "":
				if err == nil || !strings.Contains(err.Error(), tt.wantText) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantText)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := *tt.dest.(*engineSection); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestReadFile - Decoding from disk
// ---------------------------------------------------------------------------

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	if err := os.WriteFile(path, []byte("path: prince\nworkers: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var got engineSection
	if err := yamlutil.ReadFile(path, &got); err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.Path != "prince" || got.Workers != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	var got engineSection
	err := yamlutil.ReadFile(filepath.Join(t.TempDir(), "missing.yaml"), &got)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestReadFile_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	var got engineSection
	if err := yamlutil.ReadFile(path, &got); !errors.Is(err, yamlutil.ErrNilData) {
		t.Errorf("error = %v, want ErrNilData", err)
	}
}

// ---------------------------------------------------------------------------
// TestMarshal - Encoding
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	out, err := yamlutil.Marshal(engineSection{Path: "prince", Workers: 3})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{"path: prince", "workers: 3", "verbose: false"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	var back engineSection
	if err := yamlutil.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal(Marshal()) error = %v", err)
	}
	if back.Workers != 3 {
		t.Errorf("Workers = %d, want 3", back.Workers)
	}
}

// ---------------------------------------------------------------------------
// TestMaxInputSize - Size limit
// ---------------------------------------------------------------------------

//nolint:paralleltest // mutates MaxInputSize
func TestMaxInputSize(t *testing.T) {
	orig := yamlutil.MaxInputSize
	t.Cleanup(func() { yamlutil.MaxInputSize = orig })
	yamlutil.MaxInputSize = 16

	var got engineSection
	err := yamlutil.Unmarshal([]byte("path: "+strings.Repeat("x", 32)), &got)
	if !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("error = %v, want ErrInputTooLarge", err)
	}
}
