package config

// Notes:
// - Tests that resolve config names use t.Chdir() or swap the package-level
//   userConfigDir variable, so they cannot use t.Parallel().

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("setup mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup write: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestDefaultConfig - Neutral configuration
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Engine.Mode != ModeControl {
		t.Errorf("Engine.Mode = %q, want %q", cfg.Engine.Mode, ModeControl)
	}
	if cfg.Engine.Path != "" {
		t.Errorf("Engine.Path = %q, want empty", cfg.Engine.Path)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v, want info/console", cfg.Log)
	}
	if cfg.FailSafe {
		t.Error("FailSafe = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestConfig_Validate - Ranges, enums and field lengths
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		field   string
	}{
		{"defaults", func(c *Config) {}, nil, ""},
		{"oneshot mode", func(c *Config) { c.Engine.Mode = ModeOneShot }, nil, ""},
		{"unknown mode", func(c *Config) { c.Engine.Mode = "daemon" }, ErrInvalidValue, "engine.mode"},
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }, ErrInvalidValue, "engine.workers"},
		{"valid timeout", func(c *Config) { c.Engine.Timeout = "90s" }, nil, ""},
		{"bad timeout", func(c *Config) { c.Engine.Timeout = "soon" }, ErrInvalidValue, "engine.timeout"},
		{"negative timeout", func(c *Config) { c.Engine.Timeout = "-1s" }, ErrInvalidValue, "engine.timeout"},
		{"negative network timeout", func(c *Config) { c.Network.Timeout = -5 }, ErrInvalidValue, "network.timeout"},
		{"warning level alias", func(c *Config) { c.Log.Level = "warning" }, nil, ""},
		{"unknown level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidValue, "log.level"},
		{"json format", func(c *Config) { c.Log.Format = "JSON" }, nil, ""},
		{"unknown format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidValue, "log.format"},
		{
			"title too long",
			func(c *Config) { c.Job.Metadata.Title = strings.Repeat("t", MaxMetadataLength+1) },
			ErrFieldTooLong, "job.metadata.title",
		},
		{
			"title at limit",
			func(c *Config) { c.Job.Metadata.Title = strings.Repeat("t", MaxMetadataLength) },
			nil, "",
		},
		{
			"style path too long",
			func(c *Config) { c.Job.Styles = []string{"a.css", strings.Repeat("s", MaxPathLength+1)} },
			ErrFieldTooLong, "job.styles[1]",
		},
		{
			"script path too long",
			func(c *Config) { c.Job.Scripts = []string{strings.Repeat("s", MaxPathLength+1)} },
			ErrFieldTooLong, "job.scripts[0]",
		},
		{
			"profile too long",
			func(c *Config) { c.Job.PDF.Profile = strings.Repeat("p", MaxShortLength+1) },
			ErrFieldTooLong, "job.pdf.profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %q", err, tt.field)
			}
		})
	}
}

func TestConfig_TimeoutDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"2m", 2 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		cfg := &Config{Engine: EngineConfig{Timeout: tt.timeout}}
		got, err := cfg.TimeoutDuration()
		if (err != nil) != tt.wantErr {
			t.Errorf("TimeoutDuration(%q) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("TimeoutDuration(%q) = %v, want %v", tt.timeout, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig - Loading by path
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("")
		if !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), "work.yaml", `engine:
  path: /opt/prince/bin/prince
  workers: 3
  timeout: 45s
network:
  disabled: true
  cookies: ["a=1", "b=2"]
failSafe: true
job:
  inputType: html
  styles: [print.css]
  pdf:
    profile: PDF/A-3b
    tagged: true
  metadata:
    author: Jane Doe
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Engine.Path != "/opt/prince/bin/prince" || cfg.Engine.Workers != 3 {
			t.Errorf("Engine = %+v", cfg.Engine)
		}
		if !cfg.Network.Disabled || len(cfg.Network.Cookies) != 2 {
			t.Errorf("Network = %+v", cfg.Network)
		}
		if !cfg.FailSafe {
			t.Error("FailSafe = false, want true")
		}
		if cfg.Job.PDF.Profile != "PDF/A-3b" || !cfg.Job.PDF.Tagged {
			t.Errorf("Job.PDF = %+v", cfg.Job.PDF)
		}
		if cfg.Job.Metadata.Author != "Jane Doe" {
			t.Errorf("Job.Metadata.Author = %q", cfg.Job.Metadata.Author)
		}
	})

	t.Run("absent fields keep defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), "min.yaml", "engine:\n  workers: 1\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %q, want default info", cfg.Log.Level)
		}
		if cfg.Engine.Workers != 1 {
			t.Errorf("Engine.Workers = %d, want 1", cfg.Engine.Workers)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("/nonexistent/path/config.yaml")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), "invalid.yaml", "engine: [unclosed")

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), "unknown.yaml", "engine:\n  threads: 4\n")

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, t.TempDir(), "bad.yaml", "engine:\n  workers: -2\n")

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestLoadConfig_ByName - Search locations
// ---------------------------------------------------------------------------

func stubUserConfigDir(t *testing.T, dir string) {
	t.Helper()
	orig := userConfigDir
	t.Cleanup(func() { userConfigDir = orig })
	userConfigDir = func() (string, error) { return dir, nil }
}

func TestLoadConfig_ByName(t *testing.T) {
	t.Run("current directory wins and prefers .yaml", func(t *testing.T) {
		local := t.TempDir()
		writeConfig(t, local, "work.yaml", "log:\n  level: debug\n")
		writeConfig(t, local, "work.yml", "log:\n  level: error\n")
		user := t.TempDir()
		writeConfig(t, user, filepath.Join(AppName, "work.yaml"), "log:\n  level: warn\n")
		stubUserConfigDir(t, user)
		t.Chdir(local)

		cfg, err := LoadConfig("work")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %q, want debug (local .yaml)", cfg.Log.Level)
		}
	})

	t.Run("falls back to user config directory", func(t *testing.T) {
		user := t.TempDir()
		writeConfig(t, user, filepath.Join(AppName, "work.yml"), "log:\n  level: warn\n")
		stubUserConfigDir(t, user)
		t.Chdir(t.TempDir())

		cfg, err := LoadConfig("work")
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Log.Level != "warn" {
			t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
		}
	})

	t.Run("not found lists tried paths", func(t *testing.T) {
		user := t.TempDir()
		stubUserConfigDir(t, user)
		t.Chdir(t.TempDir())

		_, err := LoadConfig("missing")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		want := filepath.Join(user, AppName, "missing.yml")
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not list %q", err, want)
		}
	})
}

func TestSearchPaths(t *testing.T) {
	stubUserConfigDir(t, "/home/u/.config")

	got := SearchPaths("work")
	want := []string{
		"work.yaml",
		"work.yml",
		filepath.Join("/home/u/.config", AppName, "work.yaml"),
		filepath.Join("/home/u/.config", AppName, "work.yml"),
	}
	if len(got) != len(want) {
		t.Fatalf("SearchPaths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SearchPaths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSearchPaths_NoUserDir(t *testing.T) {
	orig := userConfigDir
	t.Cleanup(func() { userConfigDir = orig })
	userConfigDir = func() (string, error) { return "", errors.New("no home") }

	if got := SearchPaths("work"); len(got) != 2 {
		t.Errorf("SearchPaths() = %v, want local paths only", got)
	}
}
