// Package config loads princectl configuration files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-prince/internal/fileutil"
	"github.com/alnah/go-prince/internal/logging"
	"github.com/alnah/go-prince/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppName is the directory searched under the user config directory.
const AppName = "princectl"

// Engine modes.
const (
	ModeControl = "control"
	ModeOneShot = "oneshot"
)

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxURLLength      = 2048
	MaxMetadataLength = 500
	MaxKeywordsLength = 1000
	MaxShortLength    = 50 // enum-like values: "PDF/A-3b", "print", "A4"
)

// Config holds all princectl settings.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Log      LogConfig      `yaml:"log"`
	Network  NetworkConfig  `yaml:"network"`
	License  LicenseConfig  `yaml:"license"`
	FailSafe bool           `yaml:"failSafe"`
	Job      JobConfig      `yaml:"job"`
	Output   OutputConfig   `yaml:"output"`
	Markdown MarkdownConfig `yaml:"markdown"`
}

// EngineConfig defines how the engine is run.
type EngineConfig struct {
	Path    string `yaml:"path"`    // Executable, looked up in PATH when bare (default: "prince")
	Mode    string `yaml:"mode"`    // "control" or "oneshot" (default: "control")
	Workers int    `yaml:"workers"` // Control sessions, 0 = from GOMAXPROCS
	Timeout string `yaml:"timeout"` // Per document, Go duration (empty = none)
}

// LogConfig defines CLI logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error (default: "info")
	Format string `yaml:"format"` // "console" or "json" (default: "console")
}

// NetworkConfig defines how the engine fetches remote resources.
type NetworkConfig struct {
	Disabled     bool     `yaml:"disabled"`
	NoRedirects  bool     `yaml:"noRedirects"`
	Proxy        string   `yaml:"proxy"`
	Timeout      int      `yaml:"timeout"` // seconds, 0 = engine default
	Insecure     bool     `yaml:"insecure"`
	AuthUser     string   `yaml:"authUser"`
	AuthPassword string   `yaml:"authPassword"`
	AuthScheme   string   `yaml:"authScheme"`
	AuthMethods  []string `yaml:"authMethods"`
	Cookies      []string `yaml:"cookies"`
	CookieJar    string   `yaml:"cookieJar"`
	CACert       string   `yaml:"caCert"`
	SSLVersion   string   `yaml:"sslVersion"`
}

// LicenseConfig locates the engine license.
type LicenseConfig struct {
	File string `yaml:"file"`
	Key  string `yaml:"key"`
}

// JobConfig holds per-document defaults.
type JobConfig struct {
	InputType      string         `yaml:"inputType"`
	BaseURL        string         `yaml:"baseURL"`
	JavaScript     bool           `yaml:"javascript"`
	Styles         []string       `yaml:"styles"`
	Scripts        []string       `yaml:"scripts"`
	Media          string         `yaml:"media"`
	PageSize       string         `yaml:"pageSize"`
	PageMargin     string         `yaml:"pageMargin"`
	NoAuthorStyle  bool           `yaml:"noAuthorStyle"`
	NoDefaultStyle bool           `yaml:"noDefaultStyle"`
	PDF            PDFConfig      `yaml:"pdf"`
	Metadata       MetadataConfig `yaml:"metadata"`
}

// PDFConfig defines PDF output defaults.
type PDFConfig struct {
	Profile      string `yaml:"profile"`
	OutputIntent string `yaml:"outputIntent"`
	Lang         string `yaml:"lang"`
	Tagged       bool   `yaml:"tagged"`
	Forms        bool   `yaml:"forms"`
}

// MetadataConfig defines document metadata defaults.
type MetadataConfig struct {
	Title    string `yaml:"title"`
	Subject  string `yaml:"subject"`
	Author   string `yaml:"author"`
	Keywords string `yaml:"keywords"`
	Creator  string `yaml:"creator"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
}

// MarkdownConfig defines Markdown rendering options.
type MarkdownConfig struct {
	HighlightStyle string `yaml:"highlightStyle"` // chroma style (default: "github")
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{Mode: ModeControl},
		Log:    LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// TimeoutDuration parses Engine.Timeout. Empty means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Engine.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: engine.timeout: %v", ErrInvalidValue, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: engine.timeout: must be positive, got %s", ErrInvalidValue, d)
	}
	return d, nil
}

// Validate checks ranges and field lengths. Engine option values are
// checked again by the library when a job is built.
// Called automatically by LoadConfig.
func (c *Config) Validate() error {
	switch c.Engine.Mode {
	case "", ModeControl, ModeOneShot:
	default:
		return fmt.Errorf("%w: engine.mode %q (must be %s or %s)", ErrInvalidValue, c.Engine.Mode, ModeControl, ModeOneShot)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("%w: engine.workers must be >= 0, got %d", ErrInvalidValue, c.Engine.Workers)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if c.Network.Timeout < 0 {
		return fmt.Errorf("%w: network.timeout must be >= 0, got %d", ErrInvalidValue, c.Network.Timeout)
	}

	if c.Log.Level != "" && !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: log.level %q", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q (must be console or json)", ErrInvalidValue, c.Log.Format)
	}

	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"engine.path", c.Engine.Path, MaxPathLength},
		{"network.proxy", c.Network.Proxy, MaxURLLength},
		{"network.cookieJar", c.Network.CookieJar, MaxPathLength},
		{"network.caCert", c.Network.CACert, MaxPathLength},
		{"license.file", c.License.File, MaxPathLength},
		{"job.inputType", c.Job.InputType, MaxShortLength},
		{"job.baseURL", c.Job.BaseURL, MaxURLLength},
		{"job.media", c.Job.Media, MaxShortLength},
		{"job.pageSize", c.Job.PageSize, MaxShortLength},
		{"job.pageMargin", c.Job.PageMargin, MaxShortLength},
		{"job.pdf.profile", c.Job.PDF.Profile, MaxShortLength},
		{"job.pdf.outputIntent", c.Job.PDF.OutputIntent, MaxPathLength},
		{"job.pdf.lang", c.Job.PDF.Lang, MaxShortLength},
		{"job.metadata.title", c.Job.Metadata.Title, MaxMetadataLength},
		{"job.metadata.subject", c.Job.Metadata.Subject, MaxMetadataLength},
		{"job.metadata.author", c.Job.Metadata.Author, MaxMetadataLength},
		{"job.metadata.keywords", c.Job.Metadata.Keywords, MaxKeywordsLength},
		{"job.metadata.creator", c.Job.Metadata.Creator, MaxMetadataLength},
		{"output.defaultDir", c.Output.DefaultDir, MaxPathLength},
		{"markdown.highlightStyle", c.Markdown.HighlightStyle, MaxShortLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	for i, s := range c.Job.Styles {
		if err := validateFieldLength(fmt.Sprintf("job.styles[%d]", i), s, MaxPathLength); err != nil {
			return err
		}
	}
	for i, s := range c.Job.Scripts {
		if err := validateFieldLength(fmt.Sprintf("job.scripts[%d]", i), s, MaxPathLength); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// userConfigDir is swapped in tests.
var userConfigDir = os.UserConfigDir

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := yamlutil.ReadFile(configPath, cfg); err != nil {
		var pathErr *fs.PathError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		case errors.As(err, &pathErr):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the files LoadConfig tries for a config name, in order:
// current directory then the user config directory, .yaml before .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := userConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, AppName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing search path for name.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
