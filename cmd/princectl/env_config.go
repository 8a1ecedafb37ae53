package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/alnah/go-prince/internal/config"
)

// ErrInvalidEnv reports a PRINCECTL_* variable that cannot be parsed.
var ErrInvalidEnv = errors.New("invalid environment variable")

const envPrefix = "PRINCECTL_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath  string // PRINCECTL_CONFIG: config file name or path
	Engine      string // PRINCECTL_ENGINE: engine executable
	Mode        string // PRINCECTL_MODE: control, oneshot
	Workers     *int   // PRINCECTL_WORKERS: parallel engine processes
	Timeout     string // PRINCECTL_TIMEOUT: per-document timeout
	LogLevel    string // PRINCECTL_LOG_LEVEL
	LogFormat   string // PRINCECTL_LOG_FORMAT
	LicenseFile string // PRINCECTL_LICENSE_FILE
	LicenseKey  string // PRINCECTL_LICENSE_KEY
	OutputDir   string // PRINCECTL_OUTPUT_DIR: default output directory
	Proxy       string // PRINCECTL_HTTP_PROXY
	NoNetwork   *bool  // PRINCECTL_NO_NETWORK
}

// knownEnvVars lists valid PRINCECTL_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"PRINCECTL_CONFIG":       true,
	"PRINCECTL_ENGINE":       true,
	"PRINCECTL_MODE":         true,
	"PRINCECTL_WORKERS":      true,
	"PRINCECTL_TIMEOUT":      true,
	"PRINCECTL_LOG_LEVEL":    true,
	"PRINCECTL_LOG_FORMAT":   true,
	"PRINCECTL_LICENSE_FILE": true,
	"PRINCECTL_LICENSE_KEY":  true,
	"PRINCECTL_OUTPUT_DIR":   true,
	"PRINCECTL_HTTP_PROXY":   true,
	"PRINCECTL_NO_NETWORK":   true,
}

// dotEnv holds variables read from a dotenv file.
type dotEnv map[string]string

// readDotEnv reads path without touching the process environment.
// A missing file or an empty path yields no variables.
func readDotEnv(path string) (dotEnv, error) {
	if path == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidEnv, path, err)
	}
	return vars, nil
}

// getenv returns a lookup where the process environment wins over the file,
// matching godotenv.Load, which never overrides variables already set.
func (d dotEnv) getenv(process func(string) string) func(string) string {
	return func(key string) string {
		if v := process(key); v != "" {
			return v
		}
		return d[key]
	}
}

// environ appends the file variables to the process environment listing.
func (d dotEnv) environ(process []string) []string {
	out := slices.Clone(process)
	for _, k := range slices.Sorted(maps.Keys(d)) {
		out = append(out, k+"="+d[k])
	}
	return out
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) (*envConfig, error) {
	cfg := &envConfig{
		ConfigPath:  getenv("PRINCECTL_CONFIG"),
		Engine:      getenv("PRINCECTL_ENGINE"),
		Mode:        getenv("PRINCECTL_MODE"),
		Timeout:     getenv("PRINCECTL_TIMEOUT"),
		LogLevel:    getenv("PRINCECTL_LOG_LEVEL"),
		LogFormat:   getenv("PRINCECTL_LOG_FORMAT"),
		LicenseFile: getenv("PRINCECTL_LICENSE_FILE"),
		LicenseKey:  getenv("PRINCECTL_LICENSE_KEY"),
		OutputDir:   getenv("PRINCECTL_OUTPUT_DIR"),
		Proxy:       getenv("PRINCECTL_HTTP_PROXY"),
	}

	if s := getenv("PRINCECTL_WORKERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: PRINCECTL_WORKERS=%q (must be a non-negative integer)", ErrInvalidEnv, s)
		}
		cfg.Workers = &n
	}

	if s := getenv("PRINCECTL_NO_NETWORK"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: PRINCECTL_NO_NETWORK=%q (must be true or false)", ErrInvalidEnv, s)
		}
		cfg.NoNetwork = &b
	}

	return cfg, nil
}

// warnUnknownEnvVars logs warnings for unrecognized PRINCECTL_* variables.
// Helps catch typos like PRINCECTL_WORKER instead of PRINCECTL_WORKERS.
func warnUnknownEnvVars(environ []string, w io.Writer) {
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, envPrefix) && !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// apply overrides cfg with every variable that is set. It runs after the
// config file is loaded and before flags are merged, so flags win.
func (e *envConfig) apply(cfg *config.Config) {
	setString(&cfg.Engine.Path, e.Engine)
	setString(&cfg.Engine.Mode, e.Mode)
	setString(&cfg.Engine.Timeout, e.Timeout)
	setString(&cfg.Log.Level, e.LogLevel)
	setString(&cfg.Log.Format, e.LogFormat)
	setString(&cfg.License.File, e.LicenseFile)
	setString(&cfg.License.Key, e.LicenseKey)
	setString(&cfg.Output.DefaultDir, e.OutputDir)
	setString(&cfg.Network.Proxy, e.Proxy)

	if e.Workers != nil {
		cfg.Engine.Workers = *e.Workers
	}
	if e.NoNetwork != nil {
		cfg.Network.Disabled = *e.NoNetwork
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
