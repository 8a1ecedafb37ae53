package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/prometheus/client_golang/prometheus"

	prince "github.com/alnah/go-prince"
	"github.com/alnah/go-prince/internal/config"
	"github.com/alnah/go-prince/internal/fileutil"
	"github.com/alnah/go-prince/internal/logging"
	"github.com/alnah/go-prince/internal/markdown"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage             = errors.New("invalid usage")
	ErrReadInput         = errors.New("failed to read input")
	ErrWriteOutput       = errors.New("failed to write output")
	ErrOutputDir         = errors.New("failed to create output directory")
	ErrDocumentRejected  = errors.New("engine reported a failed conversion")
	ErrConversionsFailed = errors.New("conversion(s) failed")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Output extensions by raster format.
var outputExtensions = map[prince.RasterFormat]string{
	"":                ".pdf",
	prince.RasterPNG:  ".png",
	prince.RasterJPEG: ".jpg",
}

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	cfg      *config.Config
	raster   rasterFlags
	renderer *markdown.Renderer
	timeout  time.Duration
	stdout   io.Writer
}

// runConvert orchestrates the conversion process.
// Errors carry the config name and engine path for hint lookup.
func runConvert(ctx context.Context, args []string, env *Environment) (err error) {
	flags, positional, err := parseConvertFlags(args, env)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	var configName, enginePath string
	defer func() { err = annotate(err, configName, enginePath) }()

	cfg, configName, err := loadConfig(flags.common, env)
	if err != nil {
		return err
	}

	// Merge CLI flags into config (CLI wins)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return err
	}

	format := prince.RasterFormat(flags.raster.format)
	ext, ok := outputExtensions[format]
	if !ok {
		return fmt.Errorf("%w: --raster-format %q (must be png or jpeg)", ErrUsage, flags.raster.format)
	}

	base, err := buildBaseOptions(cfg, flags.common.verbose)
	if err != nil {
		return err
	}
	if err := buildJob(cfg, flags.raster).Validate(); err != nil {
		return err
	}

	renderer, err := markdown.NewRenderer(markdown.WithHighlightStyle(cfg.Markdown.HighlightStyle))
	if err != nil {
		return err
	}

	// Resolve output directory
	output := flags.output
	if output == "" {
		output = cfg.Output.DefaultDir
	}

	// Discover files to convert
	files, err := discoverInputs(positional, output, ext)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: env.Stderr,
	})

	enginePath = cmp.Or(cfg.Engine.Path, prince.DefaultEnginePath)

	var reg *prometheus.Registry
	opts := []prince.Option{
		prince.WithBaseOptions(base),
		prince.WithLogger(logger),
		prince.WithLauncher(env.Launcher),
	}
	if cfg.Engine.Path != "" {
		opts = append(opts, prince.WithEnginePath(cfg.Engine.Path))
	}
	if flags.metricsFile != "" {
		reg = prometheus.NewRegistry()
		m, err := prince.NewMetrics(reg)
		if err != nil {
			return err
		}
		opts = append(opts, prince.WithMetrics(m))
	}

	workers := prince.ResolvePoolSize(cfg.Engine.Workers)
	conv, closeConv := newConverter(cfg.Engine.Mode, format, workers, opts, logger)
	logging.With(logger.Debug().Int("workers", workers).Int("inputs", len(files)),
		logging.Mode(cfg.Engine.Mode),
	).Msg("starting conversion")

	params := &conversionParams{
		cfg:      cfg,
		raster:   flags.raster,
		renderer: renderer,
		timeout:  timeout,
		stdout:   env.Stdout,
	}

	// Convert files
	results := convertBatch(ctx, conv, workers, files, params)
	closeConv()

	if reg != nil {
		if err := prometheus.WriteToTextfile(flags.metricsFile, reg); err != nil {
			return fmt.Errorf("%w: metrics: %w", ErrWriteOutput, err)
		}
	}

	// Print results
	if failed := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env); failed > 0 {
		return fmt.Errorf("%d %w: %w", failed, ErrConversionsFailed, firstError(results))
	}
	return nil
}

// loadConfig resolves configuration from the dotenv file, PRINCECTL_*
// variables and the config file. It also returns the config name in use.
func loadConfig(common commonFlags, env *Environment) (*config.Config, string, error) {
	dot, err := readDotEnv(common.envFile)
	if err != nil {
		return nil, "", err
	}
	warnUnknownEnvVars(dot.environ(env.Environ()), env.Stderr)

	envCfg, err := loadEnvConfig(dot.getenv(env.Getenv))
	if err != nil {
		return nil, "", err
	}

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		if cfg, err = config.LoadConfig(name); err != nil {
			return nil, name, fmt.Errorf("loading config: %w", err)
		}
	}

	// Environment overrides the file
	envCfg.apply(cfg)
	return cfg, name, nil
}

// mergeFlags merges CLI flags into config. Only flags given on the command
// line override config values, so explicit zero values still win.
func mergeFlags(f *convertFlags, cfg *config.Config) {
	// Logging
	switch {
	case f.changed("log-level"):
		cfg.Log.Level = f.common.logLevel
	case f.common.verbose:
		cfg.Log.Level = "debug"
	case f.common.quiet:
		cfg.Log.Level = "error"
	}
	if f.changed("log-format") {
		cfg.Log.Format = f.common.logFormat
	}

	// Engine
	if f.changed("engine") {
		cfg.Engine.Path = f.engine.path
	}
	if f.changed("mode") {
		cfg.Engine.Mode = f.engine.mode
	}
	if f.changed("workers") {
		cfg.Engine.Workers = f.engine.workers
	}
	if f.changed("timeout") {
		cfg.Engine.Timeout = f.engine.timeout
	}
	if f.changed("license-file") {
		cfg.License.File = f.engine.licenseFile
	}
	if f.changed("license-key") {
		cfg.License.Key = f.engine.licenseKey
	}
	if f.changed("fail-safe") {
		cfg.FailSafe = f.engine.failSafe
	}

	// Network
	if f.changed("no-network") {
		cfg.Network.Disabled = f.network.disabled
	}
	if f.changed("insecure") {
		cfg.Network.Insecure = f.network.insecure
	}
	if f.changed("http-proxy") {
		cfg.Network.Proxy = f.network.proxy
	}
	if f.changed("http-timeout") {
		cfg.Network.Timeout = f.network.timeout
	}

	// Job
	if f.changed("input") {
		cfg.Job.InputType = f.job.inputType
	}
	if f.changed("baseurl") {
		cfg.Job.BaseURL = f.job.baseURL
	}
	if f.changed("javascript") {
		cfg.Job.JavaScript = f.job.javascript
	}
	if f.changed("style") {
		cfg.Job.Styles = f.job.styles
	}
	if f.changed("script") {
		cfg.Job.Scripts = f.job.scripts
	}
	if f.changed("media") {
		cfg.Job.Media = f.job.media
	}
	if f.changed("page-size") {
		cfg.Job.PageSize = f.job.pageSize
	}
	if f.changed("page-margin") {
		cfg.Job.PageMargin = f.job.pageMargin
	}
	if f.changed("no-author-style") {
		cfg.Job.NoAuthorStyle = f.job.noAuthorStyle
	}
	if f.changed("no-default-style") {
		cfg.Job.NoDefaultStyle = f.job.noDefaultStyle
	}
	if f.changed("pdf-profile") {
		cfg.Job.PDF.Profile = f.job.pdfProfile
	}
	if f.changed("pdf-lang") {
		cfg.Job.PDF.Lang = f.job.pdfLang
	}
	if f.changed("tagged-pdf") {
		cfg.Job.PDF.Tagged = f.job.tagged
	}
	if f.changed("pdf-title") {
		cfg.Job.Metadata.Title = f.job.title
	}
	if f.changed("pdf-subject") {
		cfg.Job.Metadata.Subject = f.job.subject
	}
	if f.changed("pdf-author") {
		cfg.Job.Metadata.Author = f.job.author
	}
	if f.changed("pdf-keywords") {
		cfg.Job.Metadata.Keywords = f.job.keywords
	}

	// Markdown
	if f.changed("highlight-style") {
		cfg.Markdown.HighlightStyle = f.highlightStyle
	}
}

// buildBaseOptions maps the engine, network and license settings to
// session-wide engine options.
func buildBaseOptions(cfg *config.Config, verbose bool) (prince.BaseOptions, error) {
	methods := make([]prince.AuthMethod, len(cfg.Network.AuthMethods))
	for i, m := range cfg.Network.AuthMethods {
		methods[i] = prince.AuthMethod(m)
	}

	base := prince.BaseOptions{
		Verbose:      verbose,
		NoNetwork:    cfg.Network.Disabled,
		NoRedirects:  cfg.Network.NoRedirects,
		AuthUser:     cfg.Network.AuthUser,
		AuthPassword: cfg.Network.AuthPassword,
		AuthScheme:   prince.AuthScheme(cfg.Network.AuthScheme),
		AuthMethods:  methods,
		HTTPProxy:    cfg.Network.Proxy,
		HTTPTimeout:  cfg.Network.Timeout,
		Cookies:      slices.Clone(cfg.Network.Cookies),
		CookieJar:    cfg.Network.CookieJar,
		SSLCACert:    cfg.Network.CACert,
		SSLVersion:   prince.SSLVersion(cfg.Network.SSLVersion),
		Insecure:     cfg.Network.Insecure,
		LicenseFile:  cfg.License.File,
		LicenseKey:   cfg.License.Key,
	}
	base.FailSafe(cfg.FailSafe)

	if err := base.Validate(); err != nil {
		return prince.BaseOptions{}, err
	}
	return base, nil
}

// buildJob returns a job with the per-document settings of cfg and no input.
// Local stylesheet and script paths are made absolute so the engine finds
// them whatever the input location.
func buildJob(cfg *config.Config, raster rasterFlags) *prince.Job {
	job := &prince.Job{
		InputType:       prince.InputType(cfg.Job.InputType),
		BaseURL:         cfg.Job.BaseURL,
		JavaScript:      cfg.Job.JavaScript,
		Scripts:         absPaths(cfg.Job.Scripts),
		StyleSheets:     absPaths(cfg.Job.Styles),
		Media:           cfg.Job.Media,
		PageSize:        cfg.Job.PageSize,
		PageMargin:      cfg.Job.PageMargin,
		NoAuthorStyle:   cfg.Job.NoAuthorStyle,
		NoDefaultStyle:  cfg.Job.NoDefaultStyle,
		PDFProfile:      prince.PDFProfile(cfg.Job.PDF.Profile),
		PDFOutputIntent: cfg.Job.PDF.OutputIntent,
		PDFLang:         cfg.Job.PDF.Lang,
		TaggedPDF:       cfg.Job.PDF.Tagged,
		PDFForms:        cfg.Job.PDF.Forms,
		Title:           cfg.Job.Metadata.Title,
		Subject:         cfg.Job.Metadata.Subject,
		Author:          cfg.Job.Metadata.Author,
		Keywords:        cfg.Job.Metadata.Keywords,
		Creator:         cfg.Job.Metadata.Creator,
	}
	if raster.format != "" {
		job.RasterFormat = prince.RasterFormat(raster.format)
		job.RasterPage = raster.page
		job.RasterDPI = raster.dpi
	}
	return job
}

// absPaths returns paths with local entries made absolute. URLs are kept.
func absPaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p
		if fileutil.IsURL(p) {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			out[i] = abs
		}
	}
	return out
}

// newConverter returns the strategy for mode and a function releasing it.
// Raster output always runs one process per document since control
// sessions only produce PDF.
func newConverter(mode string, format prince.RasterFormat, workers int, opts []prince.Option, logger *bolt.Logger) (prince.Converter, func()) {
	if format != "" {
		return rasterConverter{prince.NewPrince(opts...)}, func() {}
	}
	if mode == config.ModeOneShot {
		return prince.NewPrince(opts...), func() {}
	}

	pool := prince.NewControlPool(workers, opts...)
	return pool, func() {
		if err := pool.Close(); err != nil {
			logging.With(logger.Warn(), logging.Error(err)).Msg("closing control sessions")
		}
	}
}

// commandError carries what a failing command used, for hint lookup.
type commandError struct {
	err        error
	configName string
	enginePath string
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

// annotate wraps err with the config name and engine path in use.
func annotate(err error, configName, enginePath string) error {
	if err == nil {
		return nil
	}
	return &commandError{err: err, configName: configName, enginePath: enginePath}
}

// commandContext returns the config name and engine path recorded in err.
func commandContext(err error) (configName, enginePath string) {
	var ce *commandError
	if errors.As(err, &ce) {
		return ce.configName, ce.enginePath
	}
	return "", prince.DefaultEnginePath
}
