package main

import (
	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	envFile   string
	quiet     bool
	verbose   bool
	logLevel  string
	logFormat string
}

// engineFlags holds engine process flags.
type engineFlags struct {
	path        string
	mode        string
	workers     int
	timeout     string
	licenseFile string
	licenseKey  string
	failSafe    bool
}

// networkFlags holds remote resource flags.
type networkFlags struct {
	disabled bool
	insecure bool
	proxy    string
	timeout  int
}

// jobFlags holds per-document flags.
type jobFlags struct {
	inputType      string
	baseURL        string
	javascript     bool
	styles         []string
	scripts        []string
	media          string
	pageSize       string
	pageMargin     string
	noAuthorStyle  bool
	noDefaultStyle bool
	pdfProfile     string
	pdfLang        string
	tagged         bool
	title          string
	subject        string
	author         string
	keywords       string
}

// rasterFlags selects image output instead of PDF.
type rasterFlags struct {
	format string
	page   int
	dpi    int
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common         commonFlags
	output         string
	engine         engineFlags
	network        networkFlags
	job            jobFlags
	raster         rasterFlags
	highlightStyle string
	metricsFile    string

	set *flag.FlagSet
}

// changed reports whether name was given on the command line.
func (f *convertFlags) changed(name string) bool {
	return f.set != nil && f.set.Changed(name)
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading PRINCECTL_* variables")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing and engine output")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
}

// addEngineFlags adds engine flags to a FlagSet.
func addEngineFlags(fs *flag.FlagSet, f *engineFlags) {
	fs.StringVarP(&f.path, "engine", "e", "", "engine executable (default: prince in PATH)")
	fs.StringVarP(&f.mode, "mode", "m", "", "engine mode: control, oneshot")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel engine processes (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.licenseFile, "license-file", "", "engine license file")
	fs.StringVar(&f.licenseKey, "license-key", "", "engine license key")
	fs.BoolVar(&f.failSafe, "fail-safe", false, "fail instead of producing a degraded document")
}

// addNetworkFlags adds network flags to a FlagSet.
func addNetworkFlags(fs *flag.FlagSet, f *networkFlags) {
	fs.BoolVar(&f.disabled, "no-network", false, "disable network access")
	fs.BoolVar(&f.insecure, "insecure", false, "do not verify TLS certificates")
	fs.StringVar(&f.proxy, "http-proxy", "", "proxy for HTTP requests")
	fs.IntVar(&f.timeout, "http-timeout", 0, "HTTP timeout in seconds (0 = engine default)")
}

// addJobFlags adds per-document flags to a FlagSet.
func addJobFlags(fs *flag.FlagSet, f *jobFlags) {
	fs.StringVarP(&f.inputType, "input", "i", "", "input type for html/xml files: auto, html, xml")
	fs.StringVar(&f.baseURL, "baseurl", "", "base URL for relative links")
	fs.BoolVar(&f.javascript, "javascript", false, "run document scripts")
	fs.StringArrayVarP(&f.styles, "style", "s", nil, "stylesheet path or URL (repeatable)")
	fs.StringArrayVar(&f.scripts, "script", nil, "script path or URL (repeatable)")
	fs.StringVar(&f.media, "media", "", "CSS media type (default: print)")
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size, e.g. A4 or letter")
	fs.StringVar(&f.pageMargin, "page-margin", "", "page margin, e.g. 20mm")
	fs.BoolVar(&f.noAuthorStyle, "no-author-style", false, "ignore document stylesheets")
	fs.BoolVar(&f.noDefaultStyle, "no-default-style", false, "ignore engine default stylesheet")
	fs.StringVar(&f.pdfProfile, "pdf-profile", "", "PDF profile, e.g. PDF/A-3b or PDF/UA-1")
	fs.StringVar(&f.pdfLang, "pdf-lang", "", "document language")
	fs.BoolVar(&f.tagged, "tagged-pdf", false, "produce a tagged PDF")
	fs.StringVar(&f.title, "pdf-title", "", "document title")
	fs.StringVar(&f.subject, "pdf-subject", "", "document subject")
	fs.StringVar(&f.author, "pdf-author", "", "document author")
	fs.StringVar(&f.keywords, "pdf-keywords", "", "document keywords")
}

// addRasterFlags adds raster output flags to a FlagSet.
func addRasterFlags(fs *flag.FlagSet, f *rasterFlags) {
	fs.StringVar(&f.format, "raster-format", "", "write a page image instead of a PDF: png, jpeg")
	fs.IntVar(&f.page, "raster-page", 1, "page to rasterize")
	fs.IntVar(&f.dpi, "raster-dpi", 0, "raster resolution (0 = engine default)")
}

// parseConvertFlags parses convert command flags and returns positional args.
func parseConvertFlags(args []string, env *Environment) (*convertFlags, []string, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	f := &convertFlags{set: fs}

	fs.StringVarP(&f.output, "output", "o", "", "output file, directory, or - for stdout")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "code highlighting style for Markdown inputs")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write prometheus metrics to this file when done")

	addCommonFlags(fs, &f.common)
	addEngineFlags(fs, &f.engine)
	addNetworkFlags(fs, &f.network)
	addJobFlags(fs, &f.job)
	addRasterFlags(fs, &f.raster)

	fs.Usage = func() { printConvertUsage(env.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
