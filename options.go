package prince

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alnah/go-prince/internal/cmdline"
	"github.com/alnah/go-prince/internal/logging"
	"github.com/alnah/go-prince/internal/metrics"
)

// DefaultEnginePath is the executable looked up in PATH when no path is set.
var DefaultEnginePath = defaultEnginePath()

func defaultEnginePath() string {
	if runtime.GOOS == "windows" {
		return "prince.exe"
	}
	return "prince"
}

// BaseOptions are session-wide engine options. They become command-line
// flags of every process started by a Control or a Prince.
type BaseOptions struct {
	// Logging.
	Verbose              bool
	Debug                bool
	Log                  string // engine log file
	NoWarnCSSUnknown     bool
	NoWarnCSSUnsupported bool

	// Network.
	NoNetwork           bool
	NoRedirects         bool
	AuthUser            string
	AuthPassword        string
	AuthServer          string
	AuthScheme          AuthScheme
	AuthMethods         []AuthMethod
	NoAuthPreemptive    bool
	HTTPProxy           string
	HTTPTimeout         int // seconds, 0 for engine default
	Cookies             []string
	CookieJar           string
	SSLCACert           string
	SSLCAPath           string
	SSLCert             string
	SSLCertType         SSLType
	SSLKey              string
	SSLKeyType          SSLType
	SSLKeyPassword      string
	SSLVersion          SSLVersion
	Insecure            bool
	NoParallelDownloads bool

	// License.
	LicenseFile string
	LicenseKey  string

	// Fail-safe: abort instead of producing a degraded document.
	FailDroppedContent       bool
	FailMissingResources     bool
	FailStrippedTransparency bool
	FailMissingGlyphs        bool
	FailPDFProfileError      bool
	FailPDFTagError          bool
	FailInvalidLicense       bool
}

// FailSafe sets every fail-safe option to on.
func (o *BaseOptions) FailSafe(on bool) {
	o.FailDroppedContent = on
	o.FailMissingResources = on
	o.FailStrippedTransparency = on
	o.FailMissingGlyphs = on
	o.FailPDFProfileError = on
	o.FailPDFTagError = on
	o.FailInvalidLicense = on
}

// Validate checks enumerated values and numeric ranges.
func (o BaseOptions) Validate() error {
	var errs []error
	errs = append(errs,
		o.AuthScheme.Validate(),
		o.SSLCertType.Validate(),
		o.SSLKeyType.Validate(),
		o.SSLVersion.Validate(),
	)
	for _, m := range o.AuthMethods {
		errs = append(errs, m.Validate())
	}
	if o.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: http timeout %d (must be >= 0)", ErrInvalidOption, o.HTTPTimeout))
	}
	return errors.Join(errs...)
}

// Args returns the command-line flags for o, in a fixed order.
func (o BaseOptions) Args() []string {
	methods := make([]string, len(o.AuthMethods))
	for i, m := range o.AuthMethods {
		methods[i] = string(m)
	}

	var b cmdline.Builder
	b.Bool("verbose", o.Verbose).
		Bool("debug", o.Debug).
		String("log", o.Log).
		Bool("no-warn-css-unknown", o.NoWarnCSSUnknown).
		Bool("no-warn-css-unsupported", o.NoWarnCSSUnsupported).
		Bool("no-network", o.NoNetwork).
		Bool("no-redirects", o.NoRedirects).
		String("auth-user", o.AuthUser).
		String("auth-password", o.AuthPassword).
		String("auth-server", o.AuthServer).
		String("auth-scheme", string(o.AuthScheme)).
		CSV("auth-method", methods).
		Bool("no-auth-preemptive", o.NoAuthPreemptive).
		String("http-proxy", o.HTTPProxy).
		Int("http-timeout", o.HTTPTimeout, 0).
		Repeat("cookie", o.Cookies).
		String("cookiejar", o.CookieJar).
		String("ssl-cacert", o.SSLCACert).
		String("ssl-capath", o.SSLCAPath).
		String("ssl-cert", o.SSLCert).
		String("ssl-cert-type", string(o.SSLCertType)).
		String("ssl-key", o.SSLKey).
		String("ssl-key-type", string(o.SSLKeyType)).
		String("ssl-key-password", o.SSLKeyPassword).
		String("ssl-version", string(o.SSLVersion)).
		Bool("insecure", o.Insecure).
		Bool("no-parallel-downloads", o.NoParallelDownloads).
		String("license-file", o.LicenseFile).
		String("license-key", o.LicenseKey).
		Bool("fail-dropped-content", o.FailDroppedContent).
		Bool("fail-missing-resources", o.FailMissingResources).
		Bool("fail-stripped-transparency", o.FailStrippedTransparency).
		Bool("fail-missing-glyphs", o.FailMissingGlyphs).
		Bool("fail-pdf-profile-error", o.FailPDFProfileError).
		Bool("fail-pdf-tag-error", o.FailPDFTagError).
		Bool("fail-invalid-license", o.FailInvalidLicense)
	return b.Args()
}

// Option configures a Control, a Prince or a ControlPool.
type Option func(*config)

// config holds the settings shared by both conversion strategies.
type config struct {
	enginePath string
	base       BaseOptions
	events     EventSink
	launcher   Launcher
	logger     *bolt.Logger
	metrics    *metrics.Collector
}

func newConfig(opts []Option) config {
	cfg := config{
		enginePath: DefaultEnginePath,
		launcher:   ExecLauncher{},
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithEnginePath sets the engine executable. A bare name is looked up in PATH.
// Panics if path is empty (programmer error).
func WithEnginePath(path string) Option {
	if path == "" {
		panic("prince: WithEnginePath path must not be empty")
	}
	return func(c *config) {
		c.enginePath = path
	}
}

// WithBaseOptions sets the session-wide engine options.
func WithBaseOptions(o BaseOptions) Option {
	return func(c *config) {
		c.base = o
	}
}

// WithEvents forwards engine messages to sink.
func WithEvents(sink EventSink) Option {
	return func(c *config) {
		c.events = sink
	}
}

// WithLauncher replaces the process launcher, mainly for tests.
func WithLauncher(l Launcher) Option {
	return func(c *config) {
		if l != nil {
			c.launcher = l
		}
	}
}

// WithLogger sets the logger. Engine stderr and lifecycle events are logged
// at debug level, engine messages at their own level.
func WithLogger(l *bolt.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records conversions on m. See NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m.collector
		}
	}
}

// Metrics collects conversion metrics for prometheus.
type Metrics struct {
	collector *metrics.Collector
}

// NewMetrics registers conversion metrics on reg. Share one Metrics between
// sessions to aggregate them.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	c, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, err
	}
	return &Metrics{collector: c}, nil
}
