package prince

import (
	"fmt"
	"slices"
)

// InputType selects how the engine parses input documents.
type InputType string

// Input types.
const (
	InputAuto InputType = "auto"
	InputHTML InputType = "html"
	InputXML  InputType = "xml"
)

// Validate returns ErrInvalidOption for unknown values. Empty is allowed.
func (t InputType) Validate() error {
	return validateEnum("input type", t, InputAuto, InputHTML, InputXML)
}

// explicit reports whether t names a concrete markup language.
func (t InputType) explicit() bool {
	return t == InputHTML || t == InputXML
}

// PDFProfile is a PDF conformance profile.
type PDFProfile string

// PDF profiles.
const (
	PDFA1a     PDFProfile = "PDF/A-1a"
	PDFA1aUA1  PDFProfile = "PDF/A-1a+PDF/UA-1"
	PDFA1b     PDFProfile = "PDF/A-1b"
	PDFA2a     PDFProfile = "PDF/A-2a"
	PDFA2aUA1  PDFProfile = "PDF/A-2a+PDF/UA-1"
	PDFA2b     PDFProfile = "PDF/A-2b"
	PDFA3a     PDFProfile = "PDF/A-3a"
	PDFA3aUA1  PDFProfile = "PDF/A-3a+PDF/UA-1"
	PDFA3b     PDFProfile = "PDF/A-3b"
	PDFUA1     PDFProfile = "PDF/UA-1"
	PDFX1a2001 PDFProfile = "PDF/X-1a:2001"
	PDFX1a2003 PDFProfile = "PDF/X-1a:2003"
	PDFX32002  PDFProfile = "PDF/X-3:2002"
	PDFX32003  PDFProfile = "PDF/X-3:2003"
	PDFX4      PDFProfile = "PDF/X-4"
)

var pdfProfiles = []PDFProfile{
	PDFA1a, PDFA1aUA1, PDFA1b, PDFA2a, PDFA2aUA1, PDFA2b, PDFA3a, PDFA3aUA1,
	PDFA3b, PDFUA1, PDFX1a2001, PDFX1a2003, PDFX32002, PDFX32003, PDFX4,
}

// Validate returns ErrInvalidOption for unknown values. Empty is allowed.
func (p PDFProfile) Validate() error {
	return validateEnum("pdf profile", p, pdfProfiles...)
}

// KeyBits is the encryption key size. Zero means engine default.
type KeyBits int

// Key sizes.
const (
	KeyBits40  KeyBits = 40
	KeyBits128 KeyBits = 128
)

// Validate returns ErrInvalidOption for sizes other than 0, 40 and 128.
func (k KeyBits) Validate() error {
	switch k {
	case 0, KeyBits40, KeyBits128:
		return nil
	}
	return fmt.Errorf("%w: key bits %d (must be 40 or 128)", ErrInvalidOption, int(k))
}

// RasterFormat is the image format for raster output.
type RasterFormat string

// Raster formats.
const (
	RasterAuto RasterFormat = "auto"
	RasterPNG  RasterFormat = "png"
	RasterJPEG RasterFormat = "jpeg"
)

// Validate returns ErrInvalidOption for unknown values. Empty is allowed.
func (f RasterFormat) Validate() error {
	return validateEnum("raster format", f, RasterAuto, RasterPNG, RasterJPEG)
}

// RasterBackground is the background of raster output.
type RasterBackground string

// Raster backgrounds.
const (
	BackgroundWhite       RasterBackground = "white"
	BackgroundTransparent RasterBackground = "transparent"
)

// Validate returns ErrInvalidOption for unknown values. Empty is allowed.
func (b RasterBackground) Validate() error {
	return validateEnum("raster background", b, BackgroundWhite, BackgroundTransparent)
}

// AuthScheme restricts HTTP authentication to a URL scheme.
type AuthScheme string

// Authentication schemes.
const (
	AuthHTTP  AuthScheme = "http"
	AuthHTTPS AuthScheme = "https"
)

// Validate returns ErrInvalidOption for unknown values. Empty is allowed.
func (s AuthScheme) Validate() error {
	return validateEnum("auth scheme", s, AuthHTTP, AuthHTTPS)
}

// AuthMethod is an HTTP authentication method.
type AuthMethod string

// Authentication methods.
const (
	AuthBasic     AuthMethod = "basic"
	AuthDigest    AuthMethod = "digest"
	AuthNTLM      AuthMethod = "ntlm"
	AuthNegotiate AuthMethod = "negotiate"
)

// Validate returns ErrInvalidOption for unknown values.
func (m AuthMethod) Validate() error {
	if m == "" {
		return fmt.Errorf("%w: empty auth method", ErrInvalidOption)
	}
	return validateEnum("auth method", m, AuthBasic, AuthDigest, AuthNTLM, AuthNegotiate)
}

// SSLType is a certificate or key file encoding.
type SSLType string

// Certificate encodings.
const (
	SSLPEM SSLType = "PEM"
	SSLDER SSLType = "DER"
)

// Validate returns ErrInvalidOption for unknown values. Empty is allowed.
func (t SSLType) Validate() error {
	return validateEnum("ssl type", t, SSLPEM, SSLDER)
}

// SSLVersion is the minimum TLS version accepted by the engine.
type SSLVersion string

// TLS versions.
const (
	SSLDefault SSLVersion = "default"
	TLSv1      SSLVersion = "tlsv1"
	TLSv10     SSLVersion = "tlsv1.0"
	TLSv11     SSLVersion = "tlsv1.1"
	TLSv12     SSLVersion = "tlsv1.2"
	TLSv13     SSLVersion = "tlsv1.3"
)

// Validate returns ErrInvalidOption for unknown values. Empty is allowed.
func (v SSLVersion) Validate() error {
	return validateEnum("ssl version", v, SSLDefault, TLSv1, TLSv10, TLSv11, TLSv12, TLSv13)
}

// PDFEvent names a viewer event a PDF script can hook.
type PDFEvent string

// PDF viewer events.
const (
	EventWillClose PDFEvent = "will-close"
	EventWillSave  PDFEvent = "will-save"
	EventDidSave   PDFEvent = "did-save"
	EventWillPrint PDFEvent = "will-print"
	EventDidPrint  PDFEvent = "did-print"
)

// Validate returns ErrInvalidOption for unknown values.
func (e PDFEvent) Validate() error {
	if e == "" {
		return fmt.Errorf("%w: empty pdf event", ErrInvalidOption)
	}
	return validateEnum("pdf event", e, EventWillClose, EventWillSave, EventDidSave, EventWillPrint, EventDidPrint)
}

// validateEnum accepts the zero value and any of valid.
func validateEnum[T ~string](what string, v T, valid ...T) error {
	if v == "" || slices.Contains(valid, v) {
		return nil
	}
	names := make([]string, len(valid))
	for i, s := range valid {
		names[i] = string(s)
	}
	return fmt.Errorf("%w: %s %q (must be one of %v)", ErrInvalidOption, what, string(v), names)
}
