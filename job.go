package prince

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alnah/go-prince/internal/chunk"
)

// Attachment is a file embedded in the PDF.
type Attachment struct {
	URL         string
	Filename    string // optional
	Description string // optional
}

// Remap serves URLs under URL from the local directory Dir.
type Remap struct {
	URL string
	Dir string
}

// ExtraOption is an engine flag without a dedicated field. An empty Value
// produces a bare --Key flag.
type ExtraOption struct {
	Key   string
	Value string
}

// Job is one conversion request: inputs, per-document options, and the
// binary resources the inputs may refer to.
//
// Resources are attached with the Add methods, which register a
// job-resource:<n> reference in the owning list. Indexes follow attach order
// and are never reused; a Job starts with no resources.
//
// Fields marked (one-shot) only affect Prince; the control protocol has no
// slot for them.
type Job struct {
	// Input.
	Inputs              []string // paths, URLs or job-resource references
	InputType           InputType
	BaseURL             string
	Remaps              []Remap // (one-shot)
	Iframes             bool
	XInclude            bool
	XMLExternalEntities bool

	// JavaScript.
	JavaScript bool
	Scripts    []string
	MaxPasses  int

	// CSS.
	StyleSheets    []string
	Media          string
	PageSize       string // (one-shot)
	PageMargin     string // (one-shot)
	NoAuthorStyle  bool
	NoDefaultStyle bool

	// PDF output.
	PDFID                 string
	PDFLang               string
	PDFProfile            PDFProfile
	PDFOutputIntent       string
	PDFScript             string              // (one-shot)
	PDFEventScripts       map[PDFEvent]string // (one-shot)
	Attachments           []Attachment
	NoArtificialFonts     bool
	NoEmbedFonts          bool
	NoSubsetFonts         bool
	NoSystemFonts         bool // (one-shot)
	ForceIdentityEncoding bool
	NoCompress            bool
	NoObjectStreams       bool
	ConvertColors         bool
	FallbackCMYKProfile   string
	TaggedPDF             bool
	PDFForms              bool
	CSSDPI                int // (one-shot)

	// Metadata.
	Title    string
	Subject  string
	Author   string
	Keywords string
	Creator  string
	XMP      string

	// Encryption.
	Encrypt                   bool // (one-shot)
	KeyBits                   KeyBits
	UserPassword              string
	OwnerPassword             string
	DisallowPrint             bool
	DisallowCopy              bool
	AllowCopyForAccessibility bool
	DisallowAnnotate          bool
	DisallowModify            bool
	AllowAssembly             bool

	// Raster output (one-shot).
	RasterFormat      RasterFormat
	RasterJPEGQuality int // 1-100, 0 for engine default
	RasterPage        int
	RasterDPI         int
	RasterThreads     int
	RasterBackground  RasterBackground

	// Options appends arbitrary flags (one-shot).
	Options []ExtraOption

	resources [][]byte
	rawInputs int
}

// AddScript attaches a script and references it in Scripts.
func (j *Job) AddScript(script []byte) {
	j.Scripts = append(j.Scripts, j.addResource(script))
}

// AddStyleSheet attaches a stylesheet and references it in StyleSheets.
func (j *Job) AddStyleSheet(css []byte) {
	j.StyleSheets = append(j.StyleSheets, j.addResource(css))
}

// AddFileAttachment attaches a file to embed in the PDF.
func (j *Job) AddFileAttachment(data []byte, filename, description string) {
	j.Attachments = append(j.Attachments, Attachment{
		URL:         j.addResource(data),
		Filename:    filename,
		Description: description,
	})
}

// AddInput attaches an in-memory document and references it in Inputs.
// InputType must be html or xml.
func (j *Job) AddInput(doc []byte) {
	j.Inputs = append(j.Inputs, j.addResource(doc))
	j.rawInputs++
}

// AddInputString attaches s as UTF-8 document bytes.
func (j *Job) AddInputString(s string) {
	j.AddInput([]byte(s))
}

// Resources returns the attached resources in index order.
func (j *Job) Resources() [][]byte {
	out := make([][]byte, len(j.resources))
	copy(out, j.resources)
	return out
}

func (j *Job) addResource(b []byte) string {
	j.resources = append(j.resources, b)
	return chunk.ResourceRef(len(j.resources) - 1)
}

// Validate checks enumerated values, numeric ranges and resource references.
func (j *Job) Validate() error {
	if j == nil {
		return ErrNilJob
	}

	errs := []error{
		j.InputType.Validate(),
		j.PDFProfile.Validate(),
		j.KeyBits.Validate(),
		j.RasterFormat.Validate(),
		j.RasterBackground.Validate(),
	}
	if j.rawInputs > 0 && !j.InputType.explicit() {
		errs = append(errs, ErrInputTypeRequired)
	}
	for ev := range j.PDFEventScripts {
		errs = append(errs, ev.Validate())
	}
	for _, n := range []struct {
		name  string
		value int
	}{
		{"max passes", j.MaxPasses},
		{"css dpi", j.CSSDPI},
		{"raster page", j.RasterPage},
		{"raster dpi", j.RasterDPI},
		{"raster threads", j.RasterThreads},
	} {
		if n.value < 0 {
			errs = append(errs, fmt.Errorf("%w: %s %d (must be >= 0)", ErrInvalidOption, n.name, n.value))
		}
	}
	if j.RasterJPEGQuality < 0 || j.RasterJPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("%w: raster jpeg quality %d (must be 0-100)", ErrInvalidOption, j.RasterJPEGQuality))
	}
	errs = append(errs, j.checkRefs())
	return errors.Join(errs...)
}

// checkRefs rejects job-resource references without a matching resource.
func (j *Job) checkRefs() error {
	refs := make([]string, 0, len(j.Inputs)+len(j.Scripts)+len(j.StyleSheets)+len(j.Attachments))
	refs = append(refs, j.Inputs...)
	refs = append(refs, j.Scripts...)
	refs = append(refs, j.StyleSheets...)
	for _, a := range j.Attachments {
		refs = append(refs, a.URL)
	}

	for _, ref := range refs {
		idx, ok := chunk.ParseResourceRef(ref)
		if ok && idx >= len(j.resources) {
			return fmt.Errorf("%w: %s refers to a missing resource (%d attached)", ErrInvalidOption, ref, len(j.resources))
		}
	}
	return nil
}

// Wire shape of the control-protocol job. Field order is the key order.
type (
	jobJSON struct {
		Input         inputJSON    `json:"input"`
		PDF           pdfJSON      `json:"pdf"`
		Metadata      metadataJSON `json:"metadata"`
		ResourceCount int          `json:"job-resource-count"`
	}

	inputJSON struct {
		Src                 []string `json:"src"`
		Type                string   `json:"type,omitempty"`
		Base                string   `json:"base,omitempty"`
		Media               string   `json:"media,omitempty"`
		Styles              []string `json:"styles"`
		Scripts             []string `json:"scripts"`
		DefaultStyle        bool     `json:"default-style"`
		AuthorStyle         bool     `json:"author-style"`
		JavaScript          bool     `json:"javascript"`
		MaxPasses           int      `json:"max-passes,omitempty"`
		Iframes             bool     `json:"iframes"`
		XInclude            bool     `json:"xinclude"`
		XMLExternalEntities bool     `json:"xml-external-entities"`
	}

	pdfJSON struct {
		EmbedFonts            bool         `json:"embed-fonts"`
		SubsetFonts           bool         `json:"subset-fonts"`
		ArtificialFonts       bool         `json:"artificial-fonts"`
		ForceIdentityEncoding bool         `json:"force-identity-encoding"`
		Compress              bool         `json:"compress"`
		ObjectStreams         bool         `json:"object-streams"`
		Encrypt               encryptJSON  `json:"encrypt"`
		Profile               string       `json:"pdf-profile,omitempty"`
		OutputIntent          string       `json:"pdf-output-intent,omitempty"`
		FallbackCMYKProfile   string       `json:"fallback-cmyk-profile,omitempty"`
		ColorConversion       string       `json:"color-conversion"`
		ID                    string       `json:"pdf-id,omitempty"`
		Lang                  string       `json:"pdf-lang,omitempty"`
		XMP                   string       `json:"pdf-xmp,omitempty"`
		Tagged                bool         `json:"tagged-pdf"`
		Forms                 bool         `json:"pdf-forms"`
		Attach                []attachJSON `json:"attach"`
	}

	encryptJSON struct {
		KeyBits                   int    `json:"key-bits,omitempty"`
		UserPassword              string `json:"user-password,omitempty"`
		OwnerPassword             string `json:"owner-password,omitempty"`
		DisallowPrint             bool   `json:"disallow-print"`
		DisallowModify            bool   `json:"disallow-modify"`
		DisallowCopy              bool   `json:"disallow-copy"`
		DisallowAnnotate          bool   `json:"disallow-annotate"`
		AllowCopyForAccessibility bool   `json:"allow-copy-for-accessibility"`
		AllowAssembly             bool   `json:"allow-assembly"`
	}

	attachJSON struct {
		URL         string `json:"url"`
		Filename    string `json:"filename,omitempty"`
		Description string `json:"description,omitempty"`
	}

	metadataJSON struct {
		Title    string `json:"title,omitempty"`
		Subject  string `json:"subject,omitempty"`
		Author   string `json:"author,omitempty"`
		Keywords string `json:"keywords,omitempty"`
		Creator  string `json:"creator,omitempty"`
	}
)

// MarshalJSON encodes the job in the control-protocol format. Negated
// options are emitted positively: NoCompress false is "compress": true.
func (j *Job) MarshalJSON() ([]byte, error) {
	attach := make([]attachJSON, len(j.Attachments))
	for i, a := range j.Attachments {
		attach[i] = attachJSON(a)
	}

	colorConversion := "none"
	if j.ConvertColors {
		colorConversion = "output-intent"
	}

	doc := jobJSON{
		Input: inputJSON{
			Src:                 nonNil(j.Inputs),
			Type:                string(j.InputType),
			Base:                j.BaseURL,
			Media:               j.Media,
			Styles:              nonNil(j.StyleSheets),
			Scripts:             nonNil(j.Scripts),
			DefaultStyle:        !j.NoDefaultStyle,
			AuthorStyle:         !j.NoAuthorStyle,
			JavaScript:          j.JavaScript,
			MaxPasses:           max(j.MaxPasses, 0),
			Iframes:             j.Iframes,
			XInclude:            j.XInclude,
			XMLExternalEntities: j.XMLExternalEntities,
		},
		PDF: pdfJSON{
			EmbedFonts:            !j.NoEmbedFonts,
			SubsetFonts:           !j.NoSubsetFonts,
			ArtificialFonts:       !j.NoArtificialFonts,
			ForceIdentityEncoding: j.ForceIdentityEncoding,
			Compress:              !j.NoCompress,
			ObjectStreams:         !j.NoObjectStreams,
			Encrypt: encryptJSON{
				KeyBits:                   int(j.KeyBits),
				UserPassword:              j.UserPassword,
				OwnerPassword:             j.OwnerPassword,
				DisallowPrint:             j.DisallowPrint,
				DisallowModify:            j.DisallowModify,
				DisallowCopy:              j.DisallowCopy,
				DisallowAnnotate:          j.DisallowAnnotate,
				AllowCopyForAccessibility: j.AllowCopyForAccessibility,
				AllowAssembly:             j.AllowAssembly,
			},
			Profile:             string(j.PDFProfile),
			OutputIntent:        j.PDFOutputIntent,
			FallbackCMYKProfile: j.FallbackCMYKProfile,
			ColorConversion:     colorConversion,
			ID:                  j.PDFID,
			Lang:                j.PDFLang,
			XMP:                 j.XMP,
			Tagged:              j.TaggedPDF,
			Forms:               j.PDFForms,
			Attach:              attach,
		},
		Metadata: metadataJSON{
			Title:    j.Title,
			Subject:  j.Subject,
			Author:   j.Author,
			Keywords: j.Keywords,
			Creator:  j.Creator,
		},
		ResourceCount: len(j.resources),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding job: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
