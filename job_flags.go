package prince

import (
	"maps"
	"slices"

	"github.com/alnah/go-prince/internal/cmdline"
)

// flags returns the one-shot command-line flags for j, in a fixed order.
// Inputs are not included.
func (j *Job) flags() []string {
	remaps := make([]string, len(j.Remaps))
	for i, r := range j.Remaps {
		remaps[i] = r.URL + "=" + r.Dir
	}

	events := make([]string, 0, len(j.PDFEventScripts))
	for _, ev := range slices.Sorted(maps.Keys(j.PDFEventScripts)) {
		events = append(events, string(ev)+":"+j.PDFEventScripts[ev])
	}

	attach := make([]string, len(j.Attachments))
	for i, a := range j.Attachments {
		attach[i] = a.URL
	}

	var b cmdline.Builder
	b.String("input", string(j.InputType)).
		String("baseurl", j.BaseURL).
		Repeat("remap", remaps).
		Bool("iframes", j.Iframes).
		Bool("xinclude", j.XInclude).
		Bool("xml-external-entities", j.XMLExternalEntities).
		Bool("javascript", j.JavaScript).
		Repeat("script", j.Scripts).
		Int("max-passes", j.MaxPasses, 0).
		Repeat("style", j.StyleSheets).
		String("media", j.Media).
		String("page-size", j.PageSize).
		String("page-margin", j.PageMargin).
		Bool("no-author-style", j.NoAuthorStyle).
		Bool("no-default-style", j.NoDefaultStyle)

	b.String("pdf-id", j.PDFID).
		String("pdf-lang", j.PDFLang).
		String("pdf-profile", string(j.PDFProfile)).
		String("pdf-output-intent", j.PDFOutputIntent).
		String("pdf-script", j.PDFScript).
		Repeat("pdf-event-script", events).
		Repeat("attach", attach).
		Bool("no-artificial-fonts", j.NoArtificialFonts).
		Bool("no-embed-fonts", j.NoEmbedFonts).
		Bool("no-subset-fonts", j.NoSubsetFonts).
		Bool("no-system-fonts", j.NoSystemFonts).
		Bool("force-identity-encoding", j.ForceIdentityEncoding).
		Bool("no-compress", j.NoCompress).
		Bool("no-object-streams", j.NoObjectStreams).
		Bool("convert-colors", j.ConvertColors).
		String("fallback-cmyk-profile", j.FallbackCMYKProfile).
		Bool("tagged-pdf", j.TaggedPDF).
		Bool("pdf-forms", j.PDFForms).
		Int("css-dpi", j.CSSDPI, 0)

	b.String("pdf-title", j.Title).
		String("pdf-subject", j.Subject).
		String("pdf-author", j.Author).
		String("pdf-keywords", j.Keywords).
		String("pdf-creator", j.Creator).
		String("pdf-xmp", j.XMP)

	b.Bool("encrypt", j.Encrypt).
		Int("key-bits", int(j.KeyBits), 0).
		String("user-password", j.UserPassword).
		String("owner-password", j.OwnerPassword).
		Bool("disallow-print", j.DisallowPrint).
		Bool("disallow-copy", j.DisallowCopy).
		Bool("allow-copy-for-accessibility", j.AllowCopyForAccessibility).
		Bool("disallow-annotate", j.DisallowAnnotate).
		Bool("disallow-modify", j.DisallowModify).
		Bool("allow-assembly", j.AllowAssembly)

	b.String("raster-format", string(j.RasterFormat)).
		Int("raster-jpeg-quality", j.RasterJPEGQuality, 0).
		Int("raster-pages", j.RasterPage, 0).
		Int("raster-dpi", j.RasterDPI, 0).
		Int("raster-threads", j.RasterThreads, 0).
		String("raster-background", string(j.RasterBackground))

	for _, o := range j.Options {
		if o.Value == "" {
			b.Raw(cmdline.Flag(o.Key))
		} else {
			b.Raw(cmdline.Value(o.Key, o.Value))
		}
	}
	return b.Args()
}
