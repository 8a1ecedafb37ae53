// Package markdown renders Markdown files into standalone HTML documents
// the engine can typeset.
//
// Rendering runs in three stages:
//   - preprocessing (line endings, ==highlight== syntax, blank lines)
//   - conversion via goldmark with GFM, footnotes and chroma highlighting
//   - rewriting of relative image and link paths to file:// URLs, since the
//     document reaches the engine as bytes with no location of its own
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	stdhtml "html"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Sentinel errors for Markdown rendering.
var (
	ErrConversion    = errors.New("markdown conversion failed")
	ErrUnknownStyle  = errors.New("unknown highlight style")
	ErrEmptyDocument = errors.New("markdown document is empty")
)

// DefaultHighlightStyle is the chroma style used for code blocks.
const DefaultHighlightStyle = "github"

// documentTemplate wraps goldmark's fragment output in a complete HTML5 document.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>
`

// Source is one Markdown document to render.
type Source struct {
	Content []byte
	Title   string // <title>, "Document" when empty
	Dir     string // base for relative paths, empty leaves them as is
}

// Renderer converts Markdown to HTML. Safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// Option configures a Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	style string
}

// WithHighlightStyle sets the chroma style for fenced code blocks.
func WithHighlightStyle(name string) Option {
	return func(c *rendererConfig) {
		if name != "" {
			c.style = name
		}
	}
}

// NewRenderer creates a Renderer with GFM extensions and syntax highlighting.
// Code is colored with inline styles so no extra stylesheet is needed.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := rendererConfig{style: DefaultHighlightStyle}
	for _, opt := range opts {
		opt(&cfg)
	}
	style := strings.ToLower(cfg.style)
	if _, ok := styles.Registry[style]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, cfg.style)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // Generate IDs for headings (PDF bookmarks and links)
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(), // Self-closing tags
			// Note: WithUnsafe() intentionally NOT used.
			// The ==highlight== feature uses placeholders converted after goldmark.
		),
	)
	return &Renderer{md: md}, nil
}

// Render converts src to a standalone HTML5 document.
// Goldmark has no context support, so conversion runs in a goroutine and
// Render returns early on cancellation.
func (r *Renderer) Render(ctx context.Context, src Source) ([]byte, error) {
	// Fast path: check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(src.Content)) == 0 {
		return nil, ErrEmptyDocument
	}

	type result struct {
		doc []byte
		err error
	}
	done := make(chan result, 1)

	go func() {
		doc, err := r.render(src)
		done <- result{doc: doc, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.doc, res.err
	}
}

func (r *Renderer) render(src Source) ([]byte, error) {
	content := preprocess(string(src.Content))

	var body bytes.Buffer
	if err := r.md.Convert([]byte(content), &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	title := src.Title
	if title == "" {
		title = "Document"
	}
	doc := fmt.Sprintf(documentTemplate, stdhtml.EscapeString(title), convertMarkPlaceholders(body.String()))

	doc, err := rewriteRelativePaths(doc, src.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: rewriting paths: %v", ErrConversion, err)
	}
	return []byte(doc), nil
}
