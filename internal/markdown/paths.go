package markdown

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// rewriteRelativePaths converts relative img[src] and a[href] values in doc
// to absolute file:// URLs under dir. Paths escaping dir are left alone.
// If dir is empty, doc is returned unchanged.
//
// Not rewritten: URLs, anchors, absolute paths, srcset and CSS url().
func rewriteRelativePaths(doc, dir string) (string, error) {
	if dir == "" {
		return doc, nil
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	rewriteNode(root, absDir)

	var buf strings.Builder
	if err := html.Render(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// rewriteNode traverses the DOM and rewrites relative paths.
func rewriteNode(n *html.Node, dir string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "img":
			rewriteAttr(n, "src", dir)
		case "a":
			rewriteAttr(n, "href", dir)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, dir)
	}
}

func rewriteAttr(n *html.Node, key, dir string) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}
		abs := filepath.Join(dir, filepath.FromSlash(attr.Val))
		if !isPathUnderDir(abs, dir) {
			continue
		}
		n.Attr[i].Val = pathToFileURL(abs)
	}
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		return false // http, https, file, data, mailto
	}
	return !filepath.IsAbs(path) && !strings.HasPrefix(path, "/")
}

// isPathUnderDir checks if path is under dir (prevents path traversal).
func isPathUnderDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(abs string) string {
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/docs -> /C:/docs
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
