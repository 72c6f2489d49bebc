// Package linkcheck verifies that the HTML emitted by the generator
// does not reference files missing from the output tree.
package linkcheck

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.skognes.net/docs/docsci/internal/errlist"
)

// Verify walks the generated site and flags every internal href/src
// whose target does not exist on disk. External URLs and pure anchors
// are skipped.
func Verify(siteDir string) (errlist.List, error) {
	var recs errlist.List

	err := filepath.WalkDir(siteDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".html" {
			return nil
		}
		refs, err := extractRefs(path)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			target, ok := localTarget(siteDir, path, ref)
			if !ok {
				continue
			}
			if _, err := os.Stat(target); os.IsNotExist(err) {
				recs.Add(errlist.Record{
					File:    path,
					Message: fmt.Sprintf("generated page references missing file: %s", ref),
				})
			}
		}
		return nil
	})
	if os.IsNotExist(err) {
		// Nothing rendered means nothing to verify.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify generated site %s: %w", siteDir, err)
	}
	return recs, nil
}

// extractRefs parses one HTML file and collects link-like attribute
// values (a href, img/script src, link href).
func extractRefs(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open HTML file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close() // read-only scan
	}()
	return extractRefsFromReader(f)
}

func extractRefsFromReader(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if v := getAttr(n, "href"); v != "" {
					refs = append(refs, v)
				}
			case "img", "script":
				if v := getAttr(n, "src"); v != "" {
					refs = append(refs, v)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// localTarget resolves ref against the page location and reports
// whether it points inside the site tree.
func localTarget(siteDir, page, ref string) (string, bool) {
	if ref == "" || strings.HasPrefix(ref, "#") {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	p := u.Path
	if p == "" {
		return "", false
	}
	var target string
	if strings.HasPrefix(p, "/") {
		target = filepath.Join(siteDir, filepath.FromSlash(p))
	} else {
		target = filepath.Join(filepath.Dir(page), filepath.FromSlash(p))
	}
	// Targets escaping the site tree are not ours to verify.
	rel, err := filepath.Rel(siteDir, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return target, true
}
