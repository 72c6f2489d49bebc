package checks

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.skognes.net/docs/docsci/internal/errlist"
)

// MarkdownLinkRule flags relative links and images in markdown guides
// whose target does not exist on disk. External URLs and anchors are
// out of scope; the generator checks its own cross-references.
type MarkdownLinkRule struct {
	docsRoot string
}

// NewMarkdownLinkRule creates the rule for the given docs tree.
func NewMarkdownLinkRule(docsRoot string) *MarkdownLinkRule {
	return &MarkdownLinkRule{docsRoot: docsRoot}
}

// Name returns the rule identifier.
func (r *MarkdownLinkRule) Name() string { return "markdown-link-targets" }

// Check parses every .md file under the docs tree and resolves each
// relative destination against the file's directory. Goldmark does not
// expose line numbers for destinations, so findings carry line 0.
func (r *MarkdownLinkRule) Check() (errlist.List, error) {
	var recs errlist.List

	err := filepath.WalkDir(r.docsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, dest := range extractDestinations(body) {
			if !isRelativeTarget(dest) {
				continue
			}
			target := filepath.Join(filepath.Dir(path), trimFragment(dest))
			if _, err := os.Stat(target); os.IsNotExist(err) {
				recs.Add(errlist.Record{
					File:    path,
					Message: fmt.Sprintf("link target does not exist: %s", dest),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan docs tree %s: %w", r.docsRoot, err)
	}
	return recs, nil
}

// extractDestinations parses a markdown body and collects link and
// image destinations from the goldmark AST.
func extractDestinations(body []byte) []string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var dests []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Image:
			dests = append(dests, string(node.Destination))
		case *gmast.Link:
			dests = append(dests, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return dests
}

// isRelativeTarget reports whether dest is a relative file reference
// (not an absolute URL, mail address, absolute path or pure anchor).
func isRelativeTarget(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

func trimFragment(dest string) string {
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		return dest[:i]
	}
	return dest
}
