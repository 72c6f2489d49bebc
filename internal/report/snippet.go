package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// contextLines is the number of lines shown on each side of a finding.
const contextLines = 5

// CodeSnippet returns a numbered excerpt of the file around the given
// 1-based line. The content is syntax highlighted when a lexer is
// available for the file; highlighting failures fall back to plain
// text. The window is clamped to the file bounds.
func CodeSnippet(path string, line int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for context: %w", path, err)
	}

	content := highlight(path, string(data))
	lines := strings.Split(content, "\n")
	numbered := make([]string, len(lines))
	for i, l := range lines {
		numbered[i] = fmt.Sprintf("%4d | %s", i+1, l)
	}

	lo := line - contextLines
	if lo < 0 {
		lo = 0
	}
	hi := line + contextLines
	if hi > len(numbered) {
		hi = len(numbered)
	}
	if lo > len(numbered) {
		lo = len(numbered)
	}
	return strings.Join(numbered[lo:hi], "\n"), nil
}

// highlight applies best-effort terminal syntax highlighting. Any
// failure (no lexer, tokenise or format error) returns the content
// untouched.
func highlight(path, content string) string {
	lexer := lexers.Match(path)
	if lexer == nil {
		return content
	}
	formatter := formatters.Get("terminal")
	if formatter == nil {
		return content
	}
	style := styles.Get("friendly")
	if style == nil {
		style = styles.Fallback
	}
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return content
	}
	return buf.String()
}
