package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.skognes.net/docs/docsci/internal/errlist"
)

func writeLines(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString("line content\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestWriteRendersNumberedSortedBlocks(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "doc.rst", 20)

	list := errlist.List{
		{File: path, Line: 10, Message: "second by order"},
		{Message: "unattributed first"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, list))
	out := buf.String()

	require.Contains(t, out, "Finding 1")
	require.Contains(t, out, "Finding 2")
	// Unattributed records sort first.
	require.Less(t, strings.Index(out, "unattributed first"), strings.Index(out, "second by order"))
	require.Contains(t, out, path+":10")
	require.Contains(t, out, "2 findings")
}

func TestWriteFileOnlyRecordPrintsJustThePath(t *testing.T) {
	list := errlist.List{{File: "docs/code.rst", Line: 0, Message: "registry gap"}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, list))
	out := buf.String()

	require.Contains(t, out, "docs/code.rst\n")
	require.NotContains(t, out, "docs/code.rst:0")
	require.NotContains(t, out, " | ", "line 0 must not render a snippet")
}

func TestCodeSnippetWindowsAroundLine(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "doc.rst", 30)

	snippet, err := CodeSnippet(path, 15)
	require.NoError(t, err)

	require.Contains(t, snippet, "  15 | ")
	require.Contains(t, snippet, "  11 | ")
	require.Contains(t, snippet, "  20 | ")
	require.NotContains(t, snippet, "  21 | ")
	require.NotContains(t, snippet, "   9 | ")
}

func TestCodeSnippetClampsAtFileBounds(t *testing.T) {
	dir := t.TempDir()
	path := writeLines(t, dir, "short.rst", 3)

	snippet, err := CodeSnippet(path, 2)
	require.NoError(t, err)
	require.Contains(t, snippet, "   1 | ")

	// A line past the end of the file yields an empty window, not a
	// panic.
	snippet, err = CodeSnippet(path, 100)
	require.NoError(t, err)
	require.Empty(t, snippet)
}

func TestCodeSnippetMissingFile(t *testing.T) {
	_, err := CodeSnippet(filepath.Join(t.TempDir(), "gone.rst"), 1)
	require.Error(t, err)
}

func TestHighlightFallsBackToPlainText(t *testing.T) {
	// No lexer matches this extension; content must come back
	// unchanged.
	content := "plain text body"
	require.Equal(t, content, highlight("file.unknownext", content))
}
