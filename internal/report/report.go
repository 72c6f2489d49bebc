// Package report renders accumulated findings as a deterministic,
// human-readable summary in the style of the lint output.
package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"git.skognes.net/docs/docsci/internal/errlist"
	"git.skognes.net/docs/docsci/internal/logfields"
)

const divider = "━"

// Write prints every finding, sorted, as a numbered delimited block.
// Records carrying both a file and a line get a code context snippet;
// file-only records print just the path.
func Write(w io.Writer, list errlist.List) error {
	sorted := list.Sorted()

	for i, rec := range sorted {
		if _, err := fmt.Fprintf(w, "%s\nFinding %d\n", strings.Repeat(divider, 60), i+1); err != nil {
			return err
		}
		if err := writeRecord(w, rec); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%s\n%d finding%s\n", strings.Repeat(divider, 60), len(sorted), pluralize(len(sorted))); err != nil {
		return err
	}
	return nil
}

func writeRecord(w io.Writer, rec errlist.Record) error {
	switch {
	case rec.HasFile() && rec.HasLine():
		if _, err := fmt.Fprintf(w, "%s:%d\n", rec.File, rec.Line); err != nil {
			return err
		}
		snippet, err := CodeSnippet(rec.File, rec.Line)
		if err != nil {
			// Context is advisory; the finding itself still prints.
			slog.Debug("Skipping code context", logfields.File(rec.File), logfields.Error(err))
		} else if _, err := fmt.Fprintln(w, snippet); err != nil {
			return err
		}
	case rec.HasFile():
		if _, err := fmt.Fprintln(w, rec.File); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, rec.Message)
	return err
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
