package checks

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"git.skognes.net/docs/docsci/internal/errlist"
)

// literalIncludeExample matches a literalinclude directive whose
// argument refers to example content. Examples must be embedded with
// the exampleinclude directive, which renders the surrounding
// boilerplate collapsed.
var literalIncludeExample = regexp.MustCompile(`\.\. literalinclude::.*example`)

// LiteralIncludeRule flags every documentation line that embeds
// example content through the plain literalinclude directive.
type LiteralIncludeRule struct {
	docsRoot string
}

// NewLiteralIncludeRule creates the rule for the given docs tree.
func NewLiteralIncludeRule(docsRoot string) *LiteralIncludeRule {
	return &LiteralIncludeRule{docsRoot: docsRoot}
}

// Name returns the rule identifier.
func (r *LiteralIncludeRule) Name() string { return "example-include-directive" }

// Check scans every .rst file under the docs tree line by line. Each
// matching line produces one finding with a 1-based line number.
func (r *LiteralIncludeRule) Check() (errlist.List, error) {
	var recs errlist.List

	err := filepath.WalkDir(r.docsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".rst" {
			return nil
		}
		fileRecs, err := r.checkFile(path)
		if err != nil {
			return err
		}
		recs.Extend(fileRecs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan docs tree %s: %w", r.docsRoot, err)
	}
	return recs, nil
}

func (r *LiteralIncludeRule) checkFile(path string) (errlist.List, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close() // read-only scan
	}()

	var recs errlist.List
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if literalIncludeExample.Match(scanner.Bytes()) {
			recs.Add(errlist.Record{
				File:    path,
				Line:    lineNo,
				Message: "example content must be embedded with the exampleinclude directive, not literalinclude",
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return recs, nil
}
