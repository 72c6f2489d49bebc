package sphinx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"git.skognes.net/docs/docsci/internal/errlist"
)

// ansiEscape matches ANSI and C1 terminal escape sequences. The
// generator runs with color enabled, so the warning file has to be
// cleaned before parsing.
var ansiEscape = regexp.MustCompile("(|\x1b\\[)[0-?]*[ -/]*[@-~]")

// StripANSI removes terminal escape sequences from text.
func StripANSI(text string) string {
	return ansiEscape.ReplaceAllString(text, "")
}

// ParseWarnings converts the captured warning stream into findings,
// one per non-empty line. A line of the form file:line:message yields
// an attributed record; anything else becomes a message-only record.
// A three-part line whose middle field is not an integer is malformed
// output from the generator and aborts the run.
func ParseWarnings(text string) (errlist.List, error) {
	var recs errlist.List
	for _, line := range strings.Split(StripANSI(text), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) == 3 {
			lineNo, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("malformed warning line %q: %w", line, err)
			}
			recs.Add(errlist.Record{File: parts[0], Line: lineNo, Message: parts[2]})
			continue
		}
		recs.AddMessage(line)
	}
	return recs, nil
}
