// Package checks implements the pre-build consistency checks run
// against the documentation and source trees. Expected violations are
// converted to errlist records; only I/O-level failures return errors.
package checks

import (
	"log/slog"

	"git.skognes.net/docs/docsci/internal/config"
	"git.skognes.net/docs/docsci/internal/errlist"
	"git.skognes.net/docs/docsci/internal/logfields"
)

// Rule is a single consistency check over the project trees.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check scans the relevant tree and returns findings. Findings are
	// expected violations; the error return is reserved for I/O
	// failures, which abort the whole run.
	Check() (errlist.List, error)
}

// DefaultRules returns the precheck rule set for the given config.
func DefaultRules(cfg *config.Config) []Rule {
	return []Rule{
		NewRegistryRule(cfg),
		NewLiteralIncludeRule(cfg.Docs.Root),
		NewMarkdownLinkRule(cfg.Docs.Root),
	}
}

// Run executes every rule in order and concatenates the findings. The
// checks are sequential and each scan is performed fresh; nothing is
// cached between invocations.
func Run(rules []Rule) (errlist.List, error) {
	var all errlist.List
	for _, rule := range rules {
		recs, err := rule.Check()
		if err != nil {
			return nil, err
		}
		slog.Debug("Check completed", logfields.Rule(rule.Name()), logfields.Count(len(recs)))
		all.Extend(recs)
	}
	return all, nil
}
