package checks

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.skognes.net/docs/docsci/internal/config"
	"git.skognes.net/docs/docsci/internal/errlist"
	"git.skognes.net/docs/docsci/internal/util/sets"
)

// backtickRef matches a backtick-delimited module reference in the
// registry file, e.g. :mod:`airflow.operators.bash`.
var backtickRef = regexp.MustCompile("`([^`]+)`")

// RegistryRule verifies that every non-deprecated source module under
// the configured namespaces is referenced in the registry file.
type RegistryRule struct {
	sourceRoot string
	ext        string
	namespaces []string
	deprecated *regexp.Regexp
	registry   string
	exceptions sets.Set[string]
}

// NewRegistryRule builds the rule from configuration. The deprecated
// pattern is validated at Load time via defaults, so compilation here
// panics only on a user-supplied invalid regex.
func NewRegistryRule(cfg *config.Config) *RegistryRule {
	return &RegistryRule{
		sourceRoot: cfg.Source.Root,
		ext:        cfg.Source.Ext,
		namespaces: cfg.Source.Namespaces,
		deprecated: regexp.MustCompile(cfg.Source.DeprecatedPattern),
		registry:   cfg.Docs.Registry,
		exceptions: sets.New(cfg.Docs.RegistryExceptions...),
	}
}

// Name returns the rule identifier.
func (r *RegistryRule) Name() string { return "registry-completeness" }

// Check derives the module name set from the source tree, subtracts
// deprecated modules, restricts to the configured namespaces and flags
// everything missing from the registry file as a single aggregated
// finding attributed to the registry file at line 0.
func (r *RegistryRule) Check() (errlist.List, error) {
	all, err := r.scanModules(nil)
	if err != nil {
		return nil, err
	}
	deprecated, err := r.scanModules(r.deprecated)
	if err != nil {
		return nil, err
	}

	registryData, err := os.ReadFile(r.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", r.registry, err)
	}
	documented := sets.New[string]()
	for _, m := range backtickRef.FindAllStringSubmatch(string(registryData), -1) {
		documented.Add(m[1])
	}

	missing := sets.New[string]()
	for name := range all.Diff(deprecated) {
		if !r.inNamespace(name) {
			continue
		}
		if documented.Has(name) || r.exceptions.Has(name) {
			continue
		}
		missing.Add(name)
	}

	if missing.Len() == 0 {
		return nil, nil
	}
	// One record for the whole gap, not one per module. Line 0 keeps
	// the report from rendering a meaningless snippet.
	var recs errlist.List
	recs.Add(errlist.Record{
		File: r.registry,
		Line: 0,
		Message: fmt.Sprintf("modules missing from the registry: %s",
			strings.Join(sets.SortedStrings(missing), ", ")),
	})
	return recs, nil
}

// scanModules walks the source tree and returns the fully-qualified
// module name of every source file, excluding package-init files.
// When filter is non-nil only files whose content matches it are
// included. Each call is a full fresh directory scan.
func (r *RegistryRule) scanModules(filter *regexp.Regexp) (sets.Set[string], error) {
	out := sets.New[string]()
	initName := "__init__" + r.ext

	err := filepath.WalkDir(r.sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories never hold documented modules.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != r.ext || d.Name() == initName {
			return nil
		}
		if filter != nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if !filter.Match(data) {
				return nil
			}
		}
		out.Add(r.moduleName(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source tree %s: %w", r.sourceRoot, err)
	}
	return out, nil
}

// moduleName maps a source path to its dotted module name, e.g.
// airflow/operators/foo.py -> airflow.operators.foo.
func (r *RegistryRule) moduleName(path string) string {
	rel, err := filepath.Rel(r.sourceRoot, path)
	if err != nil {
		rel = path
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), r.ext)
	return strings.ReplaceAll(rel, "/", ".")
}

// inNamespace reports whether the module name has any configured
// namespace as one of its path segments.
func (r *RegistryRule) inNamespace(name string) bool {
	for _, part := range strings.Split(name, ".") {
		for _, ns := range r.namespaces {
			if part == ns {
				return true
			}
		}
	}
	return false
}
