package checks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.skognes.net/docs/docsci/internal/config"
)

// writeFile creates path (and parents) with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func registryFixture(t *testing.T, registryContent string) *config.Config {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "airflow", "operators", "foo.py"), "class FooOperator: pass\n")
	writeFile(t, filepath.Join(root, "airflow", "operators", "__init__.py"), "# package init\n")
	writeFile(t, filepath.Join(root, "airflow", "hooks", "old.py"), "# This module is deprecated.\n")
	writeFile(t, filepath.Join(root, "airflow", "sensors", "probe.py"), "class ProbeSensor: pass\n")
	writeFile(t, filepath.Join(root, "airflow", "utils", "misc.py"), "# not under a documented namespace\n")

	registry := filepath.Join(root, "docs", "code.rst")
	writeFile(t, registry, registryContent)

	cfg := config.Default()
	cfg.Source.Root = root
	cfg.Docs.Registry = registry
	return cfg
}

func TestRegistryRuleFlagsMissingModulesOnce(t *testing.T) {
	cfg := registryFixture(t, "Operators\n---------\n\n.. only stubs here\n")
	rule := NewRegistryRule(cfg)

	recs, err := rule.Check()
	require.NoError(t, err)

	// One aggregated record for the whole gap, not one per module.
	require.Len(t, recs, 1)
	rec := recs[0]
	require.Equal(t, cfg.Docs.Registry, rec.File)
	require.Equal(t, 0, rec.Line)
	require.Contains(t, rec.Message, "airflow.operators.foo")
	require.Contains(t, rec.Message, "airflow.sensors.probe")
	// Deprecated, init and out-of-namespace modules are exempt.
	require.NotContains(t, rec.Message, "airflow.hooks.old")
	require.NotContains(t, rec.Message, "__init__")
	require.NotContains(t, rec.Message, "airflow.utils.misc")
}

func TestRegistryRuleCleanWhenAllDocumented(t *testing.T) {
	content := ":mod:`airflow.operators.foo`\n:mod:`airflow.sensors.probe`\n"
	cfg := registryFixture(t, content)
	rule := NewRegistryRule(cfg)

	recs, err := rule.Check()
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRegistryRuleHonorsExceptions(t *testing.T) {
	cfg := registryFixture(t, ":mod:`airflow.operators.foo`\n")
	cfg.Docs.RegistryExceptions = []string{"airflow.sensors.probe"}
	rule := NewRegistryRule(cfg)

	recs, err := rule.Check()
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestModuleNameMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Root = "."
	rule := NewRegistryRule(cfg)

	require.Equal(t, "airflow.operators.foo",
		rule.moduleName(filepath.Join("airflow", "operators", "foo.py")))
}
