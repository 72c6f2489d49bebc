package sphinx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.skognes.net/docs/docsci/internal/config"
)

func builderConfig(t *testing.T, binary string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Sphinx.Binary = binary
	cfg.Docs.Root = t.TempDir()
	cfg.Output.SiteDir = t.TempDir()
	cfg.Output.DoctreeDir = t.TempDir()
	return cfg
}

func TestBinaryBuilderRecordsNonZeroExit(t *testing.T) {
	// `false` ignores its arguments and exits 1, which stands in for a
	// failing generator invocation.
	b := NewBinaryBuilder(builderConfig(t, "false"))

	recs, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "", recs[0].File)
	require.Equal(t, 0, recs[0].Line)
	require.Contains(t, recs[0].Message, "non-zero exit status: 1")
}

func TestBinaryBuilderCleanRun(t *testing.T) {
	b := NewBinaryBuilder(builderConfig(t, "true"))

	recs, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestBinaryBuilderMissingBinaryIsFatal(t *testing.T) {
	b := NewBinaryBuilder(builderConfig(t, "definitely-not-a-real-binary"))

	_, err := b.Build(context.Background())
	require.Error(t, err)
}

func TestNoopBuilder(t *testing.T) {
	recs, err := NoopBuilder{}.Build(context.Background())
	require.NoError(t, err)
	require.Empty(t, recs)
}
