package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.skognes.net/docs/docsci/internal/config"
)

// fakeEnv is an Environment with canned answers.
type fakeEnv struct {
	sandboxed bool
	uid, gid  string
	ownerErr  error
}

func (e fakeEnv) Sandboxed() bool { return e.sandboxed }

func (e fakeEnv) HostOwner() (string, string, error) {
	if e.ownerErr != nil {
		return "", "", e.ownerErr
	}
	return e.uid, e.gid, nil
}

func outputConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Output.SiteDir = filepath.Join(base, "_build")
	cfg.Output.DoctreeDir = filepath.Join(base, "_doctrees")
	return cfg
}

func TestPrepareCreatesDirectories(t *testing.T) {
	cfg := outputConfig(t)
	m := NewManager(cfg, fakeEnv{})

	restore, err := m.Prepare(context.Background())
	require.NoError(t, err)
	require.NoError(t, restore())

	require.DirExists(t, cfg.Output.SiteDir)
	require.DirExists(t, cfg.Output.DoctreeDir)

	// Idempotent.
	_, err = m.Prepare(context.Background())
	require.NoError(t, err)
}

func TestPrepareSandboxUsesElevationAndRestoresOwnership(t *testing.T) {
	cfg := outputConfig(t)
	var commands []string
	m := NewManager(cfg, fakeEnv{sandboxed: true, uid: "1000", gid: "1000"}).
		WithRunCommand(func(_ context.Context, name string, args ...string) error {
			commands = append(commands, name+" "+strings.Join(args, " "))
			return nil
		})

	restore, err := m.Prepare(context.Background())
	require.NoError(t, err)
	require.Len(t, commands, 2)
	require.Contains(t, commands[0], "sudo mkdir -p")

	require.NoError(t, restore())
	require.Len(t, commands, 4)
	require.Contains(t, commands[2], "sudo chown -R 1000:1000")
}

func TestPrepareSandboxMissingHostIdentityIsFatal(t *testing.T) {
	cfg := outputConfig(t)
	m := NewManager(cfg, fakeEnv{sandboxed: true, ownerErr: errors.New("environment variable HOST_USER_ID not set")}).
		WithRunCommand(func(context.Context, string, ...string) error {
			t.Fatal("no command should run when the host identity is unknown")
			return nil
		})

	_, err := m.Prepare(context.Background())
	require.Error(t, err)
}

func TestCleanEmptiesDirectories(t *testing.T) {
	cfg := outputConfig(t)
	m := NewManager(cfg, fakeEnv{})
	_, err := m.Prepare(context.Background())
	require.NoError(t, err)

	stale := filepath.Join(cfg.Output.SiteDir, "stale.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	require.NoError(t, m.Clean())
	require.NoFileExists(t, stale)
	require.DirExists(t, cfg.Output.SiteDir)
}

func TestCleanIsIdempotentAndTolerantOfMissingDirs(t *testing.T) {
	cfg := outputConfig(t)
	m := NewManager(cfg, fakeEnv{})

	// Directories were never created.
	require.NoError(t, m.Clean())
	// Twice in a row on empty directories raises no error.
	_, err := m.Prepare(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Clean())
	require.NoError(t, m.Clean())
}

func TestHostEnvironmentDetectsMarker(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "marker")
	env := HostEnvironment{Marker: marker, OwnerEnv: "DOCSCI_TEST_UID", GroupEnv: "DOCSCI_TEST_GID"}
	require.False(t, env.Sandboxed())

	require.NoError(t, os.WriteFile(marker, nil, 0o644))
	require.True(t, env.Sandboxed())

	_, _, err := env.HostOwner()
	require.Error(t, err)

	t.Setenv("DOCSCI_TEST_UID", "1000")
	t.Setenv("DOCSCI_TEST_GID", "1000")
	uid, gid, err := env.HostOwner()
	require.NoError(t, err)
	require.Equal(t, "1000", uid)
	require.Equal(t, "1000", gid)
}
