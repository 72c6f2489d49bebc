// Package workspace prepares and empties the build output
// directories, including the ownership handling needed when the tool
// runs inside an isolated build container.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"git.skognes.net/docs/docsci/internal/config"
	"git.skognes.net/docs/docsci/internal/logfields"
)

// Environment describes the execution environment. Core logic stays
// agnostic to how the sandbox check is performed.
type Environment interface {
	// Sandboxed reports whether the tool runs inside the isolated
	// build container.
	Sandboxed() bool
	// HostOwner returns the uid and gid that should own the output
	// directories on the host. Only consulted in the sandboxed branch;
	// a missing variable there is fatal.
	HostOwner() (uid, gid string, err error)
}

// HostEnvironment detects the sandbox via a marker file and reads the
// host identity from environment variables.
type HostEnvironment struct {
	Marker   string
	OwnerEnv string
	GroupEnv string
}

// NewHostEnvironment builds the descriptor from configuration.
func NewHostEnvironment(cfg *config.Config) HostEnvironment {
	return HostEnvironment{
		Marker:   cfg.Sandbox.Marker,
		OwnerEnv: cfg.Sandbox.OwnerEnv,
		GroupEnv: cfg.Sandbox.GroupEnv,
	}
}

// Sandboxed reports whether the marker file exists.
func (e HostEnvironment) Sandboxed() bool {
	_, err := os.Stat(e.Marker)
	return err == nil
}

// HostOwner reads the host uid/gid from the configured variables.
func (e HostEnvironment) HostOwner() (string, string, error) {
	uid, ok := os.LookupEnv(e.OwnerEnv)
	if !ok {
		return "", "", fmt.Errorf("environment variable %s not set", e.OwnerEnv)
	}
	gid, ok := os.LookupEnv(e.GroupEnv)
	if !ok {
		return "", "", fmt.Errorf("environment variable %s not set", e.GroupEnv)
	}
	return uid, gid, nil
}

// RunCommand executes an external command to completion. Injectable so
// tests can observe the sandbox branch without sudo.
type RunCommand func(ctx context.Context, name string, args ...string) error

func execRun(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Manager handles the output directories of a build.
type Manager struct {
	dirs []string
	env  Environment
	run  RunCommand
}

// NewManager creates a manager for the two configured output
// directories.
func NewManager(cfg *config.Config, env Environment) *Manager {
	return &Manager{
		dirs: []string{cfg.Output.SiteDir, cfg.Output.DoctreeDir},
		env:  env,
		run:  execRun,
	}
}

// WithRunCommand overrides subprocess execution (tests).
func (m *Manager) WithRunCommand(run RunCommand) *Manager {
	if run != nil {
		m.run = run
	}
	return m
}

// Restore undoes environment-specific side effects of Prepare. The
// caller must invoke it on every exit path.
type Restore func() error

var noRestore Restore = func() error { return nil }

// Prepare idempotently ensures the output directories exist. In the
// sandboxed branch the directories are created with elevated
// privileges and the returned Restore hands ownership back to the
// host user.
func (m *Manager) Prepare(ctx context.Context) (Restore, error) {
	if !m.env.Sandboxed() {
		for _, dir := range m.dirs {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return noRestore, fmt.Errorf("failed to create output directory %s: %w", dir, err)
			}
		}
		return noRestore, nil
	}

	// Resolve the host identity up front: a missing variable must fail
	// before any privileged mutation happens.
	uid, gid, err := m.env.HostOwner()
	if err != nil {
		return noRestore, err
	}

	for _, dir := range m.dirs {
		if err := m.run(ctx, "sudo", "mkdir", "-p", dir); err != nil {
			return noRestore, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	slog.Debug("Prepared output directories in sandbox", logfields.Count(len(m.dirs)))

	dirs := m.dirs
	run := m.run
	return func() error {
		for _, dir := range dirs {
			if err := run(context.Background(), "sudo", "chown", "-R", uid+":"+gid, dir); err != nil {
				return fmt.Errorf("failed to restore ownership of %s: %w", dir, err)
			}
		}
		return nil
	}, nil
}

// Clean removes the contents of the output directories. Directories
// that do not exist yet are a no-op, so cleaning twice is error-free.
func (m *Manager) Clean() error {
	for _, dir := range m.dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read output directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("failed to clean %s: %w", dir, err)
			}
		}
		slog.Debug("Cleaned output directory", logfields.Path(dir))
	}
	return nil
}
