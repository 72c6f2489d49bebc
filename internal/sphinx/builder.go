// Package sphinx drives the external document generator and turns its
// warning stream into findings.
package sphinx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"git.skognes.net/docs/docsci/internal/config"
	"git.skognes.net/docs/docsci/internal/errlist"
	"git.skognes.net/docs/docsci/internal/logfields"
)

// Builder abstracts the HTML rendering step so the pipeline can be
// exercised without a sphinx-build binary on PATH.
type Builder interface {
	// Build renders the documentation tree. Warnings and a non-zero
	// exit status become findings; the error return is reserved for
	// environment failures (missing binary, unreadable warning file,
	// malformed warning line).
	Build(ctx context.Context) (errlist.List, error)
}

// BinaryBuilder invokes the configured generator binary.
type BinaryBuilder struct {
	binary     string
	builder    string
	docsRoot   string
	siteDir    string
	doctreeDir string
}

// NewBinaryBuilder creates a builder from configuration.
func NewBinaryBuilder(cfg *config.Config) *BinaryBuilder {
	return &BinaryBuilder{
		binary:     cfg.Sphinx.Binary,
		builder:    cfg.Sphinx.Builder,
		docsRoot:   cfg.Docs.Root,
		siteDir:    cfg.Output.SiteDir,
		doctreeDir: cfg.Output.DoctreeDir,
	}
}

// Build runs the generator with warnings redirected to a temporary
// file, then parses that file into findings. The temporary file is
// removed on every exit path.
func (b *BinaryBuilder) Build(ctx context.Context) (errlist.List, error) {
	warnFile, err := os.CreateTemp("", "docsci-warnings-*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create warnings file: %w", err)
	}
	warnPath := warnFile.Name()
	_ = warnFile.Close()
	defer func() {
		_ = os.Remove(warnPath)
	}()

	args := []string{
		"-b", b.builder,
		"-d", b.doctreeDir,
		"--color",
		"-w", warnPath,
		b.docsRoot,
		b.siteDir,
	}
	cmd := exec.CommandContext(ctx, b.binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("Running document generator", logfields.Path(b.docsRoot), slog.String("binary", b.binary))

	var recs errlist.List
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// Binary not found or not startable: environment failure.
			return nil, fmt.Errorf("failed to run %s: %w", b.binary, err)
		}
		recs.AddMessage(fmt.Sprintf("%s returned non-zero exit status: %d", b.binary, exitErr.ExitCode()))
	}

	data, err := os.ReadFile(warnPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read warnings file: %w", err)
	}
	parsed, err := ParseWarnings(string(data))
	if err != nil {
		return nil, err
	}
	recs.Extend(parsed)
	return recs, nil
}

// NoopBuilder performs no rendering; useful in tests or when only the
// prechecks are wanted.
type NoopBuilder struct{}

// Build returns no findings.
func (NoopBuilder) Build(context.Context) (errlist.List, error) {
	slog.Debug("NoopBuilder skipping render")
	return nil, nil
}
