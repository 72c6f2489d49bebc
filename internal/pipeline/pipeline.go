// Package pipeline sequences a documentation run: prepare the output
// directories, clean them, run the prechecks, invoke the generator and
// verify its output. Every failure is reported once, then the run
// terminates.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.skognes.net/docs/docsci/internal/buildlog"
	"git.skognes.net/docs/docsci/internal/checks"
	"git.skognes.net/docs/docsci/internal/config"
	"git.skognes.net/docs/docsci/internal/errlist"
	"git.skognes.net/docs/docsci/internal/linkcheck"
	"git.skognes.net/docs/docsci/internal/logfields"
	"git.skognes.net/docs/docsci/internal/metrics"
	"git.skognes.net/docs/docsci/internal/report"
	"git.skognes.net/docs/docsci/internal/sphinx"
	"git.skognes.net/docs/docsci/internal/workspace"
)

// Result is the outcome of one run.
type Result struct {
	RunID          string
	Started        time.Time
	Duration       time.Duration
	PrecheckErrors int
	BuildErrors    int
	Status         string
}

// ExitCode maps the terminal state to the process exit code.
func (r Result) ExitCode() int {
	if r.Status == buildlog.StatusOK {
		return 0
	}
	return 1
}

// Verifier checks the generated site; injectable for tests.
type Verifier func(siteDir string) (errlist.List, error)

// Pipeline wires the stages together.
type Pipeline struct {
	cfg     *config.Config
	manager *workspace.Manager
	rules   []checks.Rule
	builder sphinx.Builder
	verify  Verifier
	out     io.Writer
}

// New builds the default pipeline for the given configuration.
func New(cfg *config.Config, out io.Writer) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		manager: workspace.NewManager(cfg, workspace.NewHostEnvironment(cfg)),
		rules:   checks.DefaultRules(cfg),
		builder: sphinx.NewBinaryBuilder(cfg),
		verify:  linkcheck.Verify,
		out:     out,
	}
}

// WithBuilder overrides the generator invocation (tests, dry runs).
func (p *Pipeline) WithBuilder(b sphinx.Builder) *Pipeline {
	if b != nil {
		p.builder = b
	}
	return p
}

// WithManager overrides the workspace manager (tests).
func (p *Pipeline) WithManager(m *workspace.Manager) *Pipeline {
	if m != nil {
		p.manager = m
	}
	return p
}

// WithRules overrides the precheck rule set.
func (p *Pipeline) WithRules(rules []checks.Rule) *Pipeline {
	p.rules = rules
	return p
}

// WithVerifier overrides post-build verification.
func (p *Pipeline) WithVerifier(v Verifier) *Pipeline {
	if v != nil {
		p.verify = v
	}
	return p
}

// Run executes the full sequence. Findings are reported to the
// configured writer and reflected in the Result; the error return is
// reserved for environment failures, which surface raw with no
// summary.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	slog.Info("Starting documentation run", logfields.RunID(res.RunID))

	restore, err := p.manager.Prepare(ctx)
	if err != nil {
		return res, err
	}
	defer func() {
		// Ownership restoration covers every exit path.
		if err := restore(); err != nil {
			slog.Error("Ownership restore failed", logfields.Error(err))
		}
	}()

	if err := p.manager.Clean(); err != nil {
		return res, err
	}

	precheck, err := checks.Run(p.rules)
	if err != nil {
		return res, err
	}
	res.PrecheckErrors = len(precheck)
	if !precheck.Empty() {
		res.Status = buildlog.StatusPrecheckFailed
		res.Duration = time.Since(res.Started)
		if err := report.Write(p.out, precheck); err != nil {
			return res, err
		}
		p.finish(ctx, res)
		return res, nil
	}

	buildRecs, err := p.builder.Build(ctx)
	if err != nil {
		return res, err
	}
	verifyRecs, err := p.verify(p.cfg.Output.SiteDir)
	if err != nil {
		return res, err
	}
	buildRecs.Extend(verifyRecs)

	res.BuildErrors = len(buildRecs)
	res.Duration = time.Since(res.Started)
	if !buildRecs.Empty() {
		res.Status = buildlog.StatusBuildFailed
		if err := report.Write(p.out, buildRecs); err != nil {
			return res, err
		}
	} else {
		res.Status = buildlog.StatusOK
		fmt.Fprintln(p.out, "Documentation build completed without findings")
	}

	p.finish(ctx, res)
	return res, nil
}

// RunPrechecks runs only the consistency checks and reports them,
// without touching the output directories or the generator.
func (p *Pipeline) RunPrechecks(ctx context.Context) (Result, error) {
	res := Result{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}

	precheck, err := checks.Run(p.rules)
	if err != nil {
		return res, err
	}
	res.PrecheckErrors = len(precheck)
	res.Duration = time.Since(res.Started)
	if precheck.Empty() {
		res.Status = buildlog.StatusOK
		fmt.Fprintln(p.out, "All checks passed")
	} else {
		res.Status = buildlog.StatusPrecheckFailed
		if err := report.Write(p.out, precheck); err != nil {
			return res, err
		}
	}
	return res, nil
}

// finish records the run in the history database and the metrics
// textfile when configured. Both are best-effort and never change the
// exit code.
func (p *Pipeline) finish(ctx context.Context, res Result) {
	if path := p.cfg.History.Path; path != "" {
		if err := p.recordHistory(ctx, path, res); err != nil {
			slog.Warn("Failed to record run history", logfields.Error(err))
		}
	}
	if path := p.cfg.Metrics.Textfile; path != "" {
		err := metrics.WriteTextfile(path, metrics.Snapshot{
			DurationSeconds: res.Duration.Seconds(),
			PrecheckErrors:  res.PrecheckErrors,
			BuildErrors:     res.BuildErrors,
			Success:         res.Status == buildlog.StatusOK,
		})
		if err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Error(err))
		}
	}
	slog.Info("Run finished",
		logfields.RunID(res.RunID),
		logfields.Stage(res.Status),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
}

func (p *Pipeline) recordHistory(ctx context.Context, path string, res Result) error {
	store, err := buildlog.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()
	return store.Record(ctx, buildlog.Run{
		RunID:          res.RunID,
		Started:        res.Started,
		Duration:       res.Duration,
		PrecheckErrors: res.PrecheckErrors,
		BuildErrors:    res.BuildErrors,
		Status:         res.Status,
	})
}

// Clean empties the output directories outside of a full run.
func (p *Pipeline) Clean() error {
	return p.manager.Clean()
}
