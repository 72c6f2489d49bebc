package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.skognes.net/docs/docsci/internal/buildlog"
	"git.skognes.net/docs/docsci/internal/config"
	"git.skognes.net/docs/docsci/internal/pipeline"
	"git.skognes.net/docs/docsci/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docsci.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct{} `cmd:"" help:"Run checks, build the documentation and report all findings"`

	Lint struct{} `cmd:"" help:"Run the consistency checks without building"`

	Clean struct{} `cmd:"" help:"Empty the build output directories"`

	History struct {
		Limit int `short:"n" help:"Number of runs to show" default:"10"`
	} `cmd:"" help:"Show recent recorded runs"`

	Watch struct{} `cmd:"" help:"Rebuild the documentation whenever sources change"`
}

func main() {
	kctx := kong.Parse(&CLI)

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Run on built-in defaults when no config file is present, so the
	// tool works out of the box inside a checkout.
	cfg := config.Default()
	if _, err := os.Stat(CLI.Config); err == nil {
		cfg, err = config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch kctx.Command() {
	case "build":
		res, err := pipeline.New(cfg, os.Stdout).Run(ctx)
		if err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
		os.Exit(res.ExitCode())
	case "lint":
		res, err := pipeline.New(cfg, os.Stdout).RunPrechecks(ctx)
		if err != nil {
			slog.Error("Lint failed", "error", err)
			os.Exit(1)
		}
		os.Exit(res.ExitCode())
	case "clean":
		if err := pipeline.New(cfg, os.Stdout).Clean(); err != nil {
			slog.Error("Clean failed", "error", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(ctx, cfg, CLI.History.Limit); err != nil {
			slog.Error("History failed", "error", err)
			os.Exit(1)
		}
	case "watch":
		code, err := runWatch(ctx, cfg)
		if err != nil {
			slog.Error("Watch failed", "error", err)
			os.Exit(1)
		}
		os.Exit(code)
	}
}

func runHistory(ctx context.Context, cfg *config.Config, limit int) error {
	if cfg.History.Path == "" {
		return fmt.Errorf("run history is not configured (set history.path)")
	}
	store, err := buildlog.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %-16s  precheck=%d build=%d  %s\n",
			run.Started.Format("2006-01-02 15:04:05"),
			run.Duration.Round(time.Millisecond),
			run.Status,
			run.PrecheckErrors,
			run.BuildErrors,
			run.RunID)
	}
	return nil
}

func runWatch(ctx context.Context, cfg *config.Config) (int, error) {
	run := func(ctx context.Context) int {
		res, err := pipeline.New(cfg, os.Stdout).Run(ctx)
		if err != nil {
			slog.Error("Run failed", "error", err)
			return 1
		}
		return res.ExitCode()
	}
	watcher := watch.New([]string{cfg.Docs.Root, cfg.Source.Root}, run)
	return watcher.Start(ctx)
}
