package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"

	"github.com/marcelocantos/pipesh/internal/builtin"
	"github.com/marcelocantos/pipesh/internal/config"
	"github.com/marcelocantos/pipesh/internal/history"
	"github.com/marcelocantos/pipesh/internal/logging"
	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/proc"
	"github.com/marcelocantos/pipesh/internal/shell"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load config.
	cfg, err := config.Load(afero.NewOsFs())
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipesh: config: %v\n", err)
		return 1
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipesh: log: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx := context.Background()
	reporter := shell.NewReporter(os.Stderr, isTerminal(os.Stderr))

	// Set up built-ins and the child process spawner.
	wd := builtin.NewWorkdir()
	reg := builtin.NewRegistry()
	builtin.RegisterAll(reg, wd)
	for _, b := range reg.All() {
		logger.DebugContext(ctx, "builtin", "name", b.Name(), "description", b.Description())
	}
	spawner := &proc.Spawner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Dir:    wd.Get,
	}
	executor := pipeline.NewExecutor(reg, spawner, reporter, logger)

	recorder, recent := openHistory(ctx, cfg.History, logger)

	reader, err := newReader(cfg, recent)
	if err != nil {
		logger.WarnContext(ctx, "readline unavailable, reading plain lines", "error", err)
		reader = shell.NewPlainReader(os.Stdin, os.Stdout)
	}

	opts := shell.Options{
		Prompt:   cfg.Prompt,
		Reader:   reader,
		Runner:   executor,
		Reporter: reporter,
		Cwd:      wd.Get,
		Logger:   logger,
	}
	if recorder != nil {
		opts.History = recorder
	}
	return shell.New(opts).Run(ctx)
}

// openHistory returns the history logger, or nil when history is disabled
// or unusable, and the lines to preload for recall. Failures only warn.
func openHistory(ctx context.Context, cfg config.HistoryConfig, logger *slog.Logger) (*history.Logger, []string) {
	if !cfg.Enabled {
		return nil, nil
	}

	if _, err := os.Stat(cfg.Path); err == nil {
		if err := history.Verify(cfg.Path); err != nil {
			logger.WarnContext(ctx, "history chain broken", "path", cfg.Path, "error", err)
		}
	}

	recorder, err := history.NewLogger(cfg.Path)
	if err != nil {
		logger.WarnContext(ctx, "history disabled", "path", cfg.Path, "error", err)
		return nil, nil
	}

	logger.DebugContext(ctx, "history enabled", "path", recorder.Path())

	var recent []string
	if cfg.MaxEntries > 0 {
		if recent, err = history.Lines(cfg.Path, cfg.MaxEntries); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.DebugContext(ctx, "no history recall", "error", err)
		}
	}
	return recorder, recent
}

func newReader(cfg *config.Config, recent []string) (shell.LineReader, error) {
	if !useReadline(cfg.Readline, isTerminal(os.Stdin), isTerminal(os.Stdout)) {
		return shell.NewPlainReader(os.Stdin, os.Stdout), nil
	}
	return shell.NewReadline(recent, cfg.History.MaxEntries)
}

// useReadline reports whether mode selects the line editor for the given
// terminal state.
func useReadline(mode string, stdinTTY, stdoutTTY bool) bool {
	switch mode {
	case config.ReadlineAlways:
		return true
	case config.ReadlineAuto:
		return stdinTTY && stdoutTTY
	default:
		return false
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
