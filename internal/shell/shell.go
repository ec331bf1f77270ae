package shell

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/marcelocantos/pipesh/internal/history"
	"github.com/marcelocantos/pipesh/internal/pipeline"
)

// Runner executes one parsed pipeline. *pipeline.Executor is the
// implementation.
type Runner interface {
	Run(ctx context.Context, p *pipeline.Pipeline) (pipeline.Report, error)
}

// Recorder stores executed lines. *history.Logger is the implementation.
type Recorder interface {
	Log(rec history.Record) error
}

// Options configures a Shell. Reader, Runner and Reporter are required.
type Options struct {
	Prompt   string
	Reader   LineReader
	Runner   Runner
	Reporter *Reporter

	// History, if set, receives every executed line.
	History Recorder
	// Cwd reports the working directory recorded in history.
	Cwd    func() string
	Logger *slog.Logger
}

// Shell is the interactive loop: prompt, read, parse, execute.
type Shell struct {
	prompt   string
	reader   LineReader
	runner   Runner
	reporter *Reporter
	history  Recorder
	cwd      func() string
	logger   *slog.Logger
}

// New creates a Shell from opts.
func New(opts Options) *Shell {
	s := &Shell{
		prompt:   opts.Prompt,
		reader:   opts.Reader,
		runner:   opts.Runner,
		reporter: opts.Reporter,
		history:  opts.History,
		cwd:      opts.Cwd,
		logger:   opts.Logger,
	}
	if s.cwd == nil {
		s.cwd = func() string { return "" }
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Run loops until exit, end of input, or a failure of the interpreter's own
// streams, and returns the process exit status: 0 for exit and end of
// input, 1 otherwise.
func (s *Shell) Run(ctx context.Context) int {
	defer s.reader.Close()

	for {
		line, err := s.reader.ReadLine(s.prompt)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			s.reporter.ReportError(err)
			return 1
		}

		// A final line without a newline still runs.
		if p := pipeline.Parse(line); p != nil {
			if code, done := s.execute(ctx, p); done {
				return code
			}
		}

		if eof {
			s.logger.DebugContext(ctx, "end of input")
			return 0
		}
	}
}

func (s *Shell) execute(ctx context.Context, p *pipeline.Pipeline) (code int, done bool) {
	start := time.Now()
	rep, err := s.runner.Run(ctx, p)
	s.record(ctx, p, rep, time.Since(start))

	if err != nil {
		s.reporter.ReportError(err)
		return 1, true
	}
	if rep.Outcome == pipeline.OutcomeExit {
		return 0, true
	}
	return 0, false
}

func (s *Shell) record(ctx context.Context, p *pipeline.Pipeline, rep pipeline.Report, d time.Duration) {
	if s.history == nil {
		return
	}
	names := make([]string, len(p.Stages))
	for i, st := range p.Stages {
		names[i] = st.Name
	}
	err := s.history.Log(history.Record{
		Line:     p.Line,
		Stages:   names,
		Failed:   rep.Failed(),
		Exit:     rep.Outcome == pipeline.OutcomeExit,
		ExitCode: rep.ExitCode,
		Duration: d,
		Cwd:      s.cwd(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "history not recorded", "error", err)
	}
}
