package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marcelocantos/pipesh/internal/builtin"
	"github.com/marcelocantos/pipesh/internal/proc"
)

// Spawner starts external commands. *proc.Spawner is the implementation.
type Spawner interface {
	Spawn(name string, args []string, stdin, stdout proc.Endpoint) (*proc.Handle, error)
}

// ErrorReporter receives per-stage errors. They are never returned from
// Run; the pipeline keeps going after each one.
type ErrorReporter interface {
	ReportError(err error)
}

// Executor runs pipelines: built-ins in-process, everything else as child
// processes chained stdout to stdin.
type Executor struct {
	builtins *builtin.Registry
	spawner  Spawner
	errs     ErrorReporter
	logger   *slog.Logger
}

// NewExecutor creates an executor. A nil logger discards diagnostics.
func NewExecutor(builtins *builtin.Registry, spawner Spawner, errs ErrorReporter, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		builtins: builtins,
		spawner:  spawner,
		errs:     errs,
		logger:   logger,
	}
}

// Run drives p to completion. Stages start strictly left to right; each
// pipe exists before the stage that reads it is spawned. Run returns once
// the last spawned child has exited, or as soon as exit runs.
//
// The returned error is non-nil only when the interpreter lost track of its
// final child; per-stage failures go to the ErrorReporter.
func (e *Executor) Run(ctx context.Context, p *Pipeline) (Report, error) {
	rep := Report{
		Stages: make([]StageResult, len(p.Stages)),
		Waited: -1,
	}
	for i, stage := range p.Stages {
		rep.Stages[i].Name = stage.Name
	}

	// prev is the most recently spawned child whose output may still be
	// claimed. It is the only handle the loop owns.
	var prev *proc.Handle
	prevIndex := -1
	last := len(p.Stages) - 1

	for i, stage := range p.Stages {
		res := &rep.Stages[i]

		if b, ok := e.builtins.Lookup(stage.Name); ok {
			result, err := b.Run(ctx, stage.Args)
			if err != nil {
				res.Status = StageFailed
				res.Err = err
				e.errs.ReportError(&StageError{Index: i, Name: stage.Name, Builtin: true, Err: err})
			} else {
				res.Status = StageBuiltin
			}
			if result == builtin.Terminate {
				e.logger.DebugContext(ctx, "exit requested", "stage", i)
				if prev != nil {
					prev.Release()
				}
				rep.Outcome = OutcomeExit
				return rep, nil
			}
			continue
		}

		stdin := proc.Inherit()
		if prev != nil {
			if f, err := prev.TakeOutput(); err == nil {
				stdin = proc.From(f)
			}
		}
		stdout := proc.Inherit()
		if i < last {
			stdout = proc.Pipe()
		}

		h, err := e.spawner.Spawn(stage.Name, stage.Args, stdin, stdout)
		if prev != nil {
			// Superseded: its output, if any, now belongs to this stage or
			// was closed by the failed spawn.
			prev.Release()
			prev, prevIndex = nil, -1
		}
		if err != nil {
			res.Status = StageFailed
			res.Err = err
			e.errs.ReportError(&StageError{Index: i, Name: stage.Name, Err: err})
			continue
		}

		res.Status = StageSpawned
		res.Pid = h.Pid()
		e.logger.DebugContext(ctx, "spawned", "stage", i, "name", stage.Name, "pid", res.Pid,
			"stdin", stdin.String(), "stdout", stdout.String())
		prev, prevIndex = h, i
	}

	if prev == nil {
		return rep, nil
	}

	code, err := prev.Wait()
	rep.Waited = prevIndex
	rep.ExitCode = code
	if err != nil {
		return rep, fmt.Errorf("wait for %s: %w", prev.Name(), err)
	}
	e.logger.DebugContext(ctx, "pipeline finished", "stage", prevIndex, "name", prev.Name(), "exit_code", code)
	return rep, nil
}
