package pipeline

import (
	"fmt"
	"strings"
)

// Separator splits a line into stages. It is matched literally, spaces
// included, so "a|b" is a single stage.
const Separator = " | "

// Stage is one command of a pipeline.
type Stage struct {
	Name string   // command name (first token), empty for a blank stage
	Args []string // remaining tokens, passed verbatim
}

func (s Stage) String() string {
	if len(s.Args) == 0 {
		return s.Name
	}
	return s.Name + " " + strings.Join(s.Args, " ")
}

// Pipeline is a non-empty sequence of stages parsed from one input line.
type Pipeline struct {
	Line   string // the trimmed input line
	Stages []Stage
}

// Outcome says whether the interpreter should keep going after a pipeline.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeExit             // exit ran; stop with success status
)

// StageStatus records what happened to one stage.
type StageStatus int

const (
	StageSkipped StageStatus = iota // not reached because exit ran first
	StageBuiltin                    // ran in-process
	StageSpawned                    // started as a child process
	StageFailed                     // built-in error or spawn failure
)

func (s StageStatus) String() string {
	switch s {
	case StageSkipped:
		return "skipped"
	case StageBuiltin:
		return "builtin"
	case StageSpawned:
		return "spawned"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StageResult is the executor's record of one stage.
type StageResult struct {
	Name   string
	Status StageStatus
	Pid    int   // set for spawned stages
	Err    error // set for failed stages
}

// Report summarizes one run of a pipeline.
type Report struct {
	Outcome Outcome
	Stages  []StageResult

	// Waited is the stage index of the handle the executor waited for, or -1
	// if no child was left to wait on.
	Waited   int
	ExitCode int // exit code of the waited child; informational only
}

// Failed returns the names of stages that did not run successfully.
func (r Report) Failed() []string {
	var names []string
	for _, s := range r.Stages {
		if s.Status == StageFailed {
			names = append(names, s.Name)
		}
	}
	return names
}

// StageError is reported for a stage that failed without stopping the
// pipeline.
type StageError struct {
	Index   int // zero-based position in the pipeline
	Name    string
	Builtin bool
	Err     error
}

func (e *StageError) Error() string {
	if e.Builtin {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("stage %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
