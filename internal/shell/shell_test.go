package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/pipesh/internal/builtin"
	"github.com/marcelocantos/pipesh/internal/history"
	"github.com/marcelocantos/pipesh/internal/pipeline"
	"github.com/marcelocantos/pipesh/internal/proc"
)

type recorder struct {
	recs []history.Record
	err  error
}

func (r *recorder) Log(rec history.Record) error {
	r.recs = append(r.recs, rec)
	return r.err
}

type session struct {
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	history *recorder
	shell   *Shell
}

// newSession wires a shell the way main does, with prompts and child
// output sharing one buffer. Children get an empty stdin of their own.
func newSession(t *testing.T, input string) *session {
	t.Helper()
	s := &session{
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
		history: &recorder{},
	}
	reporter := NewReporter(s.stderr, false)
	wd := builtin.NewWorkdir()
	reg := builtin.NewRegistry()
	builtin.RegisterAll(reg, wd)
	spawner := &proc.Spawner{
		Stdin:  strings.NewReader(""),
		Stdout: s.stdout,
		Stderr: s.stderr,
		Dir:    wd.Get,
	}
	s.shell = New(Options{
		Prompt:   "> ",
		Reader:   NewPlainReader(strings.NewReader(input), s.stdout),
		Runner:   pipeline.NewExecutor(reg, spawner, reporter, nil),
		Reporter: reporter,
		History:  s.history,
		Cwd:      wd.Get,
	})
	return s
}

func TestRunEndOfInput(t *testing.T) {
	s := newSession(t, "echo one\n")
	code := s.shell.Run(context.Background())

	assert.Equal(t, 0, code)
	assert.Equal(t, "> one\n> ", s.stdout.String())
	assert.Empty(t, s.stderr.String())
}

func TestRunPartialLastLine(t *testing.T) {
	s := newSession(t, "echo tail")
	code := s.shell.Run(context.Background())

	assert.Equal(t, 0, code)
	assert.Equal(t, "> tail\n", s.stdout.String())
}

func TestRunBlankLines(t *testing.T) {
	s := newSession(t, "\n   \n\t\n")
	code := s.shell.Run(context.Background())

	assert.Equal(t, 0, code)
	assert.Equal(t, "> > > > ", s.stdout.String())
	assert.Empty(t, s.history.recs, "blank lines are not executed")
}

func TestRunExitStopsReading(t *testing.T) {
	s := newSession(t, "exit\necho never\n")
	code := s.shell.Run(context.Background())

	assert.Equal(t, 0, code)
	assert.NotContains(t, s.stdout.String(), "never")
	require.Len(t, s.history.recs, 1)
	assert.True(t, s.history.recs[0].Exit)
}

func TestRunErrorsDoNotStopTheLoop(t *testing.T) {
	s := newSession(t, "nosuchcommand123\necho after\n")
	code := s.shell.Run(context.Background())

	assert.Equal(t, 0, code)
	assert.Contains(t, s.stdout.String(), "after\n")
	assert.True(t, strings.HasPrefix(s.stderr.String(), "pipesh: stage 1 (nosuchcommand123): "))
}

func TestRunRecordsHistory(t *testing.T) {
	s := newSession(t, "echo a | nosuchcommand123 | false\n")
	s.shell.Run(context.Background())

	require.Len(t, s.history.recs, 1)
	rec := s.history.recs[0]
	assert.Equal(t, "echo a | nosuchcommand123 | false", rec.Line)
	assert.Equal(t, []string{"echo", "nosuchcommand123", "false"}, rec.Stages)
	assert.Equal(t, []string{"nosuchcommand123"}, rec.Failed)
	assert.Equal(t, 1, rec.ExitCode)
	assert.False(t, rec.Exit)
	assert.NotEmpty(t, rec.Cwd)
}

func TestRunHistoryFailureIsNotFatal(t *testing.T) {
	s := newSession(t, "echo a\necho b\n")
	s.history.err = errors.New("disk full")

	code := s.shell.Run(context.Background())
	assert.Equal(t, 0, code)
	assert.Len(t, s.history.recs, 2)
	assert.Empty(t, s.stderr.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestRunReadFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	reporter := NewReporter(&stderr, false)
	sh := New(Options{
		Prompt:   "> ",
		Reader:   NewPlainReader(failingReader{}, &stdout),
		Runner:   pipeline.NewExecutor(builtin.NewRegistry(), &proc.Spawner{}, reporter, nil),
		Reporter: reporter,
	})

	assert.Equal(t, 1, sh.Run(context.Background()))
	assert.Equal(t, "pipesh: read line: device gone\n", stderr.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRunPromptFailure(t *testing.T) {
	var stderr bytes.Buffer
	reporter := NewReporter(&stderr, false)
	sh := New(Options{
		Prompt:   "> ",
		Reader:   NewPlainReader(strings.NewReader("echo hi\n"), failingWriter{}),
		Runner:   pipeline.NewExecutor(builtin.NewRegistry(), &proc.Spawner{}, reporter, nil),
		Reporter: reporter,
	})

	assert.Equal(t, 1, sh.Run(context.Background()))
	assert.Equal(t, "pipesh: write prompt: broken pipe\n", stderr.String())
}

type stuckRunner struct{}

func (stuckRunner) Run(context.Context, *pipeline.Pipeline) (pipeline.Report, error) {
	return pipeline.Report{Waited: 0}, errors.New("wait for sleep: no child processes")
}

func TestRunWaitFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	sh := New(Options{
		Prompt:   "> ",
		Reader:   NewPlainReader(strings.NewReader("sleep 1\necho never\n"), &stdout),
		Runner:   stuckRunner{},
		Reporter: NewReporter(&stderr, false),
	})

	assert.Equal(t, 1, sh.Run(context.Background()))
	assert.Equal(t, "> ", stdout.String())
	assert.Equal(t, "pipesh: wait for sleep: no child processes\n", stderr.String())
}

func TestPlainReaderTrimsCarriageReturn(t *testing.T) {
	var out bytes.Buffer
	r := NewPlainReader(strings.NewReader("echo hi\r\n"), &out)

	line, err := r.ReadLine("$ ")
	require.NoError(t, err)
	assert.Equal(t, "echo hi", line)
	assert.Equal(t, "$ ", out.String())
}

func TestPlainReaderLeavesRestUnread(t *testing.T) {
	in := strings.NewReader("first\nsecond\n")
	r := NewPlainReader(in, &bytes.Buffer{})

	line, err := r.ReadLine("")
	require.NoError(t, err)
	assert.Equal(t, "first", line)
	assert.Equal(t, len("second\n"), in.Len())
}

func TestReporterColor(t *testing.T) {
	var plain, colored bytes.Buffer
	NewReporter(&plain, false).ReportError(errors.New("boom"))
	NewReporter(&colored, true).ReportError(errors.New("boom"))

	assert.Equal(t, "pipesh: boom\n", plain.String())
	assert.Contains(t, colored.String(), "\x1b[")
	assert.True(t, strings.HasSuffix(colored.String(), " boom\n"))
}

func TestTranscript(t *testing.T) {
	// Resolve the fixtures before leaving the package directory.
	fixtureDir, err := filepath.Abs(filepath.Join("testdata", "golden"))
	require.NoError(t, err)
	t.Chdir(t.TempDir())

	input := "   \ncd /does/not/exist\nnosuchcommand123\necho hello | tr a-z A-Z\n\t\nexit\necho never\n"
	s := newSession(t, input)
	code := s.shell.Run(context.Background())

	out := fmt.Sprintf("exit status: %d\n--- stdout\n%s\n--- stderr\n%s", code, s.stdout.String(), s.stderr.String())
	g := goldie.New(t, goldie.WithFixtureDir(fixtureDir))
	g.Assert(t, "transcript", []byte(out))
}
