package proc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

var (
	// ErrOutputTaken is returned when a handle's output has already been
	// handed to another stage or released.
	ErrOutputTaken = errors.New("output already taken")

	// ErrNoOutput is returned for handles whose output was not piped.
	ErrNoOutput = errors.New("output not captured")
)

// Spawner starts external commands with the interpreter's standard streams
// available for inheritance. Streams that are not files are shared by every
// child under a lock. A Spawner must not be copied after first use.
type Spawner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Dir, if set, is consulted at every spawn for the child's working
	// directory. An empty result leaves the child in the interpreter's
	// current directory.
	Dir func() string

	streams shared
}

// Spawn starts name with args, wiring stdin and stdout per the endpoints.
// It returns as soon as the child has started. An endpoint created by From
// is closed before returning in every case; a pipe requested for output is
// closed again if the child fails to start.
func (s *Spawner) Spawn(name string, args []string, stdin, stdout Endpoint) (*Handle, error) {
	s.streams.init(s.Stdin, s.Stdout, s.Stderr)

	cmd := exec.Command(name, args...)
	if s.Dir != nil {
		cmd.Dir = s.Dir()
	}
	cmd.Stderr = s.streams.stderr

	// Our copies of every file handed to the child. The child holds its own
	// duplicates once started.
	var toClose []*os.File
	defer func() {
		for _, f := range toClose {
			f.Close()
		}
	}()

	switch stdin.kind {
	case kindFrom:
		cmd.Stdin = stdin.file
		toClose = append(toClose, stdin.file)
	case kindPipe:
		return nil, fmt.Errorf("%s: stdin cannot be a fresh pipe", name)
	default:
		cmd.Stdin = s.streams.stdin
	}

	var output *os.File
	switch stdout.kind {
	case kindPipe:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("create pipe: %w", err)
		}
		cmd.Stdout = w
		toClose = append(toClose, w)
		output = r
	case kindFrom:
		cmd.Stdout = stdout.file
		toClose = append(toClose, stdout.file)
	default:
		cmd.Stdout = s.streams.stdout
	}

	if err := cmd.Start(); err != nil {
		if output != nil {
			output.Close()
		}
		return nil, err
	}

	return &Handle{name: name, cmd: cmd, output: output}, nil
}

// Handle is the interpreter's reference to a started child. It has a single
// owner; the pipe it captured can be taken at most once.
type Handle struct {
	name   string
	cmd    *exec.Cmd
	output *os.File
	taken  bool

	once sync.Once
	code int
	err  error
}

// Name returns the command name the handle was spawned with.
func (h *Handle) Name() string { return h.name }

// Pid returns the child's process id.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// TakeOutput transfers the read end of the child's output pipe to the
// caller, who becomes responsible for closing it.
func (h *Handle) TakeOutput() (*os.File, error) {
	if h.taken {
		return nil, ErrOutputTaken
	}
	if h.output == nil {
		return nil, ErrNoOutput
	}
	f := h.output
	h.output = nil
	h.taken = true
	return f, nil
}

// Wait drops any output nobody claimed, then blocks until the child exits.
// A non-zero exit is reported through code with a nil error; err is set only
// when the interpreter could not collect the child at all.
func (h *Handle) Wait() (code int, err error) {
	h.dropOutput()
	h.wait()
	return h.code, h.err
}

// Release gives up the handle without blocking. Unclaimed output is closed
// and the child is reaped in the background.
func (h *Handle) Release() {
	h.dropOutput()
	go h.wait()
}

func (h *Handle) dropOutput() {
	if h.output != nil {
		h.output.Close()
		h.output = nil
		h.taken = true
	}
}

func (h *Handle) wait() {
	h.once.Do(func() {
		err := h.cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			h.code = 0
		case errors.As(err, &exitErr):
			h.code = exitErr.ExitCode()
		default:
			h.code = -1
			h.err = err
		}
	})
}
