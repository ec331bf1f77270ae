package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abiosoft/readline"
)

// LineReader shows a prompt and returns the next input line without its
// newline. At end of input it returns any partial line together with
// io.EOF.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// plainReader reads a byte at a time so that nothing past the newline is
// consumed: children that inherit the same stdin see the rest of the input.
type plainReader struct {
	in  io.Reader
	out io.Writer
	buf [1]byte
}

// NewPlainReader writes prompts to out and reads lines from in.
func NewPlainReader(in io.Reader, out io.Writer) LineReader {
	return &plainReader{in: in, out: out}
}

func (r *plainReader) ReadLine(prompt string) (string, error) {
	if _, err := io.WriteString(r.out, prompt); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	var line []byte
	for {
		n, err := r.in.Read(r.buf[:])
		if n > 0 {
			if r.buf[0] == '\n' {
				return strings.TrimSuffix(string(line), "\r"), nil
			}
			line = append(line, r.buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return string(line), io.EOF
			}
			return "", fmt.Errorf("read line: %w", err)
		}
	}
}

func (r *plainReader) Close() error { return nil }

type readlineReader struct {
	rl *readline.Instance
}

// NewReadline returns a terminal line editor with recall preloaded from
// recent, oldest first. limit caps the recall list; 0 disables recall.
func NewReadline(recent []string, limit int) (LineReader, error) {
	if limit == 0 {
		limit = -1
	}
	rl, err := readline.NewEx(&readline.Config{
		HistoryLimit:    limit,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	for _, line := range recent {
		_ = rl.SaveHistory(line)
	}
	return &readlineReader{rl: rl}, nil
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	switch {
	case err == readline.ErrInterrupt:
		// Ctrl-C abandons the line being edited.
		return "", nil
	case err == io.EOF:
		return line, io.EOF
	case err != nil:
		return "", fmt.Errorf("read line: %w", err)
	}
	return line, nil
}

func (r *readlineReader) Close() error { return r.rl.Close() }
