package shell

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Prefix starts every error line pipesh writes.
const Prefix = "pipesh:"

// Reporter writes errors to the interpreter's error stream, one per line.
// It satisfies pipeline.ErrorReporter.
type Reporter struct {
	w      io.Writer
	prefix *color.Color
}

// NewReporter returns a Reporter writing to w. The prefix is bold red when
// colorize is set.
func NewReporter(w io.Writer, colorize bool) *Reporter {
	c := color.New(color.FgRed, color.Bold)
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return &Reporter{w: w, prefix: c}
}

// ReportError writes "pipesh: <err>".
func (r *Reporter) ReportError(err error) {
	r.prefix.Fprint(r.w, Prefix)
	fmt.Fprintf(r.w, " %v\n", err)
}
