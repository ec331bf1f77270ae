package proc

import "os"

type endpointKind int

const (
	kindInherit endpointKind = iota
	kindPipe
	kindFrom
)

// Endpoint says where one of a stage's standard streams is connected.
// The zero value inherits the interpreter's own stream.
type Endpoint struct {
	kind endpointKind
	file *os.File
}

// Inherit connects the stream to the interpreter's own stdin or stdout.
func Inherit() Endpoint { return Endpoint{kind: kindInherit} }

// Pipe asks the spawner for a fresh pipe. The child gets the write end and
// the read end stays on the returned Handle for the next stage to take.
// Only meaningful for output.
func Pipe() Endpoint { return Endpoint{kind: kindPipe} }

// From hands f to the child. Ownership moves to Spawn, which closes the
// interpreter's copy whether or not the child starts.
func From(f *os.File) Endpoint { return Endpoint{kind: kindFrom, file: f} }

func (e Endpoint) String() string {
	switch e.kind {
	case kindPipe:
		return "pipe"
	case kindFrom:
		return "from"
	default:
		return "inherit"
	}
}
