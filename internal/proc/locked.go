package proc

import (
	"io"
	"os"
	"sync"
)

// lockedWriter serializes writes to a writer shared by several children.
// os/exec copies into a non-file writer from one goroutine per child, and
// released children keep copying while the next stage runs.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// lockedReader is the input counterpart: every child inheriting a non-file
// stdin reads it from its own copy goroutine.
type lockedReader struct {
	mu *sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

// shared holds the Spawner's streams as handed to children. Files pass
// through untouched; anything else is wrapped once so all children share
// one lock per stream.
type shared struct {
	once   sync.Once
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (sh *shared) init(stdin io.Reader, stdout, stderr io.Writer) {
	sh.once.Do(func() {
		// stdout and stderr may be the same buffer, so they share a lock.
		out := &sync.Mutex{}
		sh.stdin = lockReader(stdin, &sync.Mutex{})
		sh.stdout = lockWriter(stdout, out)
		sh.stderr = lockWriter(stderr, out)
	})
}

func lockReader(r io.Reader, mu *sync.Mutex) io.Reader {
	if r == nil {
		return nil
	}
	if _, ok := r.(*os.File); ok {
		return r
	}
	return &lockedReader{mu: mu, r: r}
}

func lockWriter(w io.Writer, mu *sync.Mutex) io.Writer {
	if w == nil {
		return nil
	}
	if _, ok := w.(*os.File); ok {
		return w
	}
	return &lockedWriter{mu: mu, w: w}
}
