package builtin

import "os"

// Workdir is the interpreter's current directory. It is process-wide state:
// Chdir is only called by cd, and every spawn reads Get. Nothing here is
// synchronized because the interpreter loop is the only caller.
type Workdir struct {
	chdir func(string) error
	getwd func() (string, error)
}

// NewWorkdir returns a Workdir backed by the process working directory.
func NewWorkdir() *Workdir {
	return &Workdir{chdir: os.Chdir, getwd: os.Getwd}
}

// Chdir changes the process working directory. On failure the directory is
// unchanged.
func (w *Workdir) Chdir(dir string) error {
	return w.chdir(dir)
}

// Get returns the current directory, or "" if it cannot be determined (for
// instance after it was removed), in which case children inherit whatever
// the process has.
func (w *Workdir) Get() string {
	dir, err := w.getwd()
	if err != nil {
		return ""
	}
	return dir
}
