package builtin

import "context"

// DefaultCdDir is where cd goes without an argument.
const DefaultCdDir = "/"

// Cd changes the interpreter's working directory. Arguments past the first
// are ignored.
type Cd struct {
	wd *Workdir
}

var _ Builtin = (*Cd)(nil)

func (c *Cd) Name() string        { return "cd" }
func (c *Cd) Description() string { return "change the working directory (default /)" }

func (c *Cd) Run(_ context.Context, args []string) (Result, error) {
	dir := DefaultCdDir
	if len(args) > 0 {
		dir = args[0]
	}
	if err := c.wd.Chdir(dir); err != nil {
		return Continue, err
	}
	return Continue, nil
}
