package builtin

import "context"

// Exit ends the interpreter with status 0 wherever it appears in a pipeline.
type Exit struct{}

var _ Builtin = (*Exit)(nil)

func (e *Exit) Name() string        { return "exit" }
func (e *Exit) Description() string { return "exit the interpreter" }

func (e *Exit) Run(context.Context, []string) (Result, error) {
	return Terminate, nil
}
