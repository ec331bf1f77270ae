package builtin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Result tells the executor what to do after a built-in returns.
type Result int

const (
	Continue  Result = iota // carry on with the next stage
	Terminate               // stop the interpreter with success status
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Terminate:
		return "terminate"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Builtin is a command handled inside the interpreter rather than spawned.
type Builtin interface {
	// Name returns the exact command name that selects this built-in.
	Name() string

	// Description returns a one-line summary.
	Description() string

	// Run executes synchronously. Built-ins never see pipeline input or
	// output. A returned error is reported and the pipeline carries on.
	Run(ctx context.Context, args []string) (Result, error)
}

// Registry maps command names to built-ins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds a built-in, replacing any with the same name.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Lookup classifies name: ok is true only for an exact match.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// All returns every registered built-in sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}

// RegisterAll installs cd and exit. cd changes wd.
func RegisterAll(r *Registry, wd *Workdir) {
	r.Register(&Cd{wd: wd})
	r.Register(&Exit{})
}
