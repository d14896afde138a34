package tools

import (
	"context"
	"sync"
)

// Func is one named async capability: it takes a loosely-typed input object
// and returns a JSON-shaped result. Errors returned here become `{error}`
// step results in a run trace; they never abort a run.
type Func func(ctx context.Context, input map[string]any) (any, error)

// Registry maps tool names to implementations. It is passed into the runtime
// explicitly rather than living as package state, so tests can swap in fakes.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register adds or replaces a tool under the given name.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Get looks a tool up by exact name.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}
