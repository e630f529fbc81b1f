// Package hooks provides extension points for the operation run lifecycle.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/victoralfred/runbox/engine"
)

// Operation is the unit handed to run hooks: the operation-type
// discriminator plus the opaque payload.
type Operation struct {
	Type    string
	Payload json.RawMessage
}

// Hook defines extension points for the run lifecycle.
type Hook interface {
	// Name returns a unique identifier for the hook.
	Name() string

	// Priority determines execution order (lower = earlier).
	Priority() int
}

// PreRunHook is called before an operation is handed to the engine. It may
// return a modified operation.
type PreRunHook interface {
	Hook
	PreRun(ctx context.Context, op *Operation) (*Operation, error)
}

// PostRunHook is called after the engine resolved a terminal outcome.
type PostRunHook interface {
	Hook
	PostRun(ctx context.Context, op *Operation, result *engine.Result, err error) error
}

// Registry manages hook registration and invocation.
type Registry struct {
	preRun  []PreRunHook
	postRun []PostRunHook
	mu      sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a hook to the registry. A hook may implement both
// interfaces and is registered for each it satisfies.
func (r *Registry) Register(hook Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registered := false
	if h, ok := hook.(PreRunHook); ok {
		r.preRun = append(r.preRun, h)
		sortHooks(r.preRun)
		registered = true
	}
	if h, ok := hook.(PostRunHook); ok {
		r.postRun = append(r.postRun, h)
		sortHooks(r.postRun)
		registered = true
	}
	if !registered {
		return fmt.Errorf("hook %q implements no run lifecycle interface", hook.Name())
	}
	return nil
}

// RunPre invokes pre-run hooks in priority order, threading the possibly
// modified operation through.
func (r *Registry) RunPre(ctx context.Context, op *Operation) (*Operation, error) {
	r.mu.RLock()
	hooks := r.preRun
	r.mu.RUnlock()

	current := op
	for _, h := range hooks {
		modified, err := h.PreRun(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("pre-run hook %q: %w", h.Name(), err)
		}
		current = modified
	}
	return current, nil
}

// RunPost invokes post-run hooks in priority order.
func (r *Registry) RunPost(ctx context.Context, op *Operation, result *engine.Result, runErr error) error {
	r.mu.RLock()
	hooks := r.postRun
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := h.PostRun(ctx, op, result, runErr); err != nil {
			return fmt.Errorf("post-run hook %q: %w", h.Name(), err)
		}
	}
	return nil
}

func sortHooks[H Hook](hooks []H) {
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority() < hooks[j].Priority()
	})
}
