// Package tool holds the tool registry: descriptor registration, capability
// filtering, and fail-closed dispatch. Side effects live entirely inside
// individual tool handlers; the registry itself only routes calls.
package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Yurii-huang/Jarvis/pkg/types"
)

// Handler implements one tool. It receives the arguments mapping parsed
// from the model's directive and returns a complete result; it should not
// panic, but the registry recovers if it does.
type Handler func(ctx context.Context, args map[string]any) types.ToolResult

type entry struct {
	def     types.Tool
	handler Handler
}

// Registry is one agent's view of the available tools. Instances are
// independent: filters on one never affect another.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register binds a descriptor to its handler. Registration is
// idempotent-overwrite: the last registration for a name wins, so a default
// set can be shadowed by user overrides.
func (r *Registry) Register(def types.Tool, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[def.Name] = entry{def: def, handler: h}
}

// UseTools restricts the registry to the named subset. Unknown names are
// ignored. Pure metadata operation.
func (r *Registry) UseTools(names []string) {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for name := range r.entries {
		if _, ok := keep[name]; !ok {
			delete(r.entries, name)
		}
	}
}

// DontUseTools excludes the named tools.
func (r *Registry) DontUseTools(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		delete(r.entries, n)
	}
}

// List returns the registered descriptors sorted by name.
func (r *Registry) List() []types.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (types.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.def, ok
}

// Execute dispatches a call. It fails closed: unknown names, argument
// contract violations, and handler panics all come back as unsuccessful
// results, never as a crash of the agent loop.
func (r *Registry) Execute(ctx context.Context, call types.ToolCall) types.ToolResult {
	r.mu.RLock()
	e, ok := r.entries[call.Name]
	r.mu.RUnlock()
	if !ok {
		return types.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("%v: %s", types.ErrToolNotFound, call.Name),
		}
	}
	if err := e.def.ValidateArguments(call.Arguments); err != nil {
		return types.ToolResult{Success: false, Error: err.Error()}
	}
	return safeInvoke(ctx, e.handler, call.Arguments)
}

func safeInvoke(ctx context.Context, h Handler, args map[string]any) (res types.ToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = types.ToolResult{
				Success: false,
				Error:   fmt.Sprintf("tool execution panicked: %v", rec),
			}
		}
	}()
	return h(ctx, args)
}

// HelpText renders every descriptor for the system prompt.
func (r *Registry) HelpText() string {
	tools := r.List()
	if len(tools) == 0 {
		return "No tools are available."
	}
	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, t := range tools {
		b.WriteString(t.PromptDoc())
	}
	return b.String()
}
