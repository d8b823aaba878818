package state

import (
	"github.com/google/uuid"

	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/value"
)

// Context is the per-run mutable bag described in spec.md §3: the borrowed
// state store, variables produced during this run, the scene graph root,
// pragmas, a deduplicated error set, a deduplicated log set, the current
// source path, and the enclosing import context (for cycle detection).
type Context struct {
	// RunID correlates this run's log lines (SPEC_FULL.md §2 ambient
	// stack); it plays no role in program semantics.
	RunID uuid.UUID

	State     *Store
	Variables map[string]value.Vector
	Graph     *node.Node
	Pragmas   map[string]value.Vector

	Errors map[string]struct{}
	Logs   map[string]struct{}

	Path   string
	Parent *Context
}

// New builds a root Context (no Parent) for a fresh run. pragmaDefaults are
// merged in before the program runs, letting a host pre-seed values like
// `tempo`/`fps` (SPEC_FULL.md §9); the program's own Pragma instructions
// overwrite these as they execute.
func New(store *Store, path string, pragmaDefaults map[string]value.Vector) *Context {
	pragmas := map[string]value.Vector{}
	for k, v := range pragmaDefaults {
		pragmas[k] = v
	}

	return &Context{
		RunID:     uuid.New(),
		State:     store,
		Variables: map[string]value.Vector{},
		Graph:     node.New("root"),
		Pragmas:   pragmas,
		Errors:    map[string]struct{}{},
		Logs:      map[string]struct{}{},
		Path:      path,
	}
}

// Child builds a Context for an imported module, sharing state, errors,
// logs, graph and pragmas with the parent but carrying its own variables
// and path (spec.md §4.6 "Imports").
func (c *Context) Child(path string) *Context {
	return &Context{
		RunID:     c.RunID,
		State:     c.State,
		Variables: map[string]value.Vector{},
		Graph:     c.Graph,
		Pragmas:   c.Pragmas,
		Errors:    c.Errors,
		Logs:      c.Logs,
		Path:      path,
		Parent:    c,
	}
}

// HasAncestorPath walks the Parent chain looking for path, used by Import
// to detect circular imports (spec.md §4.6).
func (c *Context) HasAncestorPath(path string) bool {
	for anc := c.Parent; anc != nil; anc = anc.Parent {
		if anc.Path == path {
			return true
		}
	}
	return false
}

// AddError records msg into the deduplicated error set (spec.md §7:
// "Reference, import, and host-call errors are recorded into
// context.errors (a deduplicated set)").
func (c *Context) AddError(msg string) { c.Errors[msg] = struct{}{} }

// AddLog records msg into the deduplicated log set.
func (c *Context) AddLog(msg string) { c.Logs[msg] = struct{}{} }

// SetPragma records a pragma value, overwriting any default or earlier
// value for the same name (spec.md §4.6 `Pragma s` instruction).
func (c *Context) SetPragma(name string, v value.Vector) { c.Pragmas[name] = v }
