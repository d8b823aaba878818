// Package host declares the contracts a host embedding the engine must
// satisfy: the static/dynamic builtin function tables, the pragma default
// table, and the source loader used to resolve `Import` (spec.md §6). None
// of the types here are implemented by pkg/vm itself; pkg/vm only consumes
// them, keeping host-specific wiring (OpenGL, DMX, the file system) outside
// the engine's dependency graph.
package host

import (
	"github.com/flitter-run/flitter/pkg/compiler"
	"github.com/flitter-run/flitter/pkg/state"
	"github.com/flitter-run/flitter/pkg/value"
)

// StaticBuiltin is a pure, context-free host function: safe for constant
// folding by the partial evaluator and invokable by the VM's `CallFast`
// without a Context (spec.md §6, §4.4).
type StaticBuiltin func(args []value.Vector) (value.Vector, error)

// DynamicBuiltin is context-consuming: it receives the live Context as an
// implicit first argument and is never folded (spec.md §6). Keyword
// arguments are only ever delivered to dynamic builtins.
type DynamicBuiltin func(ctx *state.Context, args []value.Vector, kwargs map[string]value.Vector) (value.Vector, error)

// Builtins is the two-table mapping `Name` and `Call` resolve against,
// after locals and program-level variables (spec.md §4.6 "Name resolution
// order").
type Builtins struct {
	Static  map[string]StaticBuiltin
	Dynamic map[string]DynamicBuiltin
}

// IsStatic reports whether name resolves to a static (foldable, CallFast
// eligible) builtin.
func (b Builtins) IsStatic(name string) bool {
	_, ok := b.Static[name]
	return ok
}

// StaticNames returns the set of static builtin names, suitable for
// compiler.Options.StaticBuiltinNames.
func (b Builtins) StaticNames() map[string]struct{} {
	out := make(map[string]struct{}, len(b.Static))
	for name := range b.Static {
		out[name] = struct{}{}
	}
	return out
}

// StaticRef is the value.Object a static builtin's name resolves to when it
// flows through the stack as a first-class value (referenced by Name rather
// than invoked directly via CallFast) — e.g. composed into a vector of
// callables for the generic Call dispatch (spec.md §4.6).
type StaticRef struct {
	Name string
	Fn   StaticBuiltin
}

func (s StaticRef) ObjectTruthy() bool { return true }

func (s StaticRef) ObjectEqual(other value.Object) bool {
	o, ok := other.(StaticRef)
	return ok && o.Name == s.Name
}

// DynamicRef is StaticRef's context-consuming counterpart.
type DynamicRef struct {
	Name string
	Fn   DynamicBuiltin
}

func (d DynamicRef) ObjectTruthy() bool { return true }

func (d DynamicRef) ObjectEqual(other value.Object) bool {
	o, ok := other.(DynamicRef)
	return ok && o.Name == d.Name
}

// SourceLoader resolves an `Import` by filename, relative to currentPath,
// to a compiled Program plus the canonical path that program should run
// under (used for cycle detection via state.Context.HasAncestorPath).
// Implementations must be idempotent for the same (filename, currentPath)
// pair (spec.md §6 "Source loader contract").
type SourceLoader interface {
	Load(filename, currentPath string) (prog *compiler.Program, resolvedPath string, err error)
}

// PragmaDefaults returns the pragma values a host pre-seeds into every run
// before the program executes (SPEC_FULL.md §9); a program's own Pragma
// instructions overwrite these as they run. The zero value carries none.
type PragmaDefaults map[string]value.Vector

// Merge returns a fresh map combining d with overrides, overrides winning
// on key collision.
func (d PragmaDefaults) Merge(overrides map[string]value.Vector) map[string]value.Vector {
	out := make(map[string]value.Vector, len(d)+len(overrides))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
