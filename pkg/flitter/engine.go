// Package flitter is the engine facade spec.md §6 describes: compile an
// already-parsed ast.Top into a runnable Program, then run it against a
// state.Store and a set of seed variables to produce one frame's Context.
//
// `parse(source) -> ast.Top` is deliberately absent: SPEC_FULL.md's external
// grammar/parser is out of scope, so callers are expected to hand flitter
// an ast.Top built by their own parser (or, in tests, constructed by hand).
package flitter

import (
	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/compiler"
	"github.com/flitter-run/flitter/pkg/host"
	"github.com/flitter-run/flitter/pkg/state"
	"github.com/flitter-run/flitter/pkg/value"
	"github.com/flitter-run/flitter/pkg/vm"
)

// Program wraps a linked compiler.Program together with the host wiring
// (builtins, source loader, pragma defaults) its Run needs, and the
// original top so SetTop can recompile after an editor hot-swap without the
// caller having to keep its own reference around (spec.md §6 "set_top").
type Program struct {
	path     string
	top      ast.Top
	opts     compiler.Options
	compiled *compiler.Program

	builtins       host.Builtins
	loader         host.SourceLoader
	pragmaDefaults host.PragmaDefaults
}

// Compile builds a Program from top (spec.md §6 "AST.compile() -> Program":
// optimisation and linking already happened inside compiler.Compile).
// Callers wanting constant folding / loop unrolling call pkg/simplify.Simplify
// on top themselves first — compile does not simplify implicitly.
func Compile(top ast.Top, builtins host.Builtins) (*Program, error) {
	opts := compiler.Options{StaticBuiltinNames: builtins.StaticNames()}
	compiled, err := compiler.Compile(top, opts)
	if err != nil {
		return nil, err
	}
	return &Program{top: top, opts: opts, compiled: compiled, builtins: builtins}, nil
}

// SetPath records the path this Program should run under, used for import
// cycle detection and diagnostics (spec.md §6 "set_path").
func (p *Program) SetPath(path string) { p.path = path }

// SetTop replaces the source AST and recompiles in place, re-deriving
// CallFast eligibility from the Program's current builtin table (spec.md §6
// "set_top", used by a host re-compiling a module after an edit).
func (p *Program) SetTop(top ast.Top) error {
	compiled, err := compiler.Compile(top, p.opts)
	if err != nil {
		return err
	}
	p.top = top
	p.compiled = compiled
	return nil
}

// WithLoader attaches the SourceLoader Import instructions resolve against.
func (p *Program) WithLoader(loader host.SourceLoader) *Program {
	p.loader = loader
	return p
}

// WithPragmaDefaults attaches the pragma values pre-seeded into every run
// before the program's own Pragma instructions execute.
func (p *Program) WithPragmaDefaults(defaults host.PragmaDefaults) *Program {
	p.pragmaDefaults = defaults
	return p
}

// Compiled exposes the underlying linked program, e.g. so a host.SourceLoader
// implementation can register it under a filename for other Programs to
// Import.
func (p *Program) Compiled() *compiler.Program { return p.compiled }

// Run executes one frame: vars seeds ctx.Variables before the program's own
// top-level Lets and Imports run (spec.md §6 "Program.run(state, variables)
// -> Context"), letting a host bind frame-specific inputs (mouse position,
// audio level) under names the program can reference directly. A non-nil
// error means an internal error aborted the run (SPEC_FULL.md §7); ctx is
// still returned, possibly partially populated, since reference/import/
// host-call errors are non-fatal and recorded into ctx.Errors instead.
func (p *Program) Run(store *state.Store, vars map[string]value.Vector) (*state.Context, error) {
	ctx := state.New(store, p.path, p.pragmaDefaults.Merge(nil))
	for name, v := range vars {
		ctx.Variables[name] = v
	}

	m := vm.New(ctx, p.builtins, p.loader)
	return m.Run(p.compiled, nil)
}
