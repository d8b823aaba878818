package simplify

import (
	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/value"
)

// bindingKind discriminates what a name is known to mean while simplifying,
// matching spec.md §4.3's "the three kinds carry different meanings:
// concrete value, alias, or known callable" — plus a fourth kind this
// implementation needs: a name that is known to exist (supplied by the
// host, e.g. a per-frame `time` variable) but has no literal value, so it
// must neither fold nor be reported as a reference error.
type bindingKind uint8

const (
	bindingValue bindingKind = iota
	bindingAlias
	bindingFunction
	bindingDynamic
)

type binding struct {
	kind     bindingKind
	value    value.Vector
	alias    string
	function *function
}

// function is the partial evaluator's view of a user-defined function: its
// parameter list, per-parameter default expressions, and body (replaced by
// the simplified body once simplifyFunctionDef has finished with it).
// It mirrors ast.FunctionDef; kept distinct so inlining can carry a
// reference without forcing FunctionDef itself to grow simplifier-only
// bookkeeping.
type function struct {
	def   ast.FunctionDef
	depth int // not read or written; inline depth is tracked by walker.inlineDepth
}

func valueBinding(v value.Vector) binding      { return binding{kind: bindingValue, value: v} }
func aliasBinding(name string) binding         { return binding{kind: bindingAlias, alias: name} }
func functionBinding(fn *function) binding     { return binding{kind: bindingFunction, function: fn} }
func dynamicBinding() binding                  { return binding{kind: bindingDynamic} }
