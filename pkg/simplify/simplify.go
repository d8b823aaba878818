package simplify

import (
	"fmt"

	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/value"
)

// walker carries the mutable state a single Simplify call threads through
// the recursive descent: the current bindings, a depth counter that
// suppresses reference errors while walking an Attributes value (those
// names may resolve against the node under construction at runtime via
// SetNodeScope, which the simplifier cannot see statically, spec.md §4.4),
// the inline/unroll budget, and the errors/diagnostics accumulated along
// the way.
type walker struct {
	variables map[string]binding
	budget    Budget

	suppressRefErrors int
	unrollsUsed       int
	inlineDepth       int

	errors []error
}

// Result is everything a top-level Simplify call produces beyond the
// rewritten tree: reference errors encountered (spec.md §4.3, "otherwise
// records an error") and whether any unroll/inline budget was exhausted
// (surfaced so a host can log it, SPEC_FULL.md §4.3).
type Result struct {
	Expr         ast.Expr
	Errors       []error
	BudgetHit    bool
}

// Simplify runs the partial evaluator over top. staticVars are names known
// to be bound to a concrete, literal Vector (folded wherever referenced);
// dynamicVars are names known to exist but never foldable (e.g. a host's
// per-frame inputs) — referencing them is not an error, but they stay as
// ast.Name. Any other unresolved name is a reference error.
func Simplify(top ast.Expr, staticVars map[string]value.Vector, dynamicVars []string, budget Budget) Result {
	w := &walker{variables: map[string]binding{}, budget: budget}
	for name, v := range staticVars {
		w.variables[name] = valueBinding(v)
	}
	for _, name := range dynamicVars {
		w.variables[name] = dynamicBinding()
	}

	out := w.simplify(top)
	return Result{Expr: out, Errors: w.errors, BudgetHit: w.unrollsUsed >= budget.MaxUnrollIterations || w.inlineDepth >= budget.MaxInlineDepth}
}

func (w *walker) recordError(format string, args ...any) {
	w.errors = append(w.errors, fmt.Errorf(format, args...))
}

// resolve looks up name, recording a reference error when absent unless
// suppressRefErrors is active (see walker's doc comment).
func (w *walker) resolve(name string) (binding, bool) {
	b, found := w.variables[name]
	if found {
		return b, true
	}
	if w.suppressRefErrors == 0 {
		w.recordError("unbound name %q", name)
	}
	return binding{}, false
}

// simplify dispatches on the dynamic type of e, the single entry point
// every recursive call in this package goes through.
func (w *walker) simplify(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case ast.Literal:
		return ast.CloneLiteral(n)
	case ast.Name:
		return w.simplifyName(n)
	case ast.FunctionName:
		return n
	case ast.Range:
		return w.simplifyRange(n)
	case ast.Negative:
		return w.simplifyNegative(n)
	case ast.Positive:
		return w.simplifyPositive(n)
	case ast.Not:
		return w.simplifyNot(n)
	case ast.MathsBinaryOp:
		return w.simplifyMathsBinaryOp(n)
	case ast.Comparison:
		return w.simplifyComparison(n)
	case ast.And:
		return w.simplifyAnd(n)
	case ast.Or:
		return w.simplifyOr(n)
	case ast.Xor:
		return w.simplifyXor(n)
	case ast.Slice:
		return w.simplifySlice(n)
	case ast.FastSlice:
		return ast.FastSlice{Target: w.simplify(n.Target), Index: n.Index}
	case ast.StateRef:
		return ast.StateRef{Key: w.simplify(n.Key)}
	case ast.Call:
		return w.simplifyCall(n)
	case ast.FunctionDef:
		return w.simplifyFunctionDef(n)
	case ast.Let:
		return w.simplifyLet(n)
	case ast.InlineLet:
		return w.simplifyInlineLet(n)
	case ast.For:
		return w.simplifyFor(n)
	case ast.IfElse:
		return w.simplifyIfElse(n)
	case ast.Import:
		return w.simplifyImport(n)
	case ast.Pragma:
		return ast.Pragma{Name: n.Name, Value: w.simplify(n.Value)}
	case ast.NodeExpr:
		return n
	case ast.Tag:
		return ast.Tag{Target: w.simplify(n.Target), Tags: n.Tags}
	case ast.Attributes:
		return w.simplifyAttributes(n)
	case ast.Append:
		return ast.Append{Target: w.simplify(n.Target), Children: w.simplifyList(n.Children)}
	case ast.Prepend:
		return ast.Prepend{Target: w.simplify(n.Target), Children: w.simplifyList(n.Children)}
	case ast.Search:
		return n
	case ast.Sequence:
		return w.simplifySequence(n)
	default:
		return e
	}
}

func (w *walker) simplifyList(items []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(items))
	for i, it := range items {
		out[i] = w.simplify(it)
	}
	return out
}

func (w *walker) simplifyName(n ast.Name) ast.Expr {
	b, found := w.resolve(n.Name)
	if !found {
		return n
	}
	switch b.kind {
	case bindingValue:
		return ast.Literal{Value: b.value}
	case bindingFunction:
		return ast.FunctionName{Name: n.Name}
	case bindingAlias:
		return w.simplifyName(ast.Name{Name: b.alias})
	default: // bindingDynamic
		return n
	}
}

// asLiteral reports whether e is already a folded Literal.
func asLiteral(e ast.Expr) (value.Vector, bool) {
	lit, ok := e.(ast.Literal)
	if !ok {
		return value.Vector{}, false
	}
	return lit.Value, true
}
