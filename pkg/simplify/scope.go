package simplify

import "github.com/flitter-run/flitter/pkg/ast"

// cloneBindings returns a shallow copy of m, so a nested scope can add or
// shadow entries without mutating the enclosing one.
func cloneBindings(m map[string]binding) map[string]binding {
	out := make(map[string]binding, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// withScope runs fn with w.variables temporarily replaced by a clone
// merged with extra, restoring the previous bindings afterwards. Used
// anywhere a construct introduces names scoped to a sub-expression only
// (function bodies, for-loop bodies, inline call bodies) rather than to the
// remainder of an enclosing Sequence.
func (w *walker) withScope(extra map[string]binding, fn func() ast.Expr) ast.Expr {
	saved := w.variables
	merged := cloneBindings(saved)
	for k, v := range extra {
		merged[k] = v
	}
	w.variables = merged
	defer func() { w.variables = saved }()
	return fn()
}

// paramBindings builds dynamic bindings for a parameter list, used when
// simplifying a function body in isolation (the simplifier does not know
// what a caller will eventually pass, except in the inlined case where
// simplifyCall builds more precise bindings itself).
func paramBindings(names []string) map[string]binding {
	out := make(map[string]binding, len(names))
	for _, n := range names {
		out[n] = dynamicBinding()
	}
	return out
}

// freeNames collects every Name/FunctionName reference reachable from e
// into out. It is a conservative, shadowing-unaware approximation used to
// decide whether a dead Let binding is safe to drop (spec.md §4.3,
// "dropping dead let bindings") and which names an Attributes remainder
// references — for dead Lets, ignoring lexical shadowing just means an
// occasional live-looking-but-actually-shadowed name keeps a binding that
// could have been dropped, never the reverse.
func freeNames(e ast.Expr, out map[string]struct{}) {
	switch n := e.(type) {
	case nil:
	case ast.Literal:
	case ast.Name:
		out[n.Name] = struct{}{}
	case ast.FunctionName:
		out[n.Name] = struct{}{}
	case ast.Range:
		freeNames(n.Start, out)
		freeNames(n.Stop, out)
		freeNames(n.Step, out)
	case ast.Negative:
		freeNames(n.Rhs, out)
	case ast.Positive:
		freeNames(n.Rhs, out)
	case ast.Not:
		freeNames(n.Rhs, out)
	case ast.MathsBinaryOp:
		freeNames(n.Lhs, out)
		freeNames(n.Rhs, out)
	case ast.Comparison:
		freeNames(n.Lhs, out)
		freeNames(n.Rhs, out)
	case ast.And:
		freeNames(n.Lhs, out)
		freeNames(n.Rhs, out)
	case ast.Or:
		freeNames(n.Lhs, out)
		freeNames(n.Rhs, out)
	case ast.Xor:
		freeNames(n.Lhs, out)
		freeNames(n.Rhs, out)
	case ast.Slice:
		freeNames(n.Target, out)
		freeNames(n.Index, out)
	case ast.FastSlice:
		freeNames(n.Target, out)
	case ast.Call:
		freeNames(n.Callee, out)
		for _, a := range n.Args {
			freeNames(a, out)
		}
		for _, a := range n.KwArgs {
			freeNames(a, out)
		}
	case ast.FunctionDef:
		for _, d := range n.Defaults {
			freeNames(d, out)
		}
		freeNames(n.Body, out)
	case ast.Let:
		for _, v := range n.Values {
			freeNames(v, out)
		}
	case ast.InlineLet:
		for _, v := range n.Values {
			freeNames(v, out)
		}
		freeNames(n.Body, out)
	case ast.For:
		freeNames(n.Source, out)
		freeNames(n.Body, out)
	case ast.IfBranch:
		freeNames(n.Condition, out)
		freeNames(n.Then, out)
	case ast.IfElse:
		for _, br := range n.Branches {
			freeNames(br.Condition, out)
			freeNames(br.Then, out)
		}
		freeNames(n.Else, out)
	case ast.Import:
		freeNames(n.Filename, out)
	case ast.Pragma:
		freeNames(n.Value, out)
	case ast.NodeExpr:
	case ast.Tag:
		freeNames(n.Target, out)
	case ast.Attributes:
		freeNames(n.Target, out)
		for _, v := range n.Values {
			freeNames(v, out)
		}
	case ast.Append:
		freeNames(n.Target, out)
		for _, c := range n.Children {
			freeNames(c, out)
		}
	case ast.Prepend:
		freeNames(n.Target, out)
		for _, c := range n.Children {
			freeNames(c, out)
		}
	case ast.Search:
	case ast.Sequence:
		for _, it := range n.Items {
			freeNames(it, out)
		}
	}
}
