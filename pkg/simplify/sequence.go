package simplify

import (
	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/value"
)

// simplifySequence simplifies every item in order, in a scope local to this
// Sequence (bindings introduced by a Let/Import/FunctionDef item are
// visible to later items but never escape to the caller once this Sequence
// finishes simplifying), then drops dead Let bindings, flattens nested
// Sequences produced by loop unrolling, and merges adjacent literals
// (spec.md §4.3). A binder-free sequence collapses further: a single
// remaining item is returned bare, and an empty one becomes a null literal.
func (w *walker) simplifySequence(n ast.Sequence) ast.Expr {
	saved := w.variables
	w.variables = cloneBindings(saved)
	defer func() { w.variables = saved }()

	items := make([]ast.Expr, len(n.Items))
	for i, it := range n.Items {
		items[i] = w.simplify(it)
	}

	items = eliminateDeadLets(items)
	items = flattenSequence(items)
	items = mergeAdjacentLiterals(items)

	if hasBinder(items) {
		return ast.Sequence{Items: items}
	}
	switch len(items) {
	case 0:
		return ast.Literal{Value: value.Null}
	case 1:
		return items[0]
	default:
		return ast.Sequence{Items: items}
	}
}

// hasBinder reports whether items contains a Let/Import/FunctionDef: spec.md
// §4.3 keeps the Sequence wrapper whenever one is present, since a binder's
// scope is defined by its position in the item list, not by a sub-tree.
func hasBinder(items []ast.Expr) bool {
	for _, it := range items {
		switch it.(type) {
		case ast.Let, ast.Import, ast.FunctionDef:
			return true
		}
	}
	return false
}

// mergeAdjacentLiterals collapses runs of consecutive Literal items into a
// single Literal, composing their vectors the same way the compiled
// AppendRoot/Compose path would at runtime (spec.md §4.3, "merge adjacent
// literal vectors").
func mergeAdjacentLiterals(items []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, 0, len(items))
	i := 0
	for i < len(items) {
		lit, ok := asLiteral(items[i])
		if !ok {
			out = append(out, items[i])
			i++
			continue
		}
		run := []value.Vector{lit}
		j := i + 1
		for j < len(items) {
			next, ok := asLiteral(items[j])
			if !ok {
				break
			}
			run = append(run, next)
			j++
		}
		if len(run) == 1 {
			out = append(out, items[i])
		} else {
			out = append(out, ast.Literal{Value: value.Compose(run)})
		}
		i = j
	}
	return out
}

// allLiteral reports whether every expression in vs is already a folded
// Literal, the condition under which dropping a Let binding is guaranteed
// not to discard a side effect.
func allLiteral(vs []ast.Expr) bool {
	for _, v := range vs {
		if _, ok := asLiteral(v); !ok {
			return false
		}
	}
	return true
}

func anyNameIn(names []string, set map[string]struct{}) bool {
	for _, n := range names {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

// eliminateDeadLets drops a Let item whose Values are all literal and whose
// Names are never referenced by any later item (spec.md §4.3, "dropping
// dead let bindings"). Shadowing is ignored (freeNames' approximation), so
// this only ever under-drops, never drops something still live.
func eliminateDeadLets(items []ast.Expr) []ast.Expr {
	n := len(items)
	liveAfter := make([]map[string]struct{}, n+1)
	liveAfter[n] = map[string]struct{}{}
	for i := n - 1; i >= 0; i-- {
		s := make(map[string]struct{}, len(liveAfter[i+1]))
		for k := range liveAfter[i+1] {
			s[k] = struct{}{}
		}
		freeNames(items[i], s)
		liveAfter[i] = s
	}

	out := make([]ast.Expr, 0, n)
	for i, it := range items {
		if let, ok := it.(ast.Let); ok && allLiteral(let.Values) && !anyNameIn(let.Names, liveAfter[i+1]) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// flattenSequence inlines any directly-nested Sequence item into its
// parent's item list (produced e.g. by unrolling a For loop into a
// Sequence of per-iteration bodies).
func flattenSequence(items []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, 0, len(items))
	for _, it := range items {
		if seq, ok := it.(ast.Sequence); ok {
			out = append(out, seq.Items...)
			continue
		}
		out = append(out, it)
	}
	return out
}
