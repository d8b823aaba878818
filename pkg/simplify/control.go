package simplify

import (
	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/value"
)

// simplifyAnd folds `lhs and rhs` when lhs is a known-falsy literal (the
// whole expression short-circuits to lhs without evaluating rhs at all,
// spec.md §8 scenario 6) or a known-truthy literal (the expression reduces
// to rhs).
func (w *walker) simplifyAnd(n ast.And) ast.Expr {
	lhs := w.simplify(n.Lhs)
	if lit, ok := asLiteral(lhs); ok {
		if !lit.IsTruthy() {
			return lhs
		}
		return w.simplify(n.Rhs)
	}
	return ast.And{Lhs: lhs, Rhs: w.simplify(n.Rhs)}
}

// simplifyOr is And's mirror: a known-truthy lhs short-circuits, a
// known-falsy lhs reduces to rhs.
func (w *walker) simplifyOr(n ast.Or) ast.Expr {
	lhs := w.simplify(n.Lhs)
	if lit, ok := asLiteral(lhs); ok {
		if lit.IsTruthy() {
			return lhs
		}
		return w.simplify(n.Rhs)
	}
	return ast.Or{Lhs: lhs, Rhs: w.simplify(n.Rhs)}
}

// simplifySlice lowers Slice(target, literal-index) to FastSlice, avoiding
// a re-built index vector on every evaluation (spec.md §4.3).
func (w *walker) simplifySlice(n ast.Slice) ast.Expr {
	target := w.simplify(n.Target)
	index := w.simplify(n.Index)

	if lit, ok := asLiteral(index); ok && lit.IsNumeric() {
		return ast.FastSlice{Target: target, Index: append([]float64(nil), lit.Numbers()...)}
	}
	return ast.Slice{Target: target, Index: index}
}

// simplifyIfElse evaluates branch conditions in order; every
// known-falsy branch is dropped outright, and a known-truthy branch
// truncates the chain (later branches and Else can never run, spec.md
// §4.3).
func (w *walker) simplifyIfElse(n ast.IfElse) ast.Expr {
	branches := make([]ast.IfBranch, 0, len(n.Branches))
	for _, br := range n.Branches {
		cond := w.simplify(br.Condition)
		if lit, ok := asLiteral(cond); ok {
			if !lit.IsTruthy() {
				continue // dead branch, drop it
			}
			then := w.simplify(br.Then)
			if len(branches) == 0 {
				return then // first branch always taken: whole IfElse collapses
			}
			branches = append(branches, ast.IfBranch{Condition: cond, Then: then})
			return ast.IfElse{Branches: branches}
		}
		branches = append(branches, ast.IfBranch{Condition: cond, Then: w.simplify(br.Then)})
	}
	if len(branches) == 0 {
		if n.Else == nil {
			return ast.Literal{Value: value.Null}
		}
		return w.simplify(n.Else)
	}
	return ast.IfElse{Branches: branches, Else: w.simplify(n.Else)}
}

// simplifyFor unrolls a loop whose Source folds to a literal vector, up to
// Budget.MaxUnrollIterations (spec.md §9, "Partial evaluation
// termination"). Past the cap, or when Source doesn't fold, the loop is
// left intact for the compiler's BeginFor/Next/EndForCompose lowering.
func (w *walker) simplifyFor(n ast.For) ast.Expr {
	source := w.simplify(n.Source)

	lit, ok := asLiteral(source)
	if !ok || len(n.Names) != 1 {
		body := w.withScope(paramBindings(n.Names), func() ast.Expr { return w.simplify(n.Body) })
		return ast.For{Names: n.Names, Source: source, Body: body}
	}

	count := lit.Len()
	if count > w.budget.MaxUnrollIterations {
		body := w.withScope(paramBindings(n.Names), func() ast.Expr { return w.simplify(n.Body) })
		return ast.For{Names: n.Names, Source: source, Body: body}
	}

	items := make([]ast.Expr, 0, count)
	for i := 0; i < count; i++ {
		w.unrollsUsed++
		elem := lit.IndexLiteral(i)
		body := w.withScope(map[string]binding{n.Names[0]: valueBinding(elem)}, func() ast.Expr {
			return w.simplify(n.Body)
		})
		items = append(items, body)
	}
	return ast.Sequence{Items: items}
}
