package simplify

import (
	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/value"
)

func literalScalar(e ast.Expr) (float64, bool) {
	lit, ok := asLiteral(e)
	if !ok || !lit.IsNumeric() || lit.Len() != 1 {
		return 0, false
	}
	return lit.At(0), true
}

func (w *walker) simplifyRange(n ast.Range) ast.Expr {
	start := w.simplify(n.Start)
	stop := w.simplify(n.Stop)
	step := w.simplify(n.Step)

	sv, sok := literalScalar(start)
	ev, eok := literalScalar(stop)
	pv, pok := literalScalar(step)
	if sok && eok && pok {
		return ast.Literal{Value: value.FillRange(sv, ev, pv)}
	}
	return ast.Range{Start: start, Stop: stop, Step: step}
}

func (w *walker) simplifyNegative(n ast.Negative) ast.Expr {
	rhs := w.simplify(n.Rhs)

	if lit, ok := asLiteral(rhs); ok {
		return ast.Literal{Value: value.Neg(lit)}
	}
	// -(-x) -> x
	if inner, ok := rhs.(ast.Negative); ok {
		return inner.Rhs
	}
	// -(lit*x) -> (-lit)*x
	if mbo, ok := rhs.(ast.MathsBinaryOp); ok && mbo.Op == ast.OpMul {
		if lit, ok := asLiteral(mbo.Lhs); ok {
			return ast.MathsBinaryOp{Op: ast.OpMul, Lhs: ast.Literal{Value: value.Neg(lit)}, Rhs: mbo.Rhs}
		}
	}
	return ast.Negative{Rhs: rhs}
}

func (w *walker) simplifyPositive(n ast.Positive) ast.Expr {
	rhs := w.simplify(n.Rhs)

	if lit, ok := asLiteral(rhs); ok {
		return ast.Literal{Value: value.Pos(lit)}
	}
	// +(+x), +(-x) and +(a op b) need no wrapper: each already yields a
	// numeric vector or Null, on which Pos is the identity.
	switch rhs.(type) {
	case ast.Positive, ast.Negative, ast.MathsBinaryOp:
		return rhs
	}
	return ast.Positive{Rhs: rhs}
}

func (w *walker) simplifyNot(n ast.Not) ast.Expr {
	rhs := w.simplify(n.Rhs)
	if lit, ok := asLiteral(rhs); ok {
		return ast.Literal{Value: value.Not(lit)}
	}
	return ast.Not{Rhs: rhs}
}

func mathsFold(op ast.MathsOp, a, b value.Vector) value.Vector {
	switch op {
	case ast.OpAdd:
		return value.Add(a, b)
	case ast.OpSub:
		return value.Sub(a, b)
	case ast.OpMul:
		return value.Mul(a, b)
	case ast.OpTrueDiv:
		return value.TrueDiv(a, b)
	case ast.OpFloorDiv:
		return value.FloorDiv(a, b)
	case ast.OpMod:
		return value.Mod(a, b)
	case ast.OpPow:
		return value.Pow(a, b)
	default:
		return value.Null
	}
}

// simplifyMathsBinaryOp folds constant arithmetic and applies the algebraic
// identities from spec.md §4.3: additive/multiplicative identities collapse
// to a unary +/-, and `x+(-y)` rewrites to `x-y` so the compiler never sees
// a redundant Negative wrapper.
func (w *walker) simplifyMathsBinaryOp(n ast.MathsBinaryOp) ast.Expr {
	lhs := w.simplify(n.Lhs)
	rhs := w.simplify(n.Rhs)

	litLhs, lhsIsLit := asLiteral(lhs)
	litRhs, rhsIsLit := asLiteral(rhs)
	if lhsIsLit && rhsIsLit {
		return ast.Literal{Value: mathsFold(n.Op, litLhs, litRhs)}
	}

	if scalar, ok := literalScalar(lhs); ok {
		switch {
		case n.Op == ast.OpAdd && scalar == 0:
			return ast.Positive{Rhs: rhs}
		case n.Op == ast.OpMul && scalar == 1:
			return ast.Positive{Rhs: rhs}
		case n.Op == ast.OpMul && scalar == -1:
			return ast.Negative{Rhs: rhs}
		case n.Op == ast.OpSub && scalar == 0:
			return ast.Negative{Rhs: rhs}
		}
	}
	if scalar, ok := literalScalar(rhs); ok {
		switch {
		case n.Op == ast.OpAdd && scalar == 0:
			return ast.Positive{Rhs: lhs}
		case n.Op == ast.OpSub && scalar == 0:
			return ast.Positive{Rhs: lhs}
		case (n.Op == ast.OpMul || n.Op == ast.OpTrueDiv) && scalar == 1:
			return ast.Positive{Rhs: lhs}
		case n.Op == ast.OpMul && scalar == -1:
			return ast.Negative{Rhs: lhs}
		}
	}

	// x + (-y) -> x - y
	if n.Op == ast.OpAdd {
		if neg, ok := rhs.(ast.Negative); ok {
			return ast.MathsBinaryOp{Op: ast.OpSub, Lhs: lhs, Rhs: neg.Rhs}
		}
	}

	if hoisted, ok := hoistChainedLiteral(n.Op, lhs, rhs); ok {
		return w.simplifyMathsBinaryOp(hoisted)
	}
	if distributed, ok := distributeLiteralOverMul(n.Op, lhs, rhs); ok {
		return w.simplifyMathsBinaryOp(distributed)
	}

	return ast.MathsBinaryOp{Op: n.Op, Lhs: lhs, Rhs: rhs}
}

// hoistChainedLiteral implements spec.md §2/§4.3's "hoisting literals in
// chained multiplies" (and its additive analogue, Add being associative in
// exactly the same way): for `lit op (x op lit2)` or `(x op lit2) op lit`
// under an associative op (+ or *), the two literals are combined into one
// so the chain collapses from two runtime ops to one.
func hoistChainedLiteral(op ast.MathsOp, lhs, rhs ast.Expr) (ast.MathsBinaryOp, bool) {
	if op != ast.OpAdd && op != ast.OpMul {
		return ast.MathsBinaryOp{}, false
	}
	outerLit, other, ok := literalAndOther(lhs, rhs)
	if !ok {
		return ast.MathsBinaryOp{}, false
	}
	chain, ok := other.(ast.MathsBinaryOp)
	if !ok || chain.Op != op {
		return ast.MathsBinaryOp{}, false
	}
	if innerLit, ok := asLiteral(chain.Lhs); ok {
		combined := mathsFold(op, outerLit, innerLit)
		return ast.MathsBinaryOp{Op: op, Lhs: ast.Literal{Value: combined}, Rhs: chain.Rhs}, true
	}
	if innerLit, ok := asLiteral(chain.Rhs); ok {
		combined := mathsFold(op, outerLit, innerLit)
		return ast.MathsBinaryOp{Op: op, Lhs: chain.Lhs, Rhs: ast.Literal{Value: combined}}, true
	}
	return ast.MathsBinaryOp{}, false
}

// distributeLiteralOverMul implements spec.md §2/§4.3's "distributing
// literals across add/sub/mul/div where it produces more foldable
// subtrees": `scalar * (x +/- lit)` becomes `(scalar*x) +/- (scalar*lit)`.
// The new `scalar*lit` term folds to a plain literal immediately (both
// operands are literal), which on its own buys nothing, but it puts that
// literal back in reach of hoistChainedLiteral for whatever sum this node
// is itself an operand of (e.g. `scalar*(x+lit) + lit2` collapses from
// three runtime ops to two once distribution exposes `lit*scalar` next to
// `lit2`). FloorDiv/Mod are excluded: flooring is not distributive, so
// rewriting them this way would change the result.
func distributeLiteralOverMul(op ast.MathsOp, lhs, rhs ast.Expr) (ast.MathsBinaryOp, bool) {
	if op != ast.OpMul {
		return ast.MathsBinaryOp{}, false
	}
	scalar, other, ok := literalAndOther(lhs, rhs)
	if !ok {
		return ast.MathsBinaryOp{}, false
	}
	inner, ok := other.(ast.MathsBinaryOp)
	if !ok || (inner.Op != ast.OpAdd && inner.Op != ast.OpSub) {
		return ast.MathsBinaryOp{}, false
	}
	if innerLit, ok := asLiteral(inner.Rhs); ok {
		return ast.MathsBinaryOp{
			Op:  inner.Op,
			Lhs: ast.MathsBinaryOp{Op: ast.OpMul, Lhs: ast.Literal{Value: scalar}, Rhs: inner.Lhs},
			Rhs: ast.Literal{Value: mathsFold(ast.OpMul, scalar, innerLit)},
		}, true
	}
	if innerLit, ok := asLiteral(inner.Lhs); ok {
		return ast.MathsBinaryOp{
			Op:  inner.Op,
			Lhs: ast.Literal{Value: mathsFold(ast.OpMul, scalar, innerLit)},
			Rhs: ast.MathsBinaryOp{Op: ast.OpMul, Lhs: ast.Literal{Value: scalar}, Rhs: inner.Rhs},
		}, true
	}
	return ast.MathsBinaryOp{}, false
}

// literalAndOther returns whichever of lhs/rhs is a literal plus the other
// (non-literal) side; ok is false if neither or both sides are literal
// (the full-literal case already folds earlier in simplifyMathsBinaryOp).
func literalAndOther(lhs, rhs ast.Expr) (value.Vector, ast.Expr, bool) {
	litLhs, lhsIsLit := asLiteral(lhs)
	litRhs, rhsIsLit := asLiteral(rhs)
	switch {
	case lhsIsLit && !rhsIsLit:
		return litLhs, rhs, true
	case rhsIsLit && !lhsIsLit:
		return litRhs, lhs, true
	default:
		return value.Vector{}, nil, false
	}
}

func compareFold(op ast.CompareOp, a, b value.Vector) value.Vector {
	switch op {
	case ast.OpEq:
		return value.Eq(a, b)
	case ast.OpNe:
		return value.Ne(a, b)
	case ast.OpLt:
		return value.Lt(a, b)
	case ast.OpLe:
		return value.Le(a, b)
	case ast.OpGt:
		return value.Gt(a, b)
	case ast.OpGe:
		return value.Ge(a, b)
	default:
		return value.False
	}
}

func (w *walker) simplifyComparison(n ast.Comparison) ast.Expr {
	lhs := w.simplify(n.Lhs)
	rhs := w.simplify(n.Rhs)

	litLhs, lhsIsLit := asLiteral(lhs)
	litRhs, rhsIsLit := asLiteral(rhs)
	if lhsIsLit && rhsIsLit {
		return ast.Literal{Value: compareFold(n.Op, litLhs, litRhs)}
	}
	return ast.Comparison{Op: n.Op, Lhs: lhs, Rhs: rhs}
}

// simplifyXor folds `lhs xor rhs` only once both sides are literal: unlike
// And/Or, Xor can never short-circuit from a single known operand, so a
// known-falsy or known-truthy lhs alone buys nothing.
func (w *walker) simplifyXor(n ast.Xor) ast.Expr {
	lhs := w.simplify(n.Lhs)
	rhs := w.simplify(n.Rhs)

	litLhs, lhsIsLit := asLiteral(lhs)
	litRhs, rhsIsLit := asLiteral(rhs)
	if lhsIsLit && rhsIsLit {
		return ast.Literal{Value: value.Xor(litLhs, litRhs)}
	}
	return ast.Xor{Lhs: lhs, Rhs: rhs}
}
