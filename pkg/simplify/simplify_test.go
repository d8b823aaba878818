package simplify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/simplify"
	"github.com/flitter-run/flitter/pkg/value"
)

func literalNode(kind string) ast.Literal {
	return ast.Literal{Value: value.NewObjects([]value.Object{node.New(kind)})}
}

func num(n float64) ast.Literal { return ast.Literal{Value: value.NewNumber(n)} }

func TestSimplifyConstantFolding(t *testing.T) {
	e := ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: num(2), Rhs: num(3)}
	res := simplify.Simplify(e, nil, nil, simplify.DefaultBudget())
	require.Empty(t, res.Errors)
	lit, ok := res.Expr.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(5), lit.Value.At(0))
}

func TestSimplifyAlgebraicIdentities(t *testing.T) {
	n := ast.Name{Name: "x"}

	cases := []struct {
		name string
		expr ast.Expr
		want func(t *testing.T, got ast.Expr)
	}{
		{
			name: "0+x -> +x",
			expr: ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: num(0), Rhs: n},
			want: func(t *testing.T, got ast.Expr) {
				pos, ok := got.(ast.Positive)
				require.True(t, ok)
				assert.Equal(t, n, pos.Rhs)
			},
		},
		{
			name: "x-0 -> +x",
			expr: ast.MathsBinaryOp{Op: ast.OpSub, Lhs: n, Rhs: num(0)},
			want: func(t *testing.T, got ast.Expr) {
				pos, ok := got.(ast.Positive)
				require.True(t, ok)
				assert.Equal(t, n, pos.Rhs)
			},
		},
		{
			name: "0-x -> -x",
			expr: ast.MathsBinaryOp{Op: ast.OpSub, Lhs: num(0), Rhs: n},
			want: func(t *testing.T, got ast.Expr) {
				neg, ok := got.(ast.Negative)
				require.True(t, ok)
				assert.Equal(t, n, neg.Rhs)
			},
		},
		{
			name: "1*x -> +x",
			expr: ast.MathsBinaryOp{Op: ast.OpMul, Lhs: num(1), Rhs: n},
			want: func(t *testing.T, got ast.Expr) {
				_, ok := got.(ast.Positive)
				require.True(t, ok)
			},
		},
		{
			name: "-1*x -> -x",
			expr: ast.MathsBinaryOp{Op: ast.OpMul, Lhs: num(-1), Rhs: n},
			want: func(t *testing.T, got ast.Expr) {
				_, ok := got.(ast.Negative)
				require.True(t, ok)
			},
		},
		{
			name: "x+(-y) -> x-y",
			expr: ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: n, Rhs: ast.Negative{Rhs: ast.Name{Name: "y"}}},
			want: func(t *testing.T, got ast.Expr) {
				sub, ok := got.(ast.MathsBinaryOp)
				require.True(t, ok)
				assert.Equal(t, ast.OpSub, sub.Op)
			},
		},
		{
			name: "-(-x) -> x",
			expr: ast.Negative{Rhs: ast.Negative{Rhs: n}},
			want: func(t *testing.T, got ast.Expr) {
				assert.Equal(t, n, got)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := simplify.Simplify(tc.expr, nil, []string{"x", "y"}, simplify.DefaultBudget())
			require.Empty(t, res.Errors)
			tc.want(t, res.Expr)
		})
	}
}

func TestSimplifyHoistsLiteralsInChainedMultiplies(t *testing.T) {
	n := ast.Name{Name: "x"}

	// (x*2)*3 -> x*6
	e := ast.MathsBinaryOp{
		Op:  ast.OpMul,
		Lhs: ast.MathsBinaryOp{Op: ast.OpMul, Lhs: n, Rhs: num(2)},
		Rhs: num(3),
	}
	res := simplify.Simplify(e, nil, []string{"x"}, simplify.DefaultBudget())
	require.Empty(t, res.Errors)
	mbo, ok := res.Expr.(ast.MathsBinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, mbo.Op)
	assert.Equal(t, n, mbo.Lhs)
	lit, ok := mbo.Rhs.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(6), lit.Value.At(0))
}

func TestSimplifyHoistsLiteralsInChainedAdds(t *testing.T) {
	n := ast.Name{Name: "x"}

	// 2+(x+3) -> x+5
	e := ast.MathsBinaryOp{
		Op:  ast.OpAdd,
		Lhs: num(2),
		Rhs: ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: n, Rhs: num(3)},
	}
	res := simplify.Simplify(e, nil, []string{"x"}, simplify.DefaultBudget())
	require.Empty(t, res.Errors)
	mbo, ok := res.Expr.(ast.MathsBinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, mbo.Op)
	assert.Equal(t, n, mbo.Lhs)
	lit, ok := mbo.Rhs.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(5), lit.Value.At(0))
}

func TestSimplifyDistributesLiteralOverAddExposingOuterFold(t *testing.T) {
	n := ast.Name{Name: "x"}

	// 2*(x+3) + 1 -> (2*x)+7
	e := ast.MathsBinaryOp{
		Op: ast.OpAdd,
		Lhs: ast.MathsBinaryOp{
			Op:  ast.OpMul,
			Lhs: num(2),
			Rhs: ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: n, Rhs: num(3)},
		},
		Rhs: num(1),
	}
	res := simplify.Simplify(e, nil, []string{"x"}, simplify.DefaultBudget())
	require.Empty(t, res.Errors)

	outer, ok := res.Expr.(ast.MathsBinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, outer.Op)

	inner, ok := outer.Lhs.(ast.MathsBinaryOp)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, inner.Op)
	assert.Equal(t, n, inner.Rhs)
	scalarLit, ok := inner.Lhs.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(2), scalarLit.Value.At(0))

	foldedLit, ok := outer.Rhs.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(7), foldedLit.Value.At(0))
}

func TestSimplifyAndOrShortCircuit(t *testing.T) {
	dynamic := ast.Name{Name: "x"}

	and := ast.And{Lhs: ast.Literal{Value: value.False}, Rhs: dynamic}
	res := simplify.Simplify(and, nil, []string{"x"}, simplify.DefaultBudget())
	lit, ok := res.Expr.(ast.Literal)
	require.True(t, ok)
	assert.False(t, lit.Value.IsTruthy())

	or := ast.Or{Lhs: ast.Literal{Value: value.True}, Rhs: dynamic}
	res = simplify.Simplify(or, nil, []string{"x"}, simplify.DefaultBudget())
	lit, ok = res.Expr.(ast.Literal)
	require.True(t, ok)
	assert.True(t, lit.Value.IsTruthy())
}

func TestSimplifyXorFoldsOnlyWhenBothSidesLiteral(t *testing.T) {
	dynamic := ast.Name{Name: "x"}

	mixed := ast.Xor{Lhs: ast.Literal{Value: value.False}, Rhs: dynamic}
	res := simplify.Simplify(mixed, nil, []string{"x"}, simplify.DefaultBudget())
	require.Empty(t, res.Errors)
	xor, ok := res.Expr.(ast.Xor)
	require.True(t, ok, "Xor cannot short-circuit from a single literal operand")
	_, stillLit := xor.Lhs.(ast.Literal)
	assert.True(t, stillLit)

	both := ast.Xor{Lhs: ast.Literal{Value: value.True}, Rhs: ast.Literal{Value: value.False}}
	res = simplify.Simplify(both, nil, nil, simplify.DefaultBudget())
	require.Empty(t, res.Errors)
	lit, ok := res.Expr.(ast.Literal)
	require.True(t, ok)
	assert.True(t, lit.Value.IsTruthy())
}

func TestSimplifySliceLowersToFastSlice(t *testing.T) {
	e := ast.Slice{Target: ast.Name{Name: "v"}, Index: ast.Literal{Value: value.NewNumbers([]float64{0, 1})}}
	res := simplify.Simplify(e, nil, []string{"v"}, simplify.DefaultBudget())
	fs, ok := res.Expr.(ast.FastSlice)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1}, fs.Index)
}

func TestSimplifyForUnrollsLiteralSource(t *testing.T) {
	e := ast.For{
		Names:  []string{"i"},
		Source: ast.Literal{Value: value.NewNumbers([]float64{1, 2, 3})},
		Body:   ast.Name{Name: "i"},
	}
	res := simplify.Simplify(e, nil, nil, simplify.DefaultBudget())
	require.Empty(t, res.Errors)
	seq, ok := res.Expr.(ast.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Items, 3)
	for i, it := range seq.Items {
		lit, ok := it.(ast.Literal)
		require.True(t, ok)
		assert.Equal(t, float64(i+1), lit.Value.At(0))
	}
}

func TestSimplifyForRespectsUnrollBudget(t *testing.T) {
	e := ast.For{
		Names:  []string{"i"},
		Source: ast.Literal{Value: value.NewNumbers([]float64{1, 2, 3})},
		Body:   ast.Name{Name: "i"},
	}
	res := simplify.Simplify(e, nil, nil, simplify.Budget{MaxUnrollIterations: 1, MaxInlineDepth: 1})
	_, ok := res.Expr.(ast.For)
	assert.True(t, ok, "loop longer than the budget should be left intact")
}

func TestSimplifyDropsDeadLiteralLet(t *testing.T) {
	e := ast.Sequence{Items: []ast.Expr{
		ast.Let{Names: []string{"unused"}, Values: []ast.Expr{num(1)}},
		num(42),
	}}
	res := simplify.Simplify(e, nil, nil, simplify.DefaultBudget())
	// Once the dead Let is dropped, nothing binder-like remains, so the
	// lone survivor collapses out of its Sequence wrapper (spec.md §4.3,
	// "otherwise collapse singletons and inline").
	lit, ok := res.Expr.(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(42), lit.Value.At(0))
}

func TestSimplifySequenceMergesAdjacentLiterals(t *testing.T) {
	e := ast.Sequence{Items: []ast.Expr{
		ast.Let{Names: []string{"x"}, Values: []ast.Expr{ast.Name{Name: "dyn"}}},
		num(1),
		num(2),
		ast.Name{Name: "x"},
	}}
	res := simplify.Simplify(e, nil, []string{"dyn"}, simplify.DefaultBudget())
	require.Empty(t, res.Errors)

	seq, ok := res.Expr.(ast.Sequence)
	require.True(t, ok, "the live Let keeps the Sequence wrapper")
	require.Len(t, seq.Items, 3, "the two adjacent literals merge into one")

	lit, ok := seq.Items[1].(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, lit.Value.Numbers())
}

func TestSimplifySequenceCollapsesEmptyBinderlessSequenceToNull(t *testing.T) {
	e := ast.Sequence{Items: []ast.Expr{
		ast.Let{Names: []string{"unused"}, Values: []ast.Expr{num(1)}},
	}}
	res := simplify.Simplify(e, nil, nil, simplify.DefaultBudget())
	require.Empty(t, res.Errors)

	lit, ok := res.Expr.(ast.Literal)
	require.True(t, ok, "dropping the only item leaves an empty, binder-free sequence")
	assert.Equal(t, value.Null, lit.Value)
}

func TestSimplifyKeepsLiveLet(t *testing.T) {
	e := ast.Sequence{Items: []ast.Expr{
		ast.Let{Names: []string{"x"}, Values: []ast.Expr{ast.Name{Name: "dyn"}}},
		ast.Name{Name: "x"},
	}}
	res := simplify.Simplify(e, nil, []string{"dyn"}, simplify.DefaultBudget())
	seq, ok := res.Expr.(ast.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Items, 2)
}

func TestSimplifyInlinesKnownFunctionCall(t *testing.T) {
	e := ast.Sequence{Items: []ast.Expr{
		ast.FunctionDef{Name: "double", Parameters: []string{"n"}, Defaults: []ast.Expr{nil}, Body: ast.MathsBinaryOp{Op: ast.OpMul, Lhs: ast.Name{Name: "n"}, Rhs: num(2)}},
		ast.Call{Callee: ast.Name{Name: "double"}, Args: []ast.Expr{num(21)}},
	}}
	res := simplify.Simplify(e, nil, nil, simplify.DefaultBudget())
	require.Empty(t, res.Errors)
	seq, ok := res.Expr.(ast.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Items, 2)

	_, isFunc := seq.Items[0].(ast.FunctionDef)
	require.True(t, isFunc)

	// The literal argument is substituted into the body, so no InlineLet
	// binding is left and the call reduces to the folded body.
	body, ok := seq.Items[1].(ast.Literal)
	require.True(t, ok)
	assert.Equal(t, float64(42), body.Value.At(0))
}

func TestSimplifyReportsUnboundName(t *testing.T) {
	res := simplify.Simplify(ast.Name{Name: "ghost"}, nil, nil, simplify.DefaultBudget())
	require.Len(t, res.Errors, 1)
}

func TestSimplifyAttributesSuppressesNodeScopeNames(t *testing.T) {
	e := ast.Attributes{
		Target: ast.NodeExpr{Kind: "shape"},
		Names:  []string{"x", "y"},
		Values: []ast.Expr{num(1), ast.Name{Name: "x"}},
	}
	res := simplify.Simplify(e, nil, nil, simplify.DefaultBudget())
	assert.Empty(t, res.Errors, "a sibling-attribute reference is not a reference error")
	_, ok := res.Expr.(ast.Attributes)
	assert.True(t, ok)
}

func TestSimplifyAttributesFoldAllLiteralIntoLiteralNode(t *testing.T) {
	e := ast.Attributes{
		Target: literalNode("shape"),
		Names:  []string{"x", "y"},
		Values: []ast.Expr{num(1), num(2)},
	}
	res := simplify.Simplify(e, nil, nil, simplify.DefaultBudget())
	require.Empty(t, res.Errors)

	lit, ok := res.Expr.(ast.Literal)
	require.True(t, ok, "an all-literal Attributes on a literal node folds away entirely")
	require.Equal(t, 1, lit.Value.Len())
	n, ok := lit.Value.ObjectAt(0).(*node.Node)
	require.True(t, ok)

	x, ok := n.Attribute("x")
	require.True(t, ok)
	assert.Equal(t, float64(1), x.At(0))
	y, ok := n.Attribute("y")
	require.True(t, ok)
	assert.Equal(t, float64(2), y.At(0))
}

func TestSimplifyAttributesKeepsNonLiteralRemaindersOnLiteralNode(t *testing.T) {
	e := ast.Attributes{
		Target: literalNode("shape"),
		Names:  []string{"x", "y"},
		Values: []ast.Expr{num(1), ast.Name{Name: "dyn"}},
	}
	res := simplify.Simplify(e, nil, []string{"dyn"}, simplify.DefaultBudget())
	require.Empty(t, res.Errors)

	attrs, ok := res.Expr.(ast.Attributes)
	require.True(t, ok, "a non-literal remainder keeps an Attributes wrapper")
	require.Equal(t, []string{"y"}, attrs.Names, "x already folded into the node and dropped from the remainder")

	lit, ok := attrs.Target.(ast.Literal)
	require.True(t, ok)
	n, ok := lit.Value.ObjectAt(0).(*node.Node)
	require.True(t, ok)
	xv, ok := n.Attribute("x")
	require.True(t, ok)
	assert.Equal(t, float64(1), xv.At(0))
}

func TestSimplifyAttributesEnrichesScopeForSoleSiblingOnlyRemainder(t *testing.T) {
	// x folds literally onto the node; y = x*2 references only the
	// now-node-local "x", so it should join scope and fold too.
	e := ast.Attributes{
		Target: literalNode("shape"),
		Names:  []string{"x", "y"},
		Values: []ast.Expr{num(1), ast.MathsBinaryOp{Op: ast.OpMul, Lhs: ast.Name{Name: "x"}, Rhs: num(2)}},
	}
	res := simplify.Simplify(e, nil, nil, simplify.DefaultBudget())
	require.Empty(t, res.Errors)

	lit, ok := res.Expr.(ast.Literal)
	require.True(t, ok, "once the sole remainder also folds, nothing is left to run at compile time")
	n, ok := lit.Value.ObjectAt(0).(*node.Node)
	require.True(t, ok)
	y, ok := n.Attribute("y")
	require.True(t, ok)
	assert.Equal(t, float64(2), y.At(0))
}
