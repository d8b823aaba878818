package vm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/compiler"
	"github.com/flitter-run/flitter/pkg/host"
	"github.com/flitter-run/flitter/pkg/state"
	"github.com/flitter-run/flitter/pkg/value"
	"github.com/flitter-run/flitter/pkg/vm"
)

func num(n float64) ast.Literal { return ast.Literal{Value: value.NewNumber(n)} }

func compileAndRun(t *testing.T, top ast.Expr, builtins host.Builtins, loader host.SourceLoader) *state.Context {
	t.Helper()
	prog, err := compiler.Compile(top, compiler.Options{StaticBuiltinNames: builtins.StaticNames()})
	require.NoError(t, err)

	ctx := state.New(state.NewStore(), "test", nil)
	m := vm.New(ctx, builtins, loader)
	_, err = m.Run(prog, nil)
	require.NoError(t, err)
	return ctx
}

func TestArithmeticStoresGlobal(t *testing.T) {
	seq := ast.Sequence{Items: []ast.Expr{
		ast.Let{Names: []string{"result"}, Values: []ast.Expr{
			ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: num(2), Rhs: num(3)},
		}},
	}}
	ctx := compileAndRun(t, seq, host.Builtins{}, nil)
	got, ok := ctx.Variables["result"]
	require.True(t, ok)
	assert.Equal(t, 5.0, got.At(0))
}

func TestFunctionCallWithDefault(t *testing.T) {
	seq := ast.Sequence{Items: []ast.Expr{
		ast.FunctionDef{
			Name:       "addTen",
			Parameters: []string{"n"},
			Defaults:   []ast.Expr{num(0)},
			Body:       ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: ast.Name{Name: "n"}, Rhs: num(10)},
		},
		ast.Let{Names: []string{"result"}, Values: []ast.Expr{
			ast.Call{Callee: ast.Name{Name: "addTen"}, Args: []ast.Expr{num(5)}},
		}},
	}}
	ctx := compileAndRun(t, seq, host.Builtins{}, nil)
	got, ok := ctx.Variables["result"]
	require.True(t, ok)
	require.True(t, got.IsNumeric())
	assert.Equal(t, 15.0, got.At(0))
}

func TestFunctionCallUsesDefaultWhenArgMissing(t *testing.T) {
	seq := ast.Sequence{Items: []ast.Expr{
		ast.FunctionDef{
			Name:       "addTen",
			Parameters: []string{"n"},
			Defaults:   []ast.Expr{num(1)},
			Body:       ast.MathsBinaryOp{Op: ast.OpAdd, Lhs: ast.Name{Name: "n"}, Rhs: num(10)},
		},
		ast.Let{Names: []string{"result"}, Values: []ast.Expr{
			ast.Call{Callee: ast.Name{Name: "addTen"}},
		}},
	}}
	ctx := compileAndRun(t, seq, host.Builtins{}, nil)
	got, ok := ctx.Variables["result"]
	require.True(t, ok)
	assert.Equal(t, 11.0, got.At(0))
}

func TestShortCircuitAndSkipsRhsHostCall(t *testing.T) {
	called := false
	builtins := host.Builtins{Static: map[string]host.StaticBuiltin{
		"explode": func(args []value.Vector) (value.Vector, error) {
			called = true
			return value.NewNumber(1), nil
		},
	}}
	seq := ast.Sequence{Items: []ast.Expr{
		ast.And{
			Lhs: ast.Literal{Value: value.Null},
			Rhs: ast.Call{Callee: ast.Name{Name: "explode"}},
		},
	}}
	compileAndRun(t, seq, builtins, nil)
	assert.False(t, called, "And should short-circuit before invoking the rhs host call")
}

func TestXorEvaluatesBothOperandsNoShortCircuit(t *testing.T) {
	calls := 0
	builtins := host.Builtins{Static: map[string]host.StaticBuiltin{
		"mark": func(args []value.Vector) (value.Vector, error) {
			calls++
			return value.True, nil
		},
	}}
	seq := ast.Sequence{Items: []ast.Expr{
		ast.Let{Names: []string{"result"}, Values: []ast.Expr{
			ast.Xor{
				Lhs: ast.Literal{Value: value.False},
				Rhs: ast.Call{Callee: ast.Name{Name: "mark"}},
			},
		}},
	}}
	ctx := compileAndRun(t, seq, builtins, nil)
	assert.Equal(t, 1, calls, "Xor must always evaluate its rhs")
	got, ok := ctx.Variables["result"]
	require.True(t, ok)
	assert.True(t, got.IsTruthy())
}

func TestForLoopComposesResults(t *testing.T) {
	seq := ast.Sequence{Items: []ast.Expr{
		ast.Let{Names: []string{"total"}, Values: []ast.Expr{
			ast.For{
				Names:  []string{"i"},
				Source: ast.Range{Start: num(0), Stop: num(3), Step: num(1)},
				Body:   ast.MathsBinaryOp{Op: ast.OpMul, Lhs: ast.Name{Name: "i"}, Rhs: num(2)},
			},
		}},
	}}
	ctx := compileAndRun(t, seq, host.Builtins{}, nil)
	got, ok := ctx.Variables["total"]
	require.True(t, ok)
	require.True(t, got.IsNumeric())
	assert.Equal(t, []float64{0, 2, 4}, got.Numbers())
}

func TestNodeConstructionBuildsGraphShape(t *testing.T) {
	seq := ast.Sequence{Items: []ast.Expr{
		ast.Attributes{
			Target: ast.NodeExpr{Kind: "light"},
			Names:  []string{"color"},
			Values: []ast.Expr{num(1)},
		},
	}}
	ctx := compileAndRun(t, seq, host.Builtins{}, nil)
	children := ctx.Graph.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "light", children[0].Kind)
	v, ok := children[0].Attribute("color")
	require.True(t, ok)
	assert.Equal(t, 1.0, v.At(0))
}

func TestNodeScopeFallsBackForSiblingAttribute(t *testing.T) {
	seq := ast.Sequence{Items: []ast.Expr{
		ast.Attributes{
			Target: ast.NodeExpr{Kind: "shape"},
			Names:  []string{"a", "b"},
			Values: []ast.Expr{num(3), ast.Name{Name: "a"}},
		},
	}}
	ctx := compileAndRun(t, seq, host.Builtins{}, nil)
	children := ctx.Graph.Children()
	require.Len(t, children, 1)
	v, ok := children[0].Attribute("b")
	require.True(t, ok)
	assert.Equal(t, 3.0, v.At(0))
}

func TestMultiNodeAttributesEvaluatePerNodeNotBroadcast(t *testing.T) {
	calls := 0
	builtins := host.Builtins{Static: map[string]host.StaticBuiltin{
		"counter": func(args []value.Vector) (value.Vector, error) {
			calls++
			return value.NewNumber(float64(calls)), nil
		},
	}}
	seq := ast.Sequence{Items: []ast.Expr{
		ast.Attributes{
			Target: ast.Sequence{Items: []ast.Expr{
				ast.NodeExpr{Kind: "dot"},
				ast.NodeExpr{Kind: "dot"},
			}},
			Names: []string{"a", "b"},
			Values: []ast.Expr{
				ast.Call{Callee: ast.Name{Name: "counter"}},
				ast.Name{Name: "a"}, // sibling-attribute read: must resolve per-node, not to node[0]
			},
		},
	}}
	ctx := compileAndRun(t, seq, builtins, nil)
	roots := ctx.Graph.Children()
	require.Len(t, roots, 2)
	assert.Equal(t, 2, calls, "counter must be invoked once per node, not once total")

	a0, ok := roots[0].Attribute("a")
	require.True(t, ok)
	b0, ok := roots[0].Attribute("b")
	require.True(t, ok)
	a1, ok := roots[1].Attribute("a")
	require.True(t, ok)
	b1, ok := roots[1].Attribute("b")
	require.True(t, ok)

	assert.Equal(t, 1.0, a0.At(0))
	assert.Equal(t, 1.0, b0.At(0), "b must read this node's own a, not node[0]'s broadcast value")
	assert.Equal(t, 2.0, a1.At(0))
	assert.Equal(t, 2.0, b1.At(0), "b must read this node's own a, not node[0]'s broadcast value")
}

func TestAppendBuildsParentChildShape(t *testing.T) {
	seq := ast.Sequence{Items: []ast.Expr{
		ast.Append{
			Target:   ast.NodeExpr{Kind: "group"},
			Children: []ast.Expr{ast.NodeExpr{Kind: "leaf"}},
		},
	}}
	ctx := compileAndRun(t, seq, host.Builtins{}, nil)
	roots := ctx.Graph.Children()
	require.Len(t, roots, 1)
	assert.Equal(t, "group", roots[0].Kind)
	kids := roots[0].Children()
	require.Len(t, kids, 1)
	assert.Equal(t, "leaf", kids[0].Kind)
}

func TestPragmaRoundTrips(t *testing.T) {
	seq := ast.Sequence{Items: []ast.Expr{
		ast.Pragma{Name: "tempo", Value: num(120)},
	}}
	ctx := compileAndRun(t, seq, host.Builtins{}, nil)
	got, ok := ctx.Pragmas["tempo"]
	require.True(t, ok)
	assert.Equal(t, 120.0, got.At(0))
}

func TestStateRoundTrips(t *testing.T) {
	store := state.NewStore()
	builtins := host.Builtins{Dynamic: map[string]host.DynamicBuiltin{
		"store": func(ctx *state.Context, args []value.Vector, kwargs map[string]value.Vector) (value.Vector, error) {
			ctx.State.Set(kwargs["key"], kwargs["value"])
			return value.Null, nil
		},
	}}

	write := ast.Sequence{Items: []ast.Expr{
		ast.Call{
			Callee:  ast.Name{Name: "store"},
			KwNames: []string{"key", "value"},
			KwArgs:  []ast.Expr{ast.Literal{Value: value.NewObject(value.Str("foo"))}, num(7)},
		},
	}}
	prog, err := compiler.Compile(write, compiler.Options{})
	require.NoError(t, err)
	ctx := state.New(store, "write", nil)
	m := vm.New(ctx, builtins, nil)
	_, err = m.Run(prog, nil)
	require.NoError(t, err)

	key := value.NewObject(value.Str("foo"))
	assert.Equal(t, 7.0, store.Get(key).At(0))

	read := ast.Sequence{Items: []ast.Expr{
		ast.Attributes{
			Target: ast.NodeExpr{Kind: "emit"},
			Names:  []string{"value"},
			Values: []ast.Expr{ast.StateRef{Key: ast.Literal{Value: key}}},
		},
	}}
	prog2, err := compiler.Compile(read, compiler.Options{})
	require.NoError(t, err)
	ctx2 := state.New(store, "read", nil)
	m2 := vm.New(ctx2, host.Builtins{}, nil)
	_, err = m2.Run(prog2, nil)
	require.NoError(t, err)

	emitted := ctx2.Graph.Children()
	require.Len(t, emitted, 1)
	v, ok := emitted[0].Attribute("value")
	require.True(t, ok)
	assert.Equal(t, 7.0, v.At(0))
}

func TestCircularImportIsRecordedNotFatal(t *testing.T) {
	loader := host.NewMemoryLoader(8)

	a, err := compiler.Compile(ast.Sequence{Items: []ast.Expr{
		ast.Import{Filename: ast.Literal{Value: value.NewObject(value.Str("b.fl"))}, Names: []string{"x"}},
	}}, compiler.Options{})
	require.NoError(t, err)

	b, err := compiler.Compile(ast.Sequence{Items: []ast.Expr{
		ast.Import{Filename: ast.Literal{Value: value.NewObject(value.Str("a.fl"))}, Names: []string{"y"}},
	}}, compiler.Options{})
	require.NoError(t, err)

	loader.Register("a.fl", a)
	loader.Register("b.fl", b)

	ctx := state.New(state.NewStore(), "a.fl", nil)
	m := vm.New(ctx, host.Builtins{}, loader)
	_, err = m.Run(a, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ctx.Errors, "a circular import should be recorded as a non-fatal error")
}

func TestImportBindsNamesFromChildModule(t *testing.T) {
	loader := host.NewMemoryLoader(8)

	lib, err := compiler.Compile(ast.Sequence{Items: []ast.Expr{
		ast.Let{Names: []string{"shared"}, Values: []ast.Expr{num(99)}},
	}}, compiler.Options{})
	require.NoError(t, err)
	loader.Register("lib.fl", lib)

	main, err := compiler.Compile(ast.Sequence{Items: []ast.Expr{
		ast.Import{
			Filename: ast.Literal{Value: value.NewObject(value.Str("lib.fl"))},
			Names:    []string{"shared"},
		},
		ast.Let{Names: []string{"copy"}, Values: []ast.Expr{ast.Name{Name: "shared"}}},
	}}, compiler.Options{})
	require.NoError(t, err)

	ctx := state.New(state.NewStore(), "main.fl", nil)
	m := vm.New(ctx, host.Builtins{}, loader)
	_, err = m.Run(main, nil)
	require.NoError(t, err)

	got, ok := ctx.Variables["copy"]
	require.True(t, ok)
	assert.Equal(t, 99.0, got.At(0))
}
