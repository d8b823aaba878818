package compiler

import (
	"fmt"

	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/value"
)

// newNodeTemplate builds the attribute-less, tag-less node a PushNode
// instruction clones on every evaluation.
func newNodeTemplate(kind string) *node.Node { return node.New(kind) }

// Options configures compile-time decisions the compiler cannot derive
// from the AST alone.
type Options struct {
	// StaticBuiltinNames are names known, at compile time, to resolve to a
	// pure/static host builtin unless shadowed by a local. A Call whose
	// callee is such a name, with no keyword arguments, compiles to the
	// cheaper CallFast opcode instead of the generic Call (spec.md §4.4).
	StaticBuiltinNames map[string]struct{}
}

// compilerState is the Lowerer-equivalent for this package: it walks a
// simplified ast.Expr and accumulates an Instruction list, tracking the
// compile-time `lvars` name stack spec.md §4.4 describes.
type compilerState struct {
	opts  Options
	lvars []string
	code  []Instruction
	label int
}

func newCompilerState(opts Options) *compilerState {
	return &compilerState{opts: opts}
}

func (c *compilerState) emit(i Instruction) { c.code = append(c.code, i) }

// newLabel returns a fresh, unique label name for this compile unit.
func (c *compilerState) newLabel(tag string) string {
	c.label++
	return fmt.Sprintf("%s_%d", tag, c.label)
}

// localOffset reports the LocalLoad depth for name if it is currently
// bound in lvars (0 = most recently pushed), or ok=false if it is not a
// known local at compile time (in which case the VM's full
// locals/globals/builtins/node-scope fallback chain applies instead).
func (c *compilerState) localOffset(name string) (int, bool) {
	for i := len(c.lvars) - 1; i >= 0; i-- {
		if c.lvars[i] == name {
			return len(c.lvars) - 1 - i, true
		}
	}
	return 0, false
}

// Compile lowers top into a linked, peephole-optimised top-level Program
// (spec.md §4.4-§4.5).
func Compile(top ast.Expr, opts Options) (*Program, error) {
	if opts.StaticBuiltinNames == nil {
		opts.StaticBuiltinNames = map[string]struct{}{}
	}
	c := newCompilerState(opts)

	seq, ok := top.(ast.Sequence)
	if !ok {
		seq = ast.Sequence{Items: []ast.Expr{top}}
	}
	if err := c.compileSequence(seq, true); err != nil {
		return nil, err
	}

	linked, err := Link(Optimize(c.code))
	if err != nil {
		return nil, err
	}
	return &Program{Instructions: linked}, nil
}

// compileFunctionBody compiles Body as its own translation unit whose
// lvars start seeded with params (spec.md §4.4: "the body as a nested
// program").
func compileFunctionBody(body ast.Expr, params []string, opts Options) (*Program, error) {
	c := newCompilerState(opts)
	c.lvars = append(c.lvars, params...)

	if err := c.compileExpr(body); err != nil {
		return nil, err
	}

	linked, err := Link(Optimize(c.code))
	if err != nil {
		return nil, err
	}
	return &Program{Parameters: params, Instructions: linked}, nil
}

// compileSequence compiles every item in source order. topLevel selects
// between the two Sequence-value rules spec.md §4.4/ast.go describe: at
// top level every produced value is individually AppendRoot'd and trailing
// locals become globals; nested, the produced values compose into the
// Sequence's single result value.
func (c *compilerState) compileSequence(seq ast.Sequence, topLevel bool) error {
	saved := len(c.lvars)
	produced := 0

	for _, item := range seq.Items {
		switch it := item.(type) {
		case ast.Let:
			if err := c.compileLet(it); err != nil {
				return err
			}
		case ast.Import:
			if err := c.compileImport(it); err != nil {
				return err
			}
		case ast.FunctionDef:
			if err := c.compileFunctionDef(it); err != nil {
				return err
			}
		case ast.Pragma:
			if err := c.compileExpr(it.Value); err != nil {
				return err
			}
			c.emit(SetPragma{S: it.Name})
		default:
			if err := c.compileExpr(item); err != nil {
				return err
			}
			if topLevel {
				c.emit(AppendRoot{})
			} else {
				produced++
			}
		}
	}

	if !topLevel {
		switch {
		case produced == 0:
			c.emit(PushLiteral{Value: value.Null})
		case produced > 1:
			c.emit(Compose{K: produced})
		}
		if bound := len(c.lvars) - saved; bound > 0 {
			c.emit(LocalDrop{N: bound})
		}
	}

	if topLevel {
		for i := len(c.lvars) - 1; i >= saved; i-- {
			c.emit(LocalLoad{K: 0})
			c.emit(StoreGlobal{S: c.lvars[i]})
			c.emit(LocalDrop{N: 1})
		}
	}
	c.lvars = c.lvars[:saved]
	return nil
}

func (c *compilerState) compileLet(n ast.Let) error {
	for i, name := range n.Names {
		if err := c.compileExpr(n.Values[i]); err != nil {
			return err
		}
		c.emit(LocalPush{N: 1})
		c.lvars = append(c.lvars, name)
	}
	return nil
}

func (c *compilerState) compileImport(n ast.Import) error {
	if err := c.compileExpr(n.Filename); err != nil {
		return err
	}
	c.emit(ImportNames{Names: n.Names})
	c.lvars = append(c.lvars, n.Names...)
	return nil
}

func (c *compilerState) compileFunctionDef(n ast.FunctionDef) error {
	hasDefault := make([]bool, len(n.Parameters))
	for i, d := range n.Defaults {
		if d != nil {
			hasDefault[i] = true
			if err := c.compileExpr(d); err != nil {
				return err
			}
		}
	}

	body, err := compileFunctionBody(n.Body, n.Parameters, c.opts)
	if err != nil {
		return err
	}

	c.emit(Func{Name: n.Name, Parameters: n.Parameters, HasDefault: hasDefault, Body: body})
	c.emit(LocalPush{N: 1})
	c.lvars = append(c.lvars, n.Name)
	return nil
}

// compileExpr compiles e so that it leaves exactly one value on the value
// stack (the single entry point every recursive call in this package goes
// through, mirroring pkg/simplify's walker.simplify).
func (c *compilerState) compileExpr(e ast.Expr) error {
	switch n := e.(type) {
	case ast.Literal:
		c.emit(PushLiteral{Value: n.Value})
		return nil
	case ast.Name:
		return c.compileNameRef(n.Name)
	case ast.FunctionName:
		return c.compileNameRef(n.Name)
	case ast.Range:
		return c.compileRange(n)
	case ast.Negative:
		if err := c.compileExpr(n.Rhs); err != nil {
			return err
		}
		c.emit(Neg{})
		return nil
	case ast.Positive:
		if err := c.compileExpr(n.Rhs); err != nil {
			return err
		}
		c.emit(Pos{})
		return nil
	case ast.Not:
		if err := c.compileExpr(n.Rhs); err != nil {
			return err
		}
		c.emit(Not{})
		return nil
	case ast.MathsBinaryOp:
		return c.compileMathsBinaryOp(n)
	case ast.Comparison:
		return c.compileComparison(n)
	case ast.And:
		return c.compileAnd(n)
	case ast.Or:
		return c.compileOr(n)
	case ast.Xor:
		if err := c.compileExpr(n.Lhs); err != nil {
			return err
		}
		if err := c.compileExpr(n.Rhs); err != nil {
			return err
		}
		c.emit(Xor{})
		return nil
	case ast.Slice:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		if err := c.compileExpr(n.Index); err != nil {
			return err
		}
		c.emit(Slice{})
		return nil
	case ast.FastSlice:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		c.emit(SliceLiteral{Index: n.Index})
		return nil
	case ast.StateRef:
		if lit, ok := n.Key.(ast.Literal); ok {
			c.emit(LookupLiteral{Key: lit.Value})
			return nil
		}
		if err := c.compileExpr(n.Key); err != nil {
			return err
		}
		c.emit(Lookup{})
		return nil
	case ast.Call:
		return c.compileCall(n)
	case ast.FunctionDef:
		return c.compileFunctionDef(n)
	case ast.Let:
		return fmt.Errorf("compiler: bare Let outside a Sequence has no defined value")
	case ast.InlineLet:
		return c.compileInlineLet(n)
	case ast.For:
		return c.compileFor(n)
	case ast.IfElse:
		return c.compileIfElse(n)
	case ast.Import:
		return fmt.Errorf("compiler: bare Import outside a Sequence has no defined value")
	case ast.Pragma:
		return fmt.Errorf("compiler: bare Pragma outside a Sequence has no defined value")
	case ast.NodeExpr:
		c.emit(PushNode{Node: newNodeTemplate(n.Kind)})
		return nil
	case ast.Tag:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		c.emit(TagNode{Tags: n.Tags})
		return nil
	case ast.Attributes:
		return c.compileAttributes(n)
	case ast.Append:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		for _, child := range n.Children {
			if err := c.compileExpr(child); err != nil {
				return err
			}
		}
		c.emit(Append{K: len(n.Children)})
		return nil
	case ast.Prepend:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		for _, child := range n.Children {
			if err := c.compileExpr(child); err != nil {
				return err
			}
		}
		c.emit(Prepend{K: len(n.Children)})
		return nil
	case ast.Search:
		c.emit(SearchQuery{Query: n.Query})
		return nil
	case ast.Sequence:
		return c.compileSequence(n, false)
	default:
		return fmt.Errorf("compiler: unhandled expression type %T", e)
	}
}

func (c *compilerState) compileNameRef(name string) error {
	if off, ok := c.localOffset(name); ok {
		c.emit(LocalLoad{K: off})
		return nil
	}
	c.emit(LoadName{S: name})
	return nil
}

func (c *compilerState) compileRange(n ast.Range) error {
	if err := c.compileExpr(n.Start); err != nil {
		return err
	}
	if err := c.compileExpr(n.Stop); err != nil {
		return err
	}
	if err := c.compileExpr(n.Step); err != nil {
		return err
	}
	c.emit(MakeRange{})
	return nil
}

func mathsOpInstruction(op ast.MathsOp) (Instruction, error) {
	switch op {
	case ast.OpAdd:
		return Add{}, nil
	case ast.OpSub:
		return Sub{}, nil
	case ast.OpMul:
		return Mul{}, nil
	case ast.OpTrueDiv:
		return TrueDiv{}, nil
	case ast.OpFloorDiv:
		return FloorDiv{}, nil
	case ast.OpMod:
		return Mod{}, nil
	case ast.OpPow:
		return Pow{}, nil
	default:
		return nil, fmt.Errorf("compiler: unknown maths operator %v", op)
	}
}

func (c *compilerState) compileMathsBinaryOp(n ast.MathsBinaryOp) error {
	if err := c.compileExpr(n.Lhs); err != nil {
		return err
	}
	if err := c.compileExpr(n.Rhs); err != nil {
		return err
	}
	inst, err := mathsOpInstruction(n.Op)
	if err != nil {
		return err
	}
	c.emit(inst)
	return nil
}

func compareOpInstruction(op ast.CompareOp) (Instruction, error) {
	switch op {
	case ast.OpEq:
		return Eq{}, nil
	case ast.OpNe:
		return Ne{}, nil
	case ast.OpLt:
		return Lt{}, nil
	case ast.OpLe:
		return Le{}, nil
	case ast.OpGt:
		return Gt{}, nil
	case ast.OpGe:
		return Ge{}, nil
	default:
		return nil, fmt.Errorf("compiler: unknown compare operator %v", op)
	}
}

func (c *compilerState) compileComparison(n ast.Comparison) error {
	if err := c.compileExpr(n.Lhs); err != nil {
		return err
	}
	if err := c.compileExpr(n.Rhs); err != nil {
		return err
	}
	inst, err := compareOpInstruction(n.Op)
	if err != nil {
		return err
	}
	c.emit(inst)
	return nil
}

// compileAnd implements spec.md §4.4's "dup + conditional branch + drop +
// right operand": if Lhs is falsy, its duplicate is consumed by the branch
// and the original Lhs value remains as the result; otherwise the original
// is dropped and Rhs is evaluated as the result.
func (c *compilerState) compileAnd(n ast.And) error {
	if err := c.compileExpr(n.Lhs); err != nil {
		return err
	}
	end := c.newLabel("and_end")
	c.emit(Dup{})
	c.emit(BranchFalse{To: end})
	c.emit(Drop{K: 1})
	if err := c.compileExpr(n.Rhs); err != nil {
		return err
	}
	c.emit(Label{Name: end})
	return nil
}

func (c *compilerState) compileOr(n ast.Or) error {
	if err := c.compileExpr(n.Lhs); err != nil {
		return err
	}
	end := c.newLabel("or_end")
	c.emit(Dup{})
	c.emit(BranchTrue{To: end})
	c.emit(Drop{K: 1})
	if err := c.compileExpr(n.Rhs); err != nil {
		return err
	}
	c.emit(Label{Name: end})
	return nil
}

// compileCall pushes positional args, then keyword args, then the callee
// last (so the VM's pop order — callable, keyword values, positional
// args — matches spec.md §4.6's Call contract), and chooses CallFast when
// the callee is a compile-time-known static builtin called without keyword
// arguments (spec.md §4.4).
func (c *compilerState) compileCall(n ast.Call) error {
	name, isName := calleeName(n.Callee)
	if isName {
		if _, shadowed := c.localOffset(name); !shadowed {
			if _, isStatic := c.opts.StaticBuiltinNames[name]; isStatic && len(n.KwArgs) == 0 {
				for _, a := range n.Args {
					if err := c.compileExpr(a); err != nil {
						return err
					}
				}
				c.emit(CallFast{Name: name, K: len(n.Args)})
				return nil
			}
		}
	}

	for _, a := range n.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	for _, a := range n.KwArgs {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	if err := c.compileExpr(n.Callee); err != nil {
		return err
	}
	c.emit(Call{K: len(n.Args), Names: n.KwNames})
	return nil
}

func calleeName(e ast.Expr) (string, bool) {
	switch n := e.(type) {
	case ast.Name:
		return n.Name, true
	case ast.FunctionName:
		return n.Name, true
	default:
		return "", false
	}
}

// compileInlineLet binds Names to Values for the duration of Body only,
// unlike Let's remainder-of-Sequence scoping.
func (c *compilerState) compileInlineLet(n ast.InlineLet) error {
	for i, name := range n.Names {
		if err := c.compileExpr(n.Values[i]); err != nil {
			return err
		}
		c.emit(LocalPush{N: 1})
		c.lvars = append(c.lvars, name)
	}

	if err := c.compileExpr(n.Body); err != nil {
		return err
	}

	c.emit(LocalDrop{N: len(n.Names)})
	c.lvars = c.lvars[:len(c.lvars)-len(n.Names)]
	return nil
}

// compileFor lowers a (possibly dynamic-source) loop to
// BeginFor/Next/PushNext/EndForCompose (spec.md §4.4/§4.6). Literal-source
// loops short enough to fit the simplifier's unroll budget never reach
// here; this path exists for the ones that don't.
func (c *compilerState) compileFor(n ast.For) error {
	if err := c.compileExpr(n.Source); err != nil {
		return err
	}
	c.emit(BeginFor{})

	start := c.newLabel("for_start")
	end := c.newLabel("for_end")
	c.emit(Label{Name: start})
	c.emit(Next{K: len(n.Names), Label: end})

	saved := len(c.lvars)
	c.lvars = append(c.lvars, n.Names...)
	if err := c.compileExpr(n.Body); err != nil {
		return err
	}
	c.lvars = c.lvars[:saved]

	c.emit(PushNext{Label: start})
	c.emit(Label{Name: end})
	c.emit(EndForCompose{})
	return nil
}

// compileIfElse lowers a branch chain to a cascade of BranchFalse/Jump
// pairs; the final Else arm (or an implicit Null) is compiled in place of
// a last "branch".
func (c *compilerState) compileIfElse(n ast.IfElse) error {
	end := c.newLabel("if_end")

	for _, br := range n.Branches {
		next := c.newLabel("if_next")
		if err := c.compileExpr(br.Condition); err != nil {
			return err
		}
		c.emit(BranchFalse{To: next})
		if err := c.compileExpr(br.Then); err != nil {
			return err
		}
		c.emit(Jump{To: end})
		c.emit(Label{Name: next})
	}

	if n.Else != nil {
		if err := c.compileExpr(n.Else); err != nil {
			return err
		}
	} else {
		c.emit(PushLiteral{Value: value.Null})
	}
	c.emit(Label{Name: end})
	return nil
}

// attrsLoopVar is the compiler-synthesised per-iteration local compileAttributes
// binds around each node of the target vector. It is never resolved by name
// (only ever reached via LocalLoad{K: 0}), so the leading NUL makes it
// impossible for a surface-level identifier to ever collide with it.
const attrsLoopVar = "\x00attrs-node"

// compileAttributes compiles Target then a For-style loop over the
// resulting node vector (spec.md §4.4: "Multi-node attribute application is
// compiled as a For-style loop over the node vector"): each node is bound
// on its own, given its own SetNodeScope so a value expression reading a
// sibling attribute resolves against *that* node rather than node[0], has
// every attribute set on it individually, and is then composed back with
// the rest by EndForCompose — a single-node Target simply runs the loop
// body once.
func (c *compilerState) compileAttributes(n ast.Attributes) error {
	if err := c.compileExpr(n.Target); err != nil {
		return err
	}
	c.emit(BeginFor{})

	start := c.newLabel("attrs_start")
	end := c.newLabel("attrs_end")
	c.emit(Label{Name: start})
	c.emit(Next{K: 1, Label: end})

	saved := len(c.lvars)
	c.lvars = append(c.lvars, attrsLoopVar)
	c.emit(LocalLoad{K: 0})
	c.emit(SetNodeScope{})
	for i, name := range n.Names {
		if err := c.compileExpr(n.Values[i]); err != nil {
			return err
		}
		c.emit(SetAttribute{S: name})
	}
	c.emit(ClearNodeScope{})
	c.lvars = c.lvars[:saved]

	c.emit(PushNext{Label: start})
	c.emit(Label{Name: end})
	c.emit(EndForCompose{})
	return nil
}
