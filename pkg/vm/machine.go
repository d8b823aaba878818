// Package vm executes a compiler.Program against a value stack, a locals
// stack and a loop stack (spec.md §4.6): it resolves names through the
// locals -> globals -> builtins -> node-scope fallback chain, dispatches
// calls onto Functions and host builtins, handles imports with cycle
// detection, and emits the scene graph and pragmas into a state.Context.
package vm

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/flitter-run/flitter/internal/flog"
	"github.com/flitter-run/flitter/internal/utils"
	"github.com/flitter-run/flitter/pkg/compiler"
	"github.com/flitter-run/flitter/pkg/host"
	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/state"
	"github.com/flitter-run/flitter/pkg/value"
)

// Machine is one execution of one compiler.Program against one
// state.Context (spec.md §5: "one vm.Machine per Program.Run call").
type Machine struct {
	ctx      *state.Context
	builtins host.Builtins
	loader   host.SourceLoader

	values     utils.Stack[value.Vector]
	locals     utils.Stack[value.Vector]
	loops      utils.Stack[*loopFrame]
	nodeScopes utils.Stack[*node.Node]
}

// New builds a Machine ready to run program against ctx.
func New(ctx *state.Context, builtins host.Builtins, loader host.SourceLoader) *Machine {
	return &Machine{ctx: ctx, builtins: builtins, loader: loader}
}

// Run executes every instruction in prog in order and returns the final
// Context, or a non-nil error if an internal error (stack-discipline
// violation, out-of-range jump) aborted the run (spec.md §7). Reference,
// import and host-call errors are not fatal: they're recorded into
// ctx.Errors and the run continues.
func (m *Machine) Run(prog *compiler.Program, args []value.Vector) (*state.Context, error) {
	for i, name := range prog.Parameters {
		m.locals.Push(paramValue(args, i))
		_ = name
	}
	if err := m.exec(prog.Instructions); err != nil {
		return m.ctx, err
	}
	if m.values.Count() != 0 {
		return m.ctx, m.internalErrorf(prog.Instructions, -1, "value stack not empty at run end: %d leftover", m.values.Count())
	}
	if m.locals.Count() != len(prog.Parameters) {
		return m.ctx, m.internalErrorf(prog.Instructions, -1, "locals stack not balanced at run end: %d leftover", m.locals.Count()-len(prog.Parameters))
	}
	return m.ctx, nil
}

func paramValue(args []value.Vector, i int) value.Vector {
	if i < len(args) {
		return args[i]
	}
	return value.Null
}

// exec dispatches every instruction in code, in order, honouring relative
// jumps (spec.md §4.5: "pc += offset after the fetch").
func (m *Machine) exec(code []compiler.Instruction) error {
	for pc := 0; pc < len(code); pc++ {
		offset, err := m.step(code, pc)
		if err != nil {
			return err
		}
		next := pc + offset + 1
		if next < 0 || next > len(code) {
			return m.internalErrorf(code, pc, "jump target %d out of program bounds", next)
		}
		pc = next - 1
	}
	return nil
}

// step runs the single instruction at pc and returns the extra pc
// adjustment a jump instruction requires (0 for everything else).
func (m *Machine) step(code []compiler.Instruction, pc int) (int, error) {
	switch inst := code[pc].(type) {

	// -- stack manipulation --------------------------------------------
	case compiler.PushLiteral:
		m.values.Push(inst.Value)
	case compiler.PushNode:
		m.values.Push(value.NewObject(inst.Node.Clone()))
	case compiler.Dup:
		top, err := m.values.Top()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "Dup on empty value stack")
		}
		m.values.Push(top)
	case compiler.Drop:
		if _, err := m.values.PopN(inst.K); err != nil {
			return 0, m.internalErrorf(code, pc, "Drop %d: %v", inst.K, err)
		}

	// -- name resolution -------------------------------------------------
	case compiler.LoadName:
		m.values.Push(m.resolveName(inst.S))
	case compiler.LocalLoad:
		v, err := m.locals.At(inst.K)
		if err != nil {
			return 0, m.internalErrorf(code, pc, "LocalLoad %d: %v", inst.K, err)
		}
		m.values.Push(v)
	case compiler.LocalPush:
		vs, err := m.values.PopN(inst.N)
		if err != nil {
			return 0, m.internalErrorf(code, pc, "LocalPush %d: %v", inst.N, err)
		}
		for i := len(vs) - 1; i >= 0; i-- {
			m.locals.Push(vs[i])
		}
	case compiler.LocalDrop:
		if err := m.locals.Drop(inst.N); err != nil {
			return 0, m.internalErrorf(code, pc, "LocalDrop %d: %v", inst.N, err)
		}
	case compiler.StoreGlobal:
		v, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "StoreGlobal %q: %v", inst.S, err)
		}
		m.ctx.Variables[inst.S] = v

	// -- state ------------------------------------------------------------
	case compiler.Lookup:
		key, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "Lookup: %v", err)
		}
		m.values.Push(m.ctx.State.Get(key))
	case compiler.LookupLiteral:
		m.values.Push(m.ctx.State.Get(inst.Key))

	// -- ranges and arithmetic ---------------------------------------------
	case compiler.MakeRange:
		if err := m.execMakeRange(); err != nil {
			return 0, m.internalErrorf(code, pc, "MakeRange: %v", err)
		}
	case compiler.Add:
		if err := m.binary(value.Add); err != nil {
			return 0, m.internalErrorf(code, pc, "Add: %v", err)
		}
	case compiler.Sub:
		if err := m.binary(value.Sub); err != nil {
			return 0, m.internalErrorf(code, pc, "Sub: %v", err)
		}
	case compiler.Mul:
		if err := m.binary(value.Mul); err != nil {
			return 0, m.internalErrorf(code, pc, "Mul: %v", err)
		}
	case compiler.TrueDiv:
		if err := m.binary(value.TrueDiv); err != nil {
			return 0, m.internalErrorf(code, pc, "TrueDiv: %v", err)
		}
	case compiler.FloorDiv:
		if err := m.binary(value.FloorDiv); err != nil {
			return 0, m.internalErrorf(code, pc, "FloorDiv: %v", err)
		}
	case compiler.Mod:
		if err := m.binary(value.Mod); err != nil {
			return 0, m.internalErrorf(code, pc, "Mod: %v", err)
		}
	case compiler.Pow:
		if err := m.binary(value.Pow); err != nil {
			return 0, m.internalErrorf(code, pc, "Pow: %v", err)
		}
	case compiler.MulAdd:
		if err := m.execMulAdd(); err != nil {
			return 0, m.internalErrorf(code, pc, "MulAdd: %v", err)
		}
	case compiler.Eq:
		if err := m.binary(value.Eq); err != nil {
			return 0, m.internalErrorf(code, pc, "Eq: %v", err)
		}
	case compiler.Ne:
		if err := m.binary(value.Ne); err != nil {
			return 0, m.internalErrorf(code, pc, "Ne: %v", err)
		}
	case compiler.Lt:
		if err := m.binary(value.Lt); err != nil {
			return 0, m.internalErrorf(code, pc, "Lt: %v", err)
		}
	case compiler.Le:
		if err := m.binary(value.Le); err != nil {
			return 0, m.internalErrorf(code, pc, "Le: %v", err)
		}
	case compiler.Gt:
		if err := m.binary(value.Gt); err != nil {
			return 0, m.internalErrorf(code, pc, "Gt: %v", err)
		}
	case compiler.Ge:
		if err := m.binary(value.Ge); err != nil {
			return 0, m.internalErrorf(code, pc, "Ge: %v", err)
		}
	case compiler.Xor:
		if err := m.binary(value.Xor); err != nil {
			return 0, m.internalErrorf(code, pc, "Xor: %v", err)
		}
	case compiler.Not:
		if err := m.unary(value.Not); err != nil {
			return 0, m.internalErrorf(code, pc, "Not: %v", err)
		}
	case compiler.Neg:
		if err := m.unary(value.Neg); err != nil {
			return 0, m.internalErrorf(code, pc, "Neg: %v", err)
		}
	case compiler.Pos:
		if err := m.unary(value.Pos); err != nil {
			return 0, m.internalErrorf(code, pc, "Pos: %v", err)
		}

	// -- slicing ----------------------------------------------------------
	case compiler.Slice:
		idx, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "Slice: %v", err)
		}
		target, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "Slice: %v", err)
		}
		m.values.Push(target.Slice(idx))
	case compiler.SliceLiteral:
		target, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "SliceLiteral: %v", err)
		}
		m.values.Push(target.FastSlice(inst.Index))
	case compiler.IndexLiteral:
		target, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "IndexLiteral: %v", err)
		}
		m.values.Push(target.IndexLiteral(inst.Index))

	// -- calls and functions -------------------------------------------
	case compiler.Call:
		if err := m.execCall(inst); err != nil {
			return 0, m.internalErrorf(code, pc, "Call: %v", err)
		}
	case compiler.CallFast:
		if err := m.execCallFast(inst); err != nil {
			return 0, m.internalErrorf(code, pc, "CallFast %q: %v", inst.Name, err)
		}
	case compiler.Func:
		if err := m.execFunc(inst); err != nil {
			return 0, m.internalErrorf(code, pc, "Func %q: %v", inst.Name, err)
		}

	// -- node construction --------------------------------------------
	case compiler.TagNode:
		if err := m.execTagNode(inst); err != nil {
			return 0, m.internalErrorf(code, pc, "Tag: %v", err)
		}
	case compiler.SetAttribute:
		if err := m.execSetAttribute(inst); err != nil {
			return 0, m.internalErrorf(code, pc, "SetAttribute %q: %v", inst.S, err)
		}
	case compiler.Append:
		if err := m.execAttach(inst.K, false); err != nil {
			return 0, m.internalErrorf(code, pc, "Append: %v", err)
		}
	case compiler.Prepend:
		if err := m.execAttach(inst.K, true); err != nil {
			return 0, m.internalErrorf(code, pc, "Prepend: %v", err)
		}
	case compiler.AppendRoot:
		if err := m.execAppendRoot(); err != nil {
			return 0, m.internalErrorf(code, pc, "AppendRoot: %v", err)
		}
	case compiler.Compose:
		vs, err := m.values.PopN(inst.K)
		if err != nil {
			return 0, m.internalErrorf(code, pc, "Compose %d: %v", inst.K, err)
		}
		m.values.Push(value.Compose(vs))

	// -- loops --------------------------------------------------------
	case compiler.BeginFor:
		src, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "BeginFor: %v", err)
		}
		m.loops.Push(&loopFrame{source: src})
	case compiler.Next:
		jumped, err := m.execNext(inst)
		if err != nil {
			return 0, m.internalErrorf(code, pc, "Next: %v", err)
		}
		if jumped {
			return inst.Offset, nil
		}
	case compiler.PushNext:
		if err := m.execPushNext(); err != nil {
			return 0, m.internalErrorf(code, pc, "PushNext: %v", err)
		}
		return inst.Offset, nil
	case compiler.EndFor:
		if _, err := m.loops.Pop(); err != nil {
			return 0, m.internalErrorf(code, pc, "EndFor: %v", err)
		}
	case compiler.EndForCompose:
		frame, err := m.loops.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "EndForCompose: %v", err)
		}
		m.values.Push(value.Compose(frame.results))

	// -- node scope -----------------------------------------------------
	case compiler.SetNodeScope:
		top, err := m.values.Top()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "SetNodeScope: %v", err)
		}
		m.nodeScopes.Push(firstNode(top))
	case compiler.ClearNodeScope:
		if _, err := m.nodeScopes.Pop(); err != nil {
			return 0, m.internalErrorf(code, pc, "ClearNodeScope: %v", err)
		}

	// -- search, imports, pragmas -----------------------------------------
	case compiler.SearchQuery:
		m.values.Push(m.execSearch(inst.Query))
	case compiler.ImportNames:
		m.execImport(inst)
	case compiler.SetPragma:
		v, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "Pragma %q: %v", inst.S, err)
		}
		m.ctx.SetPragma(inst.S, v)

	// -- control flow -----------------------------------------------------
	case compiler.Jump:
		return inst.Offset, nil
	case compiler.BranchTrue:
		v, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "BranchTrue: %v", err)
		}
		if v.IsTruthy() {
			return inst.Offset, nil
		}
	case compiler.BranchFalse:
		v, err := m.values.Pop()
		if err != nil {
			return 0, m.internalErrorf(code, pc, "BranchFalse: %v", err)
		}
		if !v.IsTruthy() {
			return inst.Offset, nil
		}

	default:
		return 0, m.internalErrorf(code, pc, "unhandled instruction %T", inst)
	}

	return 0, nil
}

func (m *Machine) binary(op func(a, b value.Vector) value.Vector) error {
	b, err := m.values.Pop()
	if err != nil {
		return err
	}
	a, err := m.values.Pop()
	if err != nil {
		return err
	}
	m.values.Push(op(a, b))
	return nil
}

func (m *Machine) unary(op func(v value.Vector) value.Vector) error {
	v, err := m.values.Pop()
	if err != nil {
		return err
	}
	m.values.Push(op(v))
	return nil
}

func (m *Machine) execMakeRange() error {
	step, err := m.values.Pop()
	if err != nil {
		return err
	}
	stop, err := m.values.Pop()
	if err != nil {
		return err
	}
	start, err := m.values.Pop()
	if err != nil {
		return err
	}
	m.values.Push(value.FillRange(scalarOf(start), scalarOf(stop), scalarOf(step)))
	return nil
}

func (m *Machine) execMulAdd() error {
	b, err := m.values.Pop()
	if err != nil {
		return err
	}
	a, err := m.values.Pop()
	if err != nil {
		return err
	}
	self, err := m.values.Pop()
	if err != nil {
		return err
	}
	m.values.Push(value.MulAdd(self, a, b))
	return nil
}

func scalarOf(v value.Vector) float64 {
	if v.IsNumeric() && v.Len() > 0 {
		return v.At(0)
	}
	return 0
}

func firstNode(v value.Vector) *node.Node {
	if v.IsNumeric() {
		return nil
	}
	for _, o := range v.Objects() {
		if n, ok := o.(*node.Node); ok {
			return n
		}
	}
	return nil
}

// internalErrorf builds and logs a stack-discipline/jump-bounds internal
// error, dumping the five surrounding instructions (SPEC_FULL.md §4.6
// expansion); the run aborts but the process neither panics nor exits.
func (m *Machine) internalErrorf(code []compiler.Instruction, pc int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	dump := surrounding(code, pc)
	err := pkgerrors.Errorf("vm: internal error at pc=%d: %s (context: %v)", pc, msg, dump)
	flog.Logger().Error().
		Int("pc", pc).
		Interface("surrounding", dump).
		Str("run_id", m.ctx.RunID.String()).
		Msg("vm internal error")
	return err
}

func surrounding(code []compiler.Instruction, pc int) []compiler.Instruction {
	if pc < 0 {
		pc = len(code)
	}
	lo := pc - 2
	if lo < 0 {
		lo = 0
	}
	hi := pc + 3
	if hi > len(code) {
		hi = len(code)
	}
	return code[lo:hi]
}
