package vm

import (
	"fmt"

	"github.com/flitter-run/flitter/pkg/compiler"
	"github.com/flitter-run/flitter/pkg/host"
	"github.com/flitter-run/flitter/pkg/value"
)

// execCall implements the generic Call instruction (spec.md §4.6): pop the
// callable vector, then the keyword values (by Names, reverse push order),
// then the K positional args, and apply the callable per element per
// callDispatch, composing the results.
func (m *Machine) execCall(inst compiler.Call) error {
	callee, err := m.values.Pop()
	if err != nil {
		return err
	}
	kwargs := map[string]value.Vector{}
	for i := len(inst.Names) - 1; i >= 0; i-- {
		v, err := m.values.Pop()
		if err != nil {
			return err
		}
		kwargs[inst.Names[i]] = v
	}
	args, err := m.values.PopN(inst.K)
	if err != nil {
		return err
	}

	result := m.dispatch(callee, args, kwargs)
	m.values.Push(result)
	return nil
}

// execCallFast invokes a statically-known builtin directly, bypassing the
// generic callable-vector dispatch (spec.md §4.4).
func (m *Machine) execCallFast(inst compiler.CallFast) error {
	args, err := m.values.PopN(inst.K)
	if err != nil {
		return err
	}
	fn, ok := m.builtins.Static[inst.Name]
	if !ok {
		m.ctx.AddError(fmt.Sprintf("unbound static builtin %q", inst.Name))
		m.values.Push(value.Null)
		return nil
	}
	result, callErr := fn(args)
	if callErr != nil {
		m.ctx.AddError(fmt.Sprintf("host call %q: %v", inst.Name, callErr))
		m.values.Push(value.Null)
		return nil
	}
	m.values.Push(result)
	return nil
}

// dispatch applies callee to args/kwargs per spec.md §4.6's call-dispatch
// contract: a callee with multiple object elements invokes each in turn
// (skipping non-callables per spec.md §9 Open Question (c)) and composes
// the results.
func (m *Machine) dispatch(callee value.Vector, args []value.Vector, kwargs map[string]value.Vector) value.Vector {
	if callee.IsNumeric() {
		return value.Null
	}

	var results []value.Vector
	for _, obj := range callee.Objects() {
		switch fn := obj.(type) {
		case *value.Function:
			results = append(results, m.callFunction(fn, args))
		case host.StaticRef:
			v, err := fn.Fn(args)
			if err != nil {
				m.ctx.AddError(fmt.Sprintf("host call %q: %v", fn.Name, err))
				v = value.Null
			}
			results = append(results, v)
		case host.DynamicRef:
			v, err := fn.Fn(m.ctx, args, kwargs)
			if err != nil {
				m.ctx.AddError(fmt.Sprintf("host call %q: %v", fn.Name, err))
				v = value.Null
			}
			results = append(results, v)
		default:
			// non-callable element: silently skipped.
		}
	}
	return value.Compose(results)
}

// callFunction implements spec.md §4.6's Function call state machine: the
// body program runs against a fresh locals stack seeded with fn's captured
// snapshot followed by the bound parameter values, and the body is expected
// to leave exactly one result.
func (m *Machine) callFunction(fn *value.Function, args []value.Vector) value.Vector {
	body, ok := fn.Body.(*compiler.Program)
	if !ok {
		m.ctx.AddError(fmt.Sprintf("function %q has no runnable body", fn.Name))
		return value.Null
	}

	sub := &Machine{ctx: m.ctx, builtins: m.builtins, loader: m.loader}
	for _, v := range fn.Locals {
		sub.locals.Push(v)
	}
	for i, param := range fn.Parameters {
		sub.locals.Push(boundParam(args, fn.Defaults, i, param))
	}

	if err := sub.exec(body.Instructions); err != nil {
		m.ctx.AddError(fmt.Sprintf("function %q: %v", fn.Name, err))
		return value.Null
	}
	if sub.values.Count() != 1 {
		m.ctx.AddError(fmt.Sprintf("function %q returned %d values, expected 1", fn.Name, sub.values.Count()))
		return value.Null
	}
	result, _ := sub.values.Pop()
	return result
}

func boundParam(args, defaults []value.Vector, i int, _ string) value.Vector {
	if i < len(args) {
		return args[i]
	}
	if i < len(defaults) {
		return defaults[i]
	}
	return value.Null
}

// execFunc implements the Func instruction: pop the default-value vectors
// (one per parameter flagged in HasDefault, in parameter order) and build a
// new *value.Function capturing the current locals stack (spec.md §4.6,
// §9 "Persistent locals snapshot for functions").
func (m *Machine) execFunc(inst compiler.Func) error {
	defaults := make([]value.Vector, len(inst.Parameters))
	for i := len(inst.Parameters) - 1; i >= 0; i-- {
		if !inst.HasDefault[i] {
			continue
		}
		v, err := m.values.Pop()
		if err != nil {
			return err
		}
		defaults[i] = v
	}

	fn := value.NewFunction(inst.Name, inst.Parameters, defaults, inst.Body, m.locals.Slice(), m.ctx.Path)
	m.values.Push(value.NewObject(fn))
	return nil
}
