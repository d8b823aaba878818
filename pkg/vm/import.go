package vm

import (
	"fmt"

	"github.com/flitter-run/flitter/pkg/compiler"
	"github.com/flitter-run/flitter/pkg/value"
)

// execImport implements the ImportNames instruction (spec.md §4.6): pop the
// filename, resolve and run the referenced module through a fresh child
// Machine/Context, then push each requested name's resulting binding as a
// new local, in the order a compiler.lvars-append expects (the last name in
// Names ends up at locals-depth 0). Load errors and detected import cycles
// are recorded into ctx.Errors rather than aborting the run, and every
// requested name binds to value.Null.
func (m *Machine) execImport(inst compiler.ImportNames) {
	filenameVec, err := m.values.Pop()
	if err != nil {
		m.ctx.AddError(fmt.Sprintf("import: %v", err))
		m.bindNull(inst.Names)
		return
	}
	filename, ok := filenameAsString(filenameVec)
	if !ok {
		m.ctx.AddError("import: filename is not a string")
		m.bindNull(inst.Names)
		return
	}

	if m.loader == nil {
		m.ctx.AddError(fmt.Sprintf("import %q: no source loader configured", filename))
		m.bindNull(inst.Names)
		return
	}

	prog, resolvedPath, loadErr := m.loader.Load(filename, m.ctx.Path)
	if loadErr != nil {
		m.ctx.AddError(fmt.Sprintf("import %q: %v", filename, loadErr))
		m.bindNull(inst.Names)
		return
	}
	if m.ctx.HasAncestorPath(resolvedPath) || m.ctx.Path == resolvedPath {
		m.ctx.AddError(fmt.Sprintf("import %q: circular import via %q", filename, resolvedPath))
		m.bindNull(inst.Names)
		return
	}

	child := m.ctx.Child(resolvedPath)
	sub := New(child, m.builtins, m.loader)
	if _, err := sub.Run(prog, nil); err != nil {
		m.ctx.AddError(fmt.Sprintf("import %q: %v", filename, err))
		m.bindNull(inst.Names)
		return
	}

	for _, name := range inst.Names {
		v, ok := child.Variables[name]
		if !ok {
			v = value.Null
		}
		m.locals.Push(v)
	}
}

func (m *Machine) bindNull(names []string) {
	for range names {
		m.locals.Push(value.Null)
	}
}

func filenameAsString(v value.Vector) (string, bool) {
	if v.IsNumeric() {
		return "", false
	}
	objs := v.Objects()
	if len(objs) != 1 {
		return "", false
	}
	s, ok := objs[0].(value.Str)
	if !ok {
		return "", false
	}
	return string(s), true
}
