package vm

import (
	"fmt"

	"github.com/flitter-run/flitter/pkg/host"
	"github.com/flitter-run/flitter/pkg/value"
)

// resolveName implements LoadName's fallback chain (spec.md §4.6): program
// globals, then static builtins, then dynamic builtins, then the current
// node scope. Every name this compiler emits as LocalLoad was already
// resolved at compile time; LoadName only ever sees names outside the
// compiling unit's own lvars, so there is no runtime "local by name" tier
// to check here (see DESIGN.md).
func (m *Machine) resolveName(name string) value.Vector {
	if v, ok := m.ctx.Variables[name]; ok {
		return v
	}
	if fn, ok := m.builtins.Static[name]; ok {
		return value.NewObject(host.StaticRef{Name: name, Fn: fn})
	}
	if fn, ok := m.builtins.Dynamic[name]; ok {
		return value.NewObject(host.DynamicRef{Name: name, Fn: fn})
	}
	if scope, err := m.nodeScopes.Top(); err == nil && scope != nil {
		if v, ok := scope.Attribute(name); ok {
			return v
		}
	}
	m.ctx.AddError(fmt.Sprintf("unbound name %q", name))
	return value.Null
}
