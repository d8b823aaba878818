package simplify

import (
	"github.com/flitter-run/flitter/pkg/ast"
)

// bindingFor chooses how a simplified value expression should be recorded
// in scope: a folded Literal becomes a concrete value binding (so later
// references fold too), a bare Name becomes an alias (chases to whatever
// that name ultimately resolves to), and anything else is unknown at
// partial-evaluation time.
func bindingFor(simplified ast.Expr) binding {
	if lit, ok := asLiteral(simplified); ok {
		return valueBinding(lit)
	}
	if name, ok := simplified.(ast.Name); ok {
		return aliasBinding(name.Name)
	}
	return dynamicBinding()
}

// simplifyLet simplifies each bound value and records it in the enclosing
// scope for the remainder of the Sequence being processed (spec.md §4.4:
// Let has no explicit body, scoping comes from sequence position).
func (w *walker) simplifyLet(n ast.Let) ast.Expr {
	values := make([]ast.Expr, len(n.Values))
	for i, v := range n.Values {
		values[i] = w.simplify(v)
		w.variables[n.Names[i]] = bindingFor(values[i])
	}
	return ast.Let{Names: n.Names, Values: values}
}

// simplifyInlineLet re-simplifies an InlineLet's Values and Body in the
// scope they introduce. InlineLet is itself produced only by simplifyCall,
// but re-running Simplify over an already-partially-simplified tree (e.g.
// from a cached program) must handle it too.
func (w *walker) simplifyInlineLet(n ast.InlineLet) ast.Expr {
	values := make([]ast.Expr, len(n.Values))
	scope := make(map[string]binding, len(n.Names))
	for i, v := range n.Values {
		values[i] = w.simplify(v)
		scope[n.Names[i]] = bindingFor(values[i])
	}
	body := w.withScope(scope, func() ast.Expr { return w.simplify(n.Body) })
	return ast.InlineLet{Names: n.Names, Values: values, Body: body}
}

// simplifyFunctionDef simplifies a function's default expressions and body,
// binding Name to the function itself first so the body can recurse, and
// leaves the binding in the enclosing scope for the remainder of the
// Sequence (spec.md §4.4).
func (w *walker) simplifyFunctionDef(n ast.FunctionDef) ast.Expr {
	defaults := make([]ast.Expr, len(n.Defaults))
	for i, d := range n.Defaults {
		if d != nil {
			defaults[i] = w.simplify(d)
		}
	}

	fn := &function{def: ast.FunctionDef{Name: n.Name, Parameters: n.Parameters, Defaults: defaults, Body: n.Body}}
	w.variables[n.Name] = functionBinding(fn)

	body := w.withScope(paramBindings(n.Parameters), func() ast.Expr { return w.simplify(n.Body) })
	fn.def.Body = body

	return ast.FunctionDef{Name: n.Name, Parameters: n.Parameters, Defaults: defaults, Body: body}
}

// simplifyCall simplifies the callee and arguments, then attempts to
// inline a call to a known single-definition function by producing an
// InlineLet(body, parameter_bindings) (spec.md §4.3). Parameters bound to
// literals are substituted into the body and dropped from the InlineLet;
// when every parameter is literal the call reduces to the simplified body
// itself. Inlining backs off when the call passes keyword arguments, has
// more required parameters than supplied arguments, or the inline-depth
// budget is exhausted — in every such case the Call is left for the
// compiler/VM to dispatch normally.
func (w *walker) simplifyCall(n ast.Call) ast.Expr {
	callee := w.simplify(n.Callee)
	args := w.simplifyList(n.Args)
	kwArgs := w.simplifyList(n.KwArgs)

	fname, ok := callee.(ast.FunctionName)
	if !ok || len(kwArgs) > 0 || w.inlineDepth >= w.budget.MaxInlineDepth {
		return ast.Call{Callee: callee, Args: args, KwNames: n.KwNames, KwArgs: kwArgs}
	}
	b, found := w.variables[fname.Name]
	if !found || b.kind != bindingFunction || len(args) > len(b.function.def.Parameters) {
		return ast.Call{Callee: callee, Args: args, KwNames: n.KwNames, KwArgs: kwArgs}
	}

	fn := b.function
	params := fn.def.Parameters
	values := make([]ast.Expr, len(params))
	for i := range params {
		switch {
		case i < len(args):
			values[i] = args[i]
		case i < len(fn.def.Defaults) && fn.def.Defaults[i] != nil:
			values[i] = fn.def.Defaults[i]
		default:
			// missing required parameter: abandon inlining; the VM binds
			// Null to it at call time.
			return ast.Call{Callee: callee, Args: args, KwNames: n.KwNames, KwArgs: kwArgs}
		}
	}

	scope := make(map[string]binding, len(params))
	for i, p := range params {
		scope[p] = bindingFor(values[i])
	}

	w.inlineDepth++
	body := w.withScope(scope, func() ast.Expr { return w.simplify(fn.def.Body) })
	w.inlineDepth--

	var names []string
	var kept []ast.Expr
	for i, p := range params {
		if _, ok := asLiteral(values[i]); ok {
			continue // already folded into body through its value binding
		}
		names = append(names, p)
		kept = append(kept, values[i])
	}
	if len(names) == 0 {
		return body
	}
	return ast.InlineLet{Names: names, Values: kept, Body: body}
}
