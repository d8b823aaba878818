package simplify

import (
	"github.com/flitter-run/flitter/pkg/ast"
	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/value"
)

// literalSingleNode reports whether e is a Literal carrying exactly one
// *node.Node object: the shape spec.md §4.3's "Attributes on a literal node"
// rule applies to.
func literalSingleNode(e ast.Expr) (*node.Node, bool) {
	lit, ok := asLiteral(e)
	if !ok || lit.IsNumeric() || lit.Len() != 1 {
		return nil, false
	}
	n, ok := lit.ObjectAt(0).(*node.Node)
	return n, ok
}

// nodeLocalOnly reports whether every name in refs is already set as an
// attribute on n: the condition spec.md §4.3 names as "references only
// node-local attributes".
func nodeLocalOnly(refs map[string]struct{}, n *node.Node) bool {
	if len(refs) == 0 {
		return false
	}
	for name := range refs {
		if _, ok := n.Attribute(name); !ok {
			return false
		}
	}
	return true
}

// simplifyWithNodeAttrs temporarily binds each name in refs to n's own
// attribute value, re-simplifies e against that enriched scope, and restores
// whatever bindings were shadowed.
func (w *walker) simplifyWithNodeAttrs(e ast.Expr, n *node.Node, refs map[string]struct{}) ast.Expr {
	saved := map[string]binding{}
	hadSaved := map[string]bool{}
	for name := range refs {
		if old, ok := w.variables[name]; ok {
			saved[name] = old
			hadSaved[name] = true
		}
		v, _ := n.Attribute(name)
		w.variables[name] = valueBinding(v)
	}
	result := w.simplify(e)
	for name := range refs {
		if hadSaved[name] {
			w.variables[name] = saved[name]
		} else {
			delete(w.variables, name)
		}
	}
	return result
}

// simplifyAttributes simplifies Target normally, but Values are simplified
// with reference errors suppressed: at runtime the node under construction
// becomes the name-resolution fallback (SetNodeScope, spec.md §4.4), so a
// Name the simplifier can't resolve here might still resolve against a
// sibling attribute once compiled — it is not a reference error until the
// VM fails to find it anywhere.
//
// When Target folds to a single literal node, spec.md §4.3 has two further
// rules: every attribute whose RHS is itself literal folds directly into
// the node's attribute map (rather than staying a runtime SetAttribute), and
// if exactly one non-literal RHS remains and it references only attributes
// already folded onto that node, those attribute values join scope so the
// remaining RHS gets one more chance to simplify further.
func (w *walker) simplifyAttributes(n ast.Attributes) ast.Expr {
	target := w.simplify(n.Target)

	w.suppressRefErrors++
	values := w.simplifyList(n.Values)
	w.suppressRefErrors--

	litNode, isLitNode := literalSingleNode(target)
	if !isLitNode {
		return ast.Attributes{Target: target, Names: n.Names, Values: values}
	}

	var remNames []string
	var remValues []ast.Expr
	for i, v := range values {
		if lit, ok := asLiteral(v); ok {
			litNode.SetAttribute(n.Names[i], lit)
			continue
		}
		remNames = append(remNames, n.Names[i])
		remValues = append(remValues, v)
	}

	folded := ast.Literal{Value: value.NewObjects([]value.Object{litNode})}
	if len(remNames) == 0 {
		return folded
	}

	if len(remNames) == 1 {
		refs := map[string]struct{}{}
		freeNames(remValues[0], refs)
		if nodeLocalOnly(refs, litNode) {
			remValues[0] = w.simplifyWithNodeAttrs(remValues[0], litNode, refs)
			// The enriched scope may have let the sole remainder fold to a
			// literal too, in which case it joins the node exactly like any
			// other all-literal attribute and nothing is left to run.
			if lit, ok := asLiteral(remValues[0]); ok {
				litNode.SetAttribute(remNames[0], lit)
				return folded
			}
		}
	}

	return ast.Attributes{Target: folded, Names: remNames, Values: remValues}
}

// simplifyImport simplifies Filename and binds Names as dynamic (the
// simplifier does not resolve imports itself; that is the host's
// SourceLoader's job at compile/run time, spec.md §4.4/§6), leaving the
// bindings for the remainder of the enclosing Sequence.
func (w *walker) simplifyImport(n ast.Import) ast.Expr {
	filename := w.simplify(n.Filename)
	for _, name := range n.Names {
		w.variables[name] = dynamicBinding()
	}
	return ast.Import{Filename: filename, Names: n.Names}
}
