package ast

import (
	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/value"
)

// CloneLiteral returns lit unchanged unless its Value carries one or more
// *node.Node objects, in which case every node is replaced by its
// node.Clone (same kind and tags, attributes shared copy-on-write, children
// not copied) so that two occurrences of the same literal in a simplified
// tree never alias the same mutable Node (spec.md §4.3: "cloning node-bearing literals so
// simplification never shares mutable nodes").
func CloneLiteral(lit Literal) Literal {
	if lit.Value.IsNumeric() {
		return lit
	}

	objects := lit.Value.Objects()
	cloned := make([]value.Object, len(objects))
	changed := false
	for i, o := range objects {
		if n, ok := o.(*node.Node); ok {
			cloned[i] = n.Clone()
			changed = true
			continue
		}
		cloned[i] = o
	}
	if !changed {
		return lit
	}
	return Literal{Value: value.NewObjects(cloned)}
}
