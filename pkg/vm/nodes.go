package vm

import (
	"github.com/flitter-run/flitter/pkg/compiler"
	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/value"
)

// execTagNode applies Tags to every node in the top-of-stack vector without
// popping it (spec.md §4.6: "modify top-of-stack nodes with tag").
func (m *Machine) execTagNode(inst compiler.TagNode) error {
	top, err := m.values.Top()
	if err != nil {
		return err
	}
	for _, obj := range top.Objects() {
		if n, ok := obj.(*node.Node); ok {
			for _, tag := range inst.Tags {
				n.AddTag(tag)
			}
		}
	}
	return nil
}

// execSetAttribute pops the attribute value then sets it on every node in
// the (now) top-of-stack vector, leaving that vector on the stack.
func (m *Machine) execSetAttribute(inst compiler.SetAttribute) error {
	v, err := m.values.Pop()
	if err != nil {
		return err
	}
	top, err := m.values.Top()
	if err != nil {
		return err
	}
	for _, obj := range top.Objects() {
		if n, ok := obj.(*node.Node); ok {
			n.SetAttribute(inst.S, v)
		}
	}
	return nil
}

// execAttach implements Append/Prepend (spec.md §4.6): pop K child vectors
// then the target node vector, and attach the composed children into every
// node of the target. When target holds more than one node, attaching
// proceeds last-to-first so the LAST node keeps the original child objects
// and earlier ones receive copies (spec.md §9 Open Question (a): "the last
// node retains the originals, earlier ones receive copies"), relying on
// node.Append/node.Insert's own copy-on-reattach behaviour to produce the
// copies once a child already has a parent.
func (m *Machine) execAttach(k int, prepend bool) error {
	childVecs, err := m.values.PopN(k)
	if err != nil {
		return err
	}
	children := nodesOf(value.Compose(childVecs))

	target, err := m.values.Pop()
	if err != nil {
		return err
	}
	targets := nodesOf(target)

	for i := len(targets) - 1; i >= 0; i-- {
		t := targets[i]
		for _, c := range children {
			if prepend {
				t.Insert(c)
			} else {
				t.Append(c)
			}
		}
	}

	m.values.Push(target)
	return nil
}

// execAppendRoot pops one vector and attaches every node in it to the
// current graph root, silently skipping nodes already attached elsewhere
// (node.Node.AppendRoot's own semantics, spec.md §9 (a)).
func (m *Machine) execAppendRoot() error {
	v, err := m.values.Pop()
	if err != nil {
		return err
	}
	for _, n := range nodesOf(v) {
		m.ctx.Graph.AppendRoot(n)
	}
	return nil
}

func (m *Machine) execSearch(q *node.Query) value.Vector {
	matches := node.Search(m.ctx.Graph, q)
	objs := make([]value.Object, len(matches))
	for i, n := range matches {
		objs[i] = n
	}
	return value.NewObjects(objs)
}

func nodesOf(v value.Vector) []*node.Node {
	if v.IsNumeric() {
		return nil
	}
	out := make([]*node.Node, 0, v.Len())
	for _, o := range v.Objects() {
		if n, ok := o.(*node.Node); ok {
			out = append(out, n)
		}
	}
	return out
}
