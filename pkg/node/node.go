// Package node implements Flitter's scene-graph node: a mutable tagged tree
// element with a copy-on-write attribute map, sibling-linked children, and
// at most one parent (spec.md §3, §4.2).
package node

import (
	"sort"

	"github.com/flitter-run/flitter/pkg/value"
)

// Node is a mutable tree element. Traversal is sibling-linked: a node
// stores firstChild/lastChild, and each child stores nextSibling.
type Node struct {
	Kind  string
	tags  map[string]struct{}
	attrs *Attributes

	parent      *Node
	firstChild  *Node
	lastChild   *Node
	nextSibling *Node

	// DebugID is a monotonic counter populated only by StampDebugID; zero
	// otherwise. Nothing in the engine calls StampDebugID, so it stays zero
	// unless a host stamps nodes itself.
	DebugID uint64
}

var debugIDSeq uint64

// New builds a fresh, parentless node of the given kind.
func New(kind string) *Node {
	return &Node{Kind: kind, attrs: newAttributes()}
}

// StampDebugID assigns the next DebugID to n. It stamps unconditionally on
// every call.
func (n *Node) StampDebugID() {
	debugIDSeq++
	n.DebugID = debugIDSeq
}

// Clone returns a shallow copy of n: same kind and tags, attributes shared
// copy-on-write, no parent and no children (used when a literal node must
// be duplicated so simplification never shares a mutable node, spec.md
// §4.3).
func (n *Node) Clone() *Node {
	clone := &Node{Kind: n.Kind, attrs: n.attrs.share()}
	if len(n.tags) > 0 {
		clone.tags = make(map[string]struct{}, len(n.tags))
		for t := range n.tags {
			clone.tags[t] = struct{}{}
		}
	}
	return clone
}

// Parent returns n's parent, or nil if n is not attached to any tree.
func (n *Node) Parent() *Node { return n.parent }

// NextSibling returns the sibling immediately following n, or nil.
func (n *Node) NextSibling() *Node { return n.nextSibling }

// FirstChild returns n's first child, or nil.
func (n *Node) FirstChild() *Node { return n.firstChild }

// Children returns n's children left to right. Prefer iterating via
// FirstChild/NextSibling in hot paths; this is a convenience for tests and
// diagnostics.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.firstChild; c != nil; c = c.nextSibling {
		out = append(out, c)
	}
	return out
}

// HasTag reports whether n carries tag.
func (n *Node) HasTag(tag string) bool {
	_, ok := n.tags[tag]
	return ok
}

// Tags returns n's tags, sorted for deterministic diagnostics.
func (n *Node) Tags() []string {
	out := make([]string, 0, len(n.tags))
	for t := range n.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AddTag adds tag to n.
func (n *Node) AddTag(tag string) {
	if n.tags == nil {
		n.tags = map[string]struct{}{}
	}
	n.tags[tag] = struct{}{}
}

// Attribute returns the vector bound to name, and whether it was present.
func (n *Node) Attribute(name string) (value.Vector, bool) {
	return n.attrs.get(name)
}

// SetAttribute binds name to v, cloning the attribute map first if it is
// currently shared with another node (copy-on-write, spec.md §3).
func (n *Node) SetAttribute(name string, v value.Vector) {
	n.attrs = n.attrs.ensureOwned()
	n.attrs.set(name, v)
}

// AttributeNames returns attribute names in insertion order (spec.md §3:
// "insertion-order preserved for deterministic emission").
func (n *Node) AttributeNames() []string { return n.attrs.names() }

// attach makes child n's last child, used by both Append and
// AppendRoot; cow selects whether the (possibly already-parented) child is
// copied or re-parented in place, implementing the asymmetry documented in
// spec.md §9 Open Question (a).
func (n *Node) attach(child *Node, cow bool) {
	if child.parent != nil {
		if !cow {
			// AppendRoot semantics: re-attaching an already-owned node is a
			// silent no-op.
			return
		}
		child = child.Clone()
	}

	child.parent = n
	if n.lastChild == nil {
		n.firstChild, n.lastChild = child, child
		return
	}
	n.lastChild.nextSibling = child
	n.lastChild = child
}

// Append attaches child as n's last child. If child already has a parent,
// it is copied first (spec.md §9 Open Question (a): "copy in intermediate
// Append").
func (n *Node) Append(child *Node) { n.attach(child, true) }

// AppendRoot attaches child as n's last child, but silently skips
// re-attachment if child already has a parent (spec.md §9: "silently skip
// in AppendRoot").
func (n *Node) AppendRoot(child *Node) { n.attach(child, false) }

// Insert prepends child as n's first child (spec.md §4.2's `insert`). A
// child already owned elsewhere is copied first, matching Append's rule.
func (n *Node) Insert(child *Node) {
	if child.parent != nil {
		child = child.Clone()
	}
	child.parent = n
	child.nextSibling = n.firstChild
	n.firstChild = child
	if n.lastChild == nil {
		n.lastChild = child
	}
}

// Remove detaches child from n's child list, if present.
func (n *Node) Remove(child *Node) {
	var prev *Node
	for c := n.firstChild; c != nil; c = c.nextSibling {
		if c == child {
			if prev == nil {
				n.firstChild = c.nextSibling
			} else {
				prev.nextSibling = c.nextSibling
			}
			if n.lastChild == c {
				n.lastChild = prev
			}
			child.parent = nil
			child.nextSibling = nil
			return
		}
		prev = c
	}
}

// ObjectTruthy implements value.Object: a node is always truthy, mirroring
// spec.md §3's "live node" phrasing (a detached/removed node is still a
// live Go object, just parentless).
func (n *Node) ObjectTruthy() bool { return true }

// ObjectEqual implements value.Object with Go identity, since nodes are
// mutable and spec.md §8 invariant 3 compares graphs "up to node identity".
func (n *Node) ObjectEqual(other value.Object) bool {
	o, ok := other.(*Node)
	return ok && n == o
}
