package node

// Query is a predicate over nodes (spec.md §3, §4.2): an optional kind, a
// set of required tags, strict (all tags must match vs any), stop (search
// does not descend into matched nodes), first (return only the first
// match), an optional subquery (applied to descendants of a match) and an
// optional altquery (alternative predicate, OR'd with this one).
type Query struct {
	Kind   string // empty matches any kind
	Tags   []string
	Strict bool
	Stop   bool
	First  bool

	Subquery *Query
	Altquery *Query
}

// matchesSelf reports whether n satisfies q's kind/tag/strictness alone
// (ignoring Subquery, which is applied separately by Search once a match is
// found).
func (q *Query) matchesSelf(n *Node) bool {
	if q.Kind != "" && n.Kind != q.Kind {
		return matchAlt(q, n)
	}
	if !tagsMatch(q, n) {
		return matchAlt(q, n)
	}
	return true
}

func matchAlt(q *Query, n *Node) bool {
	if q.Altquery == nil {
		return false
	}
	return q.Altquery.matchesSelf(n)
}

func tagsMatch(q *Query, n *Node) bool {
	if len(q.Tags) == 0 {
		return true
	}
	if q.Strict {
		for _, t := range q.Tags {
			if !n.HasTag(t) {
				return false
			}
		}
		return true
	}
	for _, t := range q.Tags {
		if n.HasTag(t) {
			return true
		}
	}
	return false
}

// Search performs a depth-first, document-order traversal of root's subtree
// (root itself is not considered a candidate; only its descendants are),
// honouring Stop (do not descend into matches) and First (return only the
// first match), per spec.md §4.2.
func Search(root *Node, q *Query) []*Node {
	var out []*Node
	searchChildren(root, q, &out)
	return out
}

func searchChildren(parent *Node, q *Query, out *[]*Node) bool {
	for c := parent.firstChild; c != nil; c = c.nextSibling {
		if searchNode(c, q, out) {
			return true // First satisfied, unwind immediately
		}
	}
	return false
}

func searchNode(n *Node, q *Query, out *[]*Node) (stopSearch bool) {
	if q.matchesSelf(n) {
		if q.Subquery == nil {
			*out = append(*out, n)
		} else {
			*out = append(*out, Search(n, q.Subquery)...)
		}

		if q.First && len(*out) > 0 {
			return true
		}
		if q.Stop {
			return false // do not descend into this match, but keep sibling search going
		}
	}

	return searchChildren(n, q, out)
}
