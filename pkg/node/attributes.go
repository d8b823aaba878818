package node

import (
	"github.com/flitter-run/flitter/internal/utils"
	"github.com/flitter-run/flitter/pkg/value"
)

// Attributes is a copy-on-write handle around a node's attribute map
// (name -> value.Vector, insertion order preserved, spec.md §3). Multiple
// nodes may point at the same *Attributes (e.g. right after Clone); the
// first mutation on a shared handle clones the backing map.
type Attributes struct {
	shared bool
	om     *utils.OrderedMap[string, value.Vector]
}

func newAttributes() *Attributes {
	return &Attributes{om: utils.NewOrderedMap[string, value.Vector]()}
}

// share marks a as shared and returns it, used when handing the same
// attribute set to more than one node (Node.Clone).
func (a *Attributes) share() *Attributes {
	a.shared = true
	return a
}

// ensureOwned returns a handle safe to mutate in place: a itself if it is
// not shared, or a fresh clone (marked un-shared) otherwise.
func (a *Attributes) ensureOwned() *Attributes {
	if !a.shared {
		return a
	}
	return &Attributes{om: a.om.Clone()}
}

func (a *Attributes) get(name string) (value.Vector, bool) {
	return a.om.Get(name)
}

func (a *Attributes) set(name string, v value.Vector) {
	a.om.Set(name, v)
}

// names returns the attribute names, insertion order preserved.
func (a *Attributes) names() []string {
	return a.om.Keys()
}
