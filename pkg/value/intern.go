package value

import (
	"strconv"
	"strings"
	"sync"
)

// internTable holds canonical instances of literal vectors reused across a
// program's instruction stream (spec.md §3: "Interning is supported for
// literal reuse... must be semantics-preserving"). It is a package-level
// weak-in-spirit cache: entries are never evicted (literal vectors are
// small and bounded by program size), but an Object vector containing a
// *node.Node is never admitted, since node identity must stay observable
// and a node's attributes are mutable (spec.md §9, Open Question (a) and
// the copy-on-write rule).
var (
	internMu    sync.Mutex
	internTable = map[string]Vector{}
)

// Intern returns a canonical instance of v, reusing a previously interned
// vector with the same structural content when one exists. Equality is
// preserved by construction: Intern(v).Equal(v) is always true (spec.md
// §8, invariant 5).
func Intern(v Vector) Vector {
	if !internable(v) {
		return v
	}

	key := structuralKey(v)

	internMu.Lock()
	defer internMu.Unlock()
	if existing, found := internTable[key]; found {
		return existing
	}
	internTable[key] = v
	return v
}

// internable reports whether v is safe to intern: small, and (for Objects
// vectors) containing only immutable object kinds.
func internable(v Vector) bool {
	if v.Len() > inlineCap {
		return false
	}
	if v.kind == Numeric {
		return true
	}
	for _, o := range v.objects {
		switch o.(type) {
		case Str, Float, nil:
			continue
		default:
			// *node.Node, *Function, or any other mutable/identity-bearing
			// object: never intern (spec.md §9).
			return false
		}
	}
	return true
}

// structuralKey produces a hash-free but collision-free textual key for a
// small literal vector; simplicity over raw speed is fine here since only
// compile-time literals (bounded by program size, not per-frame data) ever
// reach Intern.
func structuralKey(v Vector) string {
	var b strings.Builder
	if v.kind == Numeric {
		b.WriteString("N:")
		for _, n := range v.numbers {
			b.WriteString(strconv.FormatFloat(n, 'b', -1, 64))
			b.WriteByte(',')
		}
		return b.String()
	}

	b.WriteString("O:")
	for _, o := range v.objects {
		switch t := o.(type) {
		case Str:
			b.WriteString("s:")
			b.WriteString(strconv.Itoa(len(t)))
			b.WriteByte(':')
			b.WriteString(string(t))
		case Float:
			b.WriteString("f:")
			b.WriteString(strconv.FormatFloat(float64(t), 'b', -1, 64))
		default:
			b.WriteString("n:") // nil element
		}
		b.WriteByte(',')
	}
	return b.String()
}
