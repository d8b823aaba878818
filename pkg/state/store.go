// Package state implements Flitter's persistent key->vector Store and the
// per-run Context that the virtual machine reads and writes while
// evaluating one frame (spec.md §3).
package state

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/flitter-run/flitter/pkg/value"
)

// Store is a persistent mapping from a Vector key to a Vector value,
// surviving across frames (spec.md §3). Readers get a copy-safe value
// (Vector is never mutated in place); writers replace entries atomically
// from the perspective of one frame.
type Store struct {
	mu      sync.RWMutex
	entries map[string]value.Vector
}

// NewStore returns an empty, ready-to-use Store.
func NewStore() *Store {
	return &Store{entries: map[string]value.Vector{}}
}

// Get returns the vector bound to key, or value.Null if unset (spec.md
// §4.6: "Lookup / LookupLiteral v | replace top / push state[top] else
// null").
func (s *Store) Get(key value.Vector) value.Vector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[stateKey(key)]
	if !ok {
		return value.Null
	}
	return v
}

// Set binds key to v.
func (s *Store) Set(key value.Vector, v value.Vector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[stateKey(key)] = v
}

// stateKey computes a deterministic hash key from a Vector's element bytes
// (numeric) or object identity (object), per spec.md §6 ("State keys").
// Open Question (b) resolved: -0.0 canonicalises to 0.0, so two keys built
// from `0.0/-1` and `-0.0` collide, and every NaN formats as "NaN" whatever
// its sign or payload, so all NaN elements share one key and a NaN key
// finds the value stored under it.
func stateKey(v value.Vector) string {
	var b strings.Builder
	if v.IsNumeric() {
		b.WriteByte('N')
		for _, n := range v.Numbers() {
			if n == 0 {
				n = 0 // canonicalise -0.0 -> 0.0
			}
			b.WriteByte('|')
			b.WriteString(strconv.FormatFloat(canonicalizeFloat(n), 'b', -1, 64))
		}
		return b.String()
	}

	b.WriteByte('O')
	for _, o := range v.Objects() {
		b.WriteByte('|')
		switch t := o.(type) {
		case value.Str:
			b.WriteString("s:")
			b.WriteString(string(t))
		case value.Float:
			b.WriteString("f:")
			b.WriteString(strconv.FormatFloat(canonicalizeFloat(float64(t)), 'b', -1, 64))
		default:
			// Object identity (node, function, ...): the object's Go
			// pointer address, which is stable for the lifetime of a run.
			b.WriteString(fmt.Sprintf("p:%p", o))
		}
	}
	return b.String()
}

func canonicalizeFloat(n float64) float64 {
	if n == 0 {
		return 0
	}
	return n
}
