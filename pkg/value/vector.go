// Package value implements Flitter's universal runtime value: a Vector that
// is either a densely-packed numeric array or a boxed list of heterogeneous
// objects (strings, nodes, callables, sub-programs). All arithmetic,
// comparison, slicing and composition used by the partial evaluator, the
// compiler and the virtual machine is defined here (spec.md §3, §4.1).
package value

import "math"

// Kind discriminates a Vector's backing storage.
type Kind uint8

const (
	// Numeric vectors are backed by a packed []float64, used whenever every
	// element is a finite or infinite number (NaN included).
	Numeric Kind = iota
	// Objects vectors are backed by a slice of heterogeneous Object values.
	Objects
)

// inlineCap bounds how large a Vector may be and still qualify for
// Intern's structural-equality cache (spec.md §9: "up to 16 inline
// numbers"). Vector itself has no small-buffer optimisation — Numeric and
// Objects are both plain slices regardless of length; this constant only
// gates whether Intern bothers computing a structural key for v.
const inlineCap = 16

// Object is implemented by every value that can live inside an
// Objects-kind Vector: strings, nodes, functions, and host-provided
// sub-programs. It is deliberately minimal so pkg/value never needs to
// import pkg/node or pkg/compiler — those packages implement Object on
// their own concrete types instead, keeping the dependency graph acyclic.
type Object interface {
	// ObjectTruthy reports whether this object counts as truthy per
	// spec.md §3 ("non-empty string / live node / other object").
	ObjectTruthy() bool
	// ObjectEqual reports structural equality with another Object.
	// Implementations should return false for a dynamic type mismatch
	// rather than panicking.
	ObjectEqual(other Object) bool
}

// Vector is the tagged value described in spec.md §3. The zero Vector is
// Null (length 0, Numeric kind).
type Vector struct {
	kind    Kind
	numbers []float64
	objects []Object
}

// Canonical singletons (spec.md §3). These are safe to share because
// Vector itself is never mutated in place; every operation returns a new
// Vector.
var (
	Null      = Vector{kind: Numeric}
	True      = Vector{kind: Numeric, numbers: []float64{1}}
	False     = Vector{kind: Numeric, numbers: []float64{0}}
	MinusOne  = Vector{kind: Numeric, numbers: []float64{-1}}
)

// NewNumber builds a length-1 numeric Vector.
func NewNumber(n float64) Vector { return Vector{kind: Numeric, numbers: []float64{n}} }

// NewNumbers builds a numeric Vector from a finite sequence of floats. The
// slice is copied so callers may reuse their backing array.
func NewNumbers(ns []float64) Vector {
	if len(ns) == 0 {
		return Null
	}
	cp := make([]float64, len(ns))
	copy(cp, ns)
	return Vector{kind: Numeric, numbers: cp}
}

// NewObjects builds an Objects Vector from a sequence of Object values.
func NewObjects(os []Object) Vector {
	if len(os) == 0 {
		return Null
	}
	cp := make([]Object, len(os))
	copy(cp, os)
	return Vector{kind: Objects, objects: cp}
}

// NewObject builds a length-1 Objects Vector.
func NewObject(o Object) Vector { return Vector{kind: Objects, objects: []Object{o}} }

// Bool returns True or False for b, matching spec.md's canonical singletons.
func Bool(b bool) Vector {
	if b {
		return True
	}
	return False
}

// Kind reports whether v is backed by numbers or objects.
func (v Vector) Kind() Kind { return v.kind }

// Len returns the vector's length.
func (v Vector) Len() int {
	if v.kind == Numeric {
		return len(v.numbers)
	}
	return len(v.objects)
}

// IsNumeric reports whether v is a Numeric-kind vector.
func (v Vector) IsNumeric() bool { return v.kind == Numeric }

// Numbers returns the backing float64 slice for a Numeric vector (empty for
// an Objects vector). The caller must not mutate the returned slice.
func (v Vector) Numbers() []float64 { return v.numbers }

// Objects returns the backing Object slice for an Objects vector (empty for
// a Numeric vector). The caller must not mutate the returned slice.
func (v Vector) Objects() []Object { return v.objects }

// At returns the numeric element at i (panics on out-of-range i), used by
// callers that already validated the vector's kind and length.
func (v Vector) At(i int) float64 { return v.numbers[i] }

// ObjectAt returns the object element at i.
func (v Vector) ObjectAt(i int) Object { return v.objects[i] }

// IsTruthy reports whether v is truthy per spec.md §3: non-empty and at
// least one element is non-zero (numeric) or a truthy object.
func (v Vector) IsTruthy() bool {
	if v.Len() == 0 {
		return false
	}
	if v.kind == Numeric {
		for _, n := range v.numbers {
			if n != 0 {
				return true
			}
		}
		return false
	}
	for _, o := range v.objects {
		if o != nil && o.ObjectTruthy() {
			return true
		}
	}
	return false
}

// Equal reports whether v and other have the same kind and element-wise
// equal elements. A numeric and an object vector are never equal, even
// when their elements would coerce equal.
func (v Vector) Equal(other Vector) bool {
	if v.kind != other.kind {
		return false
	}
	if v.Len() != other.Len() {
		return false
	}
	if v.kind == Numeric {
		for i := range v.numbers {
			if !numEqual(v.numbers[i], other.numbers[i]) {
				return false
			}
		}
		return true
	}
	for i := range v.objects {
		a, b := v.objects[i], other.objects[i]
		if a == nil || b == nil {
			if a != b {
				return false
			}
			continue
		}
		if !a.ObjectEqual(b) {
			return false
		}
	}
	return true
}

func numEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

// Compose concatenates a sequence of vectors (spec.md §4.1), preserving the
// numeric-packed representation when every input is numeric; otherwise the
// result widens to an Objects vector (boxing numeric scalars as needed, see
// Float in object.go).
func Compose(vs []Vector) Vector {
	if len(vs) == 0 {
		return Null
	}

	allNumeric := true
	total := 0
	for _, v := range vs {
		total += v.Len()
		if v.kind != Numeric {
			allNumeric = false
		}
	}
	if total == 0 {
		return Null
	}

	if allNumeric {
		out := make([]float64, 0, total)
		for _, v := range vs {
			out = append(out, v.numbers...)
		}
		return Vector{kind: Numeric, numbers: out}
	}

	out := make([]Object, 0, total)
	for _, v := range vs {
		if v.kind == Numeric {
			for _, n := range v.numbers {
				out = append(out, Float(n))
			}
			continue
		}
		out = append(out, v.objects...)
	}
	return Vector{kind: Objects, objects: out}
}
