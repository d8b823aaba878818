package value

import "math"

// Slice implements spec.md §4.1: for each element i of idx (floored to
// integer) pick v[i mod n] if 0 <= i < n, else the element-type zero; the
// result has length idx.Len() and is numeric iff v is numeric. idx must be
// numeric; a non-numeric idx yields Null.
func (v Vector) Slice(idx Vector) Vector {
	if idx.kind != Numeric {
		return Null
	}
	n := v.Len()

	if v.kind == Numeric {
		out := make([]float64, idx.Len())
		for k, raw := range idx.numbers {
			i := int(math.Floor(raw))
			if n > 0 && i >= 0 && i < n {
				out[k] = v.numbers[i]
			} else {
				out[k] = 0
			}
		}
		return Vector{kind: Numeric, numbers: out}
	}

	out := make([]Object, idx.Len())
	for k, raw := range idx.numbers {
		i := int(math.Floor(raw))
		if n > 0 && i >= 0 && i < n {
			out[k] = v.objects[i]
		} else {
			out[k] = nil
		}
	}
	return Vector{kind: Objects, objects: out}
}

// FastSlice is Slice specialised for a literal index vector known at
// compile time; the partial evaluator lowers `Slice(e, literal)` to this
// form (spec.md §4.3) and the compiler emits a dedicated SliceLiteral
// instruction for it, avoiding re-building the index vector every frame.
func (v Vector) FastSlice(idx []float64) Vector {
	return v.Slice(NewNumbers(idx))
}

// IndexLiteral slices v down to its single element at integer index i,
// following the same modulo/zero rule as Slice (used by the compiler's
// `IndexLiteral` instruction, spec.md §4.6).
func (v Vector) IndexLiteral(i int) Vector {
	return v.Slice(NewNumber(float64(i)))
}
