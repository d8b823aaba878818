package value

import "math"

// BinaryOp is the pairwise element-wise numeric operation applied by Add,
// Sub, and friends (spec.md §4.1).
type BinaryOp func(a, b float64) float64

// broadcastLengths computes the output length for two operands per spec.md
// §4.1: broadcast a length-1 operand over any length, and more generally
// cycle the shorter over the longer when the longer is a multiple of the
// shorter; any other mismatch yields "not broadcastable".
func broadcastLengths(a, b int) (n int, ok bool) {
	switch {
	case a == b:
		return a, true
	case a == 1:
		return b, true
	case b == 1:
		return a, true
	case a == 0 || b == 0:
		return 0, false
	case a > b && a%b == 0:
		return a, true
	case b > a && b%a == 0:
		return b, true
	default:
		return 0, false
	}
}

// elementwise applies op pairwise across a and b with broadcasting/cycling;
// non-numeric operands or incompatible shapes yield Null (spec.md §4.1: "the
// result is null"), a Shape error per spec.md §7 (silent, not recorded).
func elementwise(a, b Vector, op BinaryOp) Vector {
	if a.kind != Numeric || b.kind != Numeric {
		return Null
	}
	n, ok := broadcastLengths(a.Len(), b.Len())
	if !ok {
		return Null
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = op(a.numbers[i%a.Len()], b.numbers[i%b.Len()])
	}
	return Vector{kind: Numeric, numbers: out}
}

// Add implements elementwise a+b.
func Add(a, b Vector) Vector { return elementwise(a, b, func(x, y float64) float64 { return x + y }) }

// Sub implements elementwise a-b.
func Sub(a, b Vector) Vector { return elementwise(a, b, func(x, y float64) float64 { return x - y }) }

// Mul implements elementwise a*b.
func Mul(a, b Vector) Vector { return elementwise(a, b, func(x, y float64) float64 { return x * y }) }

// TrueDiv implements elementwise a/b with IEEE division-by-zero semantics
// (±inf / NaN, spec.md §4.1).
func TrueDiv(a, b Vector) Vector {
	return elementwise(a, b, func(x, y float64) float64 { return x / y })
}

// FloorDiv implements elementwise floor(a/b) with flooring semantics
// following the sign of the divisor (spec.md §4.1).
func FloorDiv(a, b Vector) Vector {
	return elementwise(a, b, func(x, y float64) float64 { return math.Floor(x / y) })
}

// Mod implements elementwise modulo with flooring semantics (sign of the
// divisor), matching Python's `%` rather than Go's `math.Mod`.
func Mod(a, b Vector) Vector {
	return elementwise(a, b, func(x, y float64) float64 {
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		}
		return r
	})
}

// Pow implements elementwise a**b.
func Pow(a, b Vector) Vector { return elementwise(a, b, math.Pow) }

// MulAdd implements a fused multiply-add: self*a + b, using the same
// broadcasting rule and preserving numeric packing (spec.md §4.1).
func MulAdd(self, a, b Vector) Vector { return Add(Mul(self, a), b) }

// Neg implements elementwise unary negation; non-numeric input yields Null.
func Neg(v Vector) Vector {
	if v.kind != Numeric {
		return Null
	}
	out := make([]float64, v.Len())
	for i, n := range v.numbers {
		out[i] = -n
	}
	return Vector{kind: Numeric, numbers: out}
}

// Pos implements unary "+", a no-op for numeric vectors and Null otherwise.
func Pos(v Vector) Vector {
	if v.kind != Numeric {
		return Null
	}
	return v
}

// Not implements logical negation: pushes the boolean opposite of
// v.IsTruthy().
func Not(v Vector) Vector { return Bool(!v.IsTruthy()) }

// FillRange implements spec.md §4.1's `fill_range`: a numeric vector of
// length max(0, ceil((stop-start)/step)), honouring step's sign; a zero
// step yields Null.
func FillRange(start, stop, step float64) Vector {
	if step == 0 {
		return Null
	}
	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return Null
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = start + step*float64(i)
	}
	return Vector{kind: Numeric, numbers: out}
}
