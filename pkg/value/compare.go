package value

// Eq/Ne yield a length-1 True/False Vector (spec.md §4.1).
func Eq(a, b Vector) Vector { return Bool(a.Equal(b)) }
func Ne(a, b Vector) Vector { return Bool(!a.Equal(b)) }

// Xor yields a length-1 True/False Vector: true iff exactly one of a, b is
// truthy (spec.md §4.1). Unlike And/Or this is not short-circuiting, so it
// is a plain binary Vector op rather than a compiler-level branch.
func Xor(a, b Vector) Vector { return Bool(a.IsTruthy() != b.IsTruthy()) }

// compareResult is -1/0/1 (like bytes.Compare) or "incomparable".
type compareResult struct {
	result      int
	comparable  bool
}

// lexicographicCompare compares a and b element by element, in the manner
// of lexicographic string comparison (spec.md §4.1 "lt/le/gt/ge compare
// lexicographically across elements"). Mixed numeric/object vectors are not
// comparable, per spec.
func lexicographicCompare(a, b Vector) compareResult {
	if a.kind != b.kind {
		return compareResult{comparable: false}
	}

	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}

	if a.kind == Numeric {
		for i := 0; i < n; i++ {
			if a.numbers[i] < b.numbers[i] {
				return compareResult{result: -1, comparable: true}
			}
			if a.numbers[i] > b.numbers[i] {
				return compareResult{result: 1, comparable: true}
			}
		}
		return compareResult{result: compareInts(a.Len(), b.Len()), comparable: true}
	}

	for i := 0; i < n; i++ {
		ao, bo := a.objects[i], b.objects[i]
		as, aok := ao.(Str)
		bs, bok := bo.(Str)
		if !aok || !bok {
			return compareResult{comparable: false}
		}
		if as < bs {
			return compareResult{result: -1, comparable: true}
		}
		if as > bs {
			return compareResult{result: 1, comparable: true}
		}
	}
	return compareResult{result: compareInts(a.Len(), b.Len()), comparable: true}
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Lt/Le/Gt/Ge implement the ordered comparisons described by spec.md §4.1.
// An incomparable pair (mismatched kinds, or non-string objects) is false.
func Lt(a, b Vector) Vector {
	c := lexicographicCompare(a, b)
	return Bool(c.comparable && c.result < 0)
}

func Le(a, b Vector) Vector {
	c := lexicographicCompare(a, b)
	return Bool(c.comparable && c.result <= 0)
}

func Gt(a, b Vector) Vector {
	c := lexicographicCompare(a, b)
	return Bool(c.comparable && c.result > 0)
}

func Ge(a, b Vector) Vector {
	c := lexicographicCompare(a, b)
	return Bool(c.comparable && c.result >= 0)
}
