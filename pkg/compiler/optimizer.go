package compiler

// isSimpleValue reports whether inst is a single instruction that pushes
// exactly one value and touches nothing else on the stack, the condition
// under which the Mul;<b>;Add -> <b>;MulAdd fusion below is safe to apply
// across it.
func isSimpleValue(inst Instruction) bool {
	switch inst.(type) {
	case PushLiteral, LoadName, LocalLoad, PushNode:
		return true
	default:
		return false
	}
}

func isNullLiteral(inst Instruction) bool {
	lit, ok := inst.(PushLiteral)
	return ok && lit.Value.Len() == 0
}

// Optimize runs the peephole passes spec.md §4.5 describes, to a fixed
// point: Compose;Compose and Compose;Append/Prepend fuse their counts,
// Mul;<b>;Add fuses into MulAdd, and a Literal(null) directly feeding
// AppendRoot/Append/Prepend is dropped (appending nothing is a no-op).
func Optimize(code []Instruction) []Instruction {
	for {
		next, changed := optimizePass(code)
		code = next
		if !changed {
			return code
		}
	}
}

func optimizePass(code []Instruction) ([]Instruction, bool) {
	out := make([]Instruction, 0, len(code))
	changed := false

	for i := 0; i < len(code); i++ {
		// Compose(n); Compose(m) -> Compose(n+m-1)
		if a, ok := code[i].(Compose); ok && i+1 < len(code) {
			if b, ok := code[i+1].(Compose); ok {
				out = append(out, Compose{K: a.K + b.K - 1})
				i++
				changed = true
				continue
			}
			if b, ok := code[i+1].(Append); ok {
				out = append(out, Append{K: a.K + b.K - 1})
				i++
				changed = true
				continue
			}
			if b, ok := code[i+1].(Prepend); ok {
				out = append(out, Prepend{K: a.K + b.K - 1})
				i++
				changed = true
				continue
			}
		}

		// Literal(null); AppendRoot -> (nothing)
		if isNullLiteral(code[i]) && i+1 < len(code) {
			if _, ok := code[i+1].(AppendRoot); ok {
				i++
				changed = true
				continue
			}
			if b, ok := code[i+1].(Append); ok {
				out = append(out, Append{K: b.K - 1})
				i++
				changed = true
				continue
			}
			if b, ok := code[i+1].(Prepend); ok {
				out = append(out, Prepend{K: b.K - 1})
				i++
				changed = true
				continue
			}
		}

		// Mul; <simple b>; Add -> <simple b>; MulAdd
		if _, ok := code[i].(Mul); ok && i+2 < len(code) && isSimpleValue(code[i+1]) {
			if _, ok := code[i+2].(Add); ok {
				out = append(out, code[i+1], MulAdd{})
				i += 2
				changed = true
				continue
			}
		}

		out = append(out, code[i])
	}

	return out, changed
}
