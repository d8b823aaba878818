package compiler

import "fmt"

// Link resolves every label reference to a relative offset and strips
// Label marker instructions from the stream (spec.md §4.5: "Linker scans
// the list, records label addresses, and for each jump instruction sets
// the signed offset so execution can advance by pc += offset after the
// fetch").
func Link(code []Instruction) ([]Instruction, error) {
	positions := map[string]int{}
	stripped := make([]Instruction, 0, len(code))
	for _, inst := range code {
		if lbl, ok := inst.(Label); ok {
			positions[lbl.Name] = len(stripped)
			continue
		}
		stripped = append(stripped, inst)
	}

	resolved := make([]Instruction, len(stripped))
	for i, inst := range stripped {
		switch t := inst.(type) {
		case Jump:
			off, err := relativeOffset(positions, t.To, i)
			if err != nil {
				return nil, err
			}
			resolved[i] = Jump{To: t.To, Offset: off}
		case BranchTrue:
			off, err := relativeOffset(positions, t.To, i)
			if err != nil {
				return nil, err
			}
			resolved[i] = BranchTrue{To: t.To, Offset: off}
		case BranchFalse:
			off, err := relativeOffset(positions, t.To, i)
			if err != nil {
				return nil, err
			}
			resolved[i] = BranchFalse{To: t.To, Offset: off}
		case Next:
			off, err := relativeOffset(positions, t.Label, i)
			if err != nil {
				return nil, err
			}
			resolved[i] = Next{K: t.K, Label: t.Label, Offset: off}
		case PushNext:
			off, err := relativeOffset(positions, t.Label, i)
			if err != nil {
				return nil, err
			}
			resolved[i] = PushNext{Label: t.Label, Offset: off}
		default:
			resolved[i] = inst
		}
	}
	return resolved, nil
}

func relativeOffset(positions map[string]int, label string, from int) (int, error) {
	target, ok := positions[label]
	if !ok {
		return 0, fmt.Errorf("compiler: unresolved label %q", label)
	}
	return target - (from + 1), nil
}
