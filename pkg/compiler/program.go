package compiler

// Program is a linked, peephole-optimised instruction stream: either a
// whole top-level translation unit or a function body's nested unit
// (spec.md §4.4, "the body as a nested program which itself is
// optimised/linked"). *Program implements value.Callable so a
// *value.Function can hold one as its Body without pkg/value importing
// pkg/compiler.
type Program struct {
	Path         string
	Parameters   []string
	Instructions []Instruction
}

// Arity implements value.Callable.
func (p *Program) Arity() int { return len(p.Parameters) }
