package vm

import (
	"github.com/flitter-run/flitter/pkg/compiler"
	"github.com/flitter-run/flitter/pkg/value"
)

// loopFrame is one BeginFor activation on the loop stack (spec.md §4.6): the
// source vector being iterated, the read position, and the accumulated
// per-iteration results EndForCompose concatenates.
type loopFrame struct {
	source  value.Vector
	pos     int
	bound   int // number of locals currently bound for the in-flight iteration
	results []value.Vector
}

// execNext implements the Next instruction: it first unbinds the previous
// iteration's locals (if any), then either binds the next K elements as new
// locals and falls through into the loop body, or finds the frame exhausted
// and branches to Label (spec.md §4.6: "binds iteration variables into the
// locals and branches on exhaustion").
func (m *Machine) execNext(inst compiler.Next) (jumped bool, err error) {
	frame, err := m.loops.Top()
	if err != nil {
		return false, err
	}
	if frame.bound > 0 {
		if err := m.locals.Drop(frame.bound); err != nil {
			return false, err
		}
		frame.bound = 0
	}

	if frame.pos+inst.K > frame.source.Len() {
		return true, nil
	}

	for i := 0; i < inst.K; i++ {
		m.locals.Push(frame.source.IndexLiteral(frame.pos + i))
	}
	frame.pos += inst.K
	frame.bound = inst.K
	return false, nil
}

// execPushNext implements PushNext: pop the loop body's single result value
// and accumulate it for the closing EndForCompose.
func (m *Machine) execPushNext() error {
	frame, err := m.loops.Top()
	if err != nil {
		return err
	}
	result, err := m.values.Pop()
	if err != nil {
		return err
	}
	frame.results = append(frame.results, result)
	return nil
}
