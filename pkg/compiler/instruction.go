// Package compiler lowers a simplified ast.Expr into a linear Instruction
// list (spec.md §4.4), peephole-optimises and links it (§4.5), and exposes
// the result as a Program the virtual machine can run (§4.6).
package compiler

import (
	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/value"
)

// Instruction is implemented by every opcode this package emits. Following
// the teacher's vm.Operation/asm.Instruction convention, it is a bare
// marker interface: every concrete opcode is its own struct and the VM
// (like the teacher's CodeGenerator/Lowerer) type-switches on it rather
// than calling a method on the interface.
type Instruction interface{}

// ----------------------------------------------------------------------------
// Stack manipulation

// PushLiteral pushes a constant Vector.
type PushLiteral struct{ Value value.Vector }

// PushNode pushes a fresh single-element object vector wrapping a copy of
// Node, so two evaluations of the same NodeExpr never alias.
type PushNode struct{ Node *node.Node }

// Dup duplicates the top of the value stack.
type Dup struct{}

// Drop pops K values off the value stack, discarding them.
type Drop struct{ K int }

// ----------------------------------------------------------------------------
// Name resolution

// LoadName resolves S by the runtime fallback chain: program globals →
// static then dynamic builtins → node scope. Locals are not searched; the
// compiler emits LocalLoad for names it knows to be local.
type LoadName struct{ S string }

// LocalLoad pushes a copy of the local K slots below the top of the locals
// stack (0 = most recently bound).
type LocalLoad struct{ K int }

// LocalPush pops N values off the value stack and binds them, in reverse
// order, as new locals.
type LocalPush struct{ N int }

// LocalDrop unbinds the N most recently bound locals.
type LocalDrop struct{ N int }

// StoreGlobal moves the top of the value stack into the program's
// variables map under S.
type StoreGlobal struct{ S string }

// ----------------------------------------------------------------------------
// State

// Lookup replaces the top of the value stack with state[top] (or Null).
type Lookup struct{}

// LookupLiteral pushes state[Key] (or Null) without consuming the stack.
type LookupLiteral struct{ Key value.Vector }

// ----------------------------------------------------------------------------
// Ranges and arithmetic

// MakeRange pops step, stop, start (in that order) and pushes FillRange's
// result.
type MakeRange struct{}

// Add/Sub/Mul/TrueDiv/FloorDiv/Mod/Pow are distinct opcodes (rather than a
// single MathsOp payload) so the peephole optimiser can pattern-match
// Mul;Add -> MulAdd without inspecting a function value.
type Add struct{}
type Sub struct{}
type Mul struct{}
type TrueDiv struct{}
type FloorDiv struct{}
type Mod struct{}
type Pow struct{}
type MulAdd struct{}

type Eq struct{}
type Ne struct{}
type Lt struct{}
type Le struct{}
type Gt struct{}
type Ge struct{}
type Xor struct{}

type Not struct{}
type Neg struct{}
type Pos struct{}

// ----------------------------------------------------------------------------
// Slicing

// Slice pops idx then target, pushes target.Slice(idx).
type Slice struct{}

// SliceLiteral pops target, pushes target.FastSlice(Index).
type SliceLiteral struct{ Index []float64 }

// IndexLiteral pops target, pushes target.IndexLiteral(Index).
type IndexLiteral struct{ Index int }

// ----------------------------------------------------------------------------
// Calls and functions

// Call pops a callable vector, then one keyword value per name in Names,
// then K positional args, and applies the callable per spec.md §4.6's
// call-dispatch contract.
type Call struct {
	K     int
	Names []string
}

// CallFast invokes a statically-known builtin by name directly, skipping
// the generic callable-vector dispatch (spec.md §4.4: "calls to a literal
// single callable without keyword arguments").
type CallFast struct {
	Name string
	K    int
}

// Func pops, for each parameter with a default, a default-value Vector (in
// parameter order), and pushes a new *value.Function value whose body is
// the Body program carried by the instruction (spec.md §4.6).
type Func struct {
	Name       string
	Parameters []string
	HasDefault []bool
	Body       *Program
}

// ----------------------------------------------------------------------------
// Node construction

// TagNode applies Tags to every node in the top-of-stack vector.
type TagNode struct{ Tags []string }

// SetAttribute pops a value then sets it as attribute S on every node in the
// (now) top-of-stack vector.
type SetAttribute struct{ S string }

// Append pops K child vectors then a target node vector, attaching the
// composed children as new last-children (spec.md §4.6).
type Append struct{ K int }

// Prepend is Append's first-child mirror.
type Prepend struct{ K int }

// AppendRoot pops a vector and attaches it to the current graph root,
// silently skipping nodes already attached elsewhere (spec.md §9 (a)).
type AppendRoot struct{}

// Compose pops K vectors and pushes their concatenation.
type Compose struct{ K int }

// ----------------------------------------------------------------------------
// Loops

// BeginFor pops a source vector and pushes a new loop-stack frame.
type BeginFor struct{}

// Next binds the current loop frame's next K elements as locals and
// branches to Label when the frame is exhausted.
type Next struct {
	K     int
	Label string
	Offset int
}

// PushNext pushes the current loop body's result onto an accumulator and
// branches to Label to continue the loop.
type PushNext struct {
	Label  string
	Offset int
}

// EndFor pops the current loop-stack frame without composing a result.
type EndFor struct{}

// EndForCompose pops the current loop-stack frame and pushes the
// composition of every accumulated iteration result.
type EndForCompose struct{}

// ----------------------------------------------------------------------------
// Node scope

// SetNodeScope pushes an attribute-map name-resolution fallback sourced
// from the node under construction.
type SetNodeScope struct{}

// ClearNodeScope pops the current node-scope fallback.
type ClearNodeScope struct{}

// ----------------------------------------------------------------------------
// Search, imports, pragmas

// SearchQuery scans the graph for nodes matching Query and pushes the
// resulting vector.
type SearchQuery struct{ Query *node.Query }

// ImportNames pops a filename Vector, loads/runs the referenced module via
// the host SourceLoader, and pushes the requested Names as new locals.
type ImportNames struct{ Names []string }

// SetPragma pops a value and sets pragmas[S].
type SetPragma struct{ S string }

// ----------------------------------------------------------------------------
// Control flow and labels

// Label marks a jump target; the linker resolves every Jump/BranchTrue/
// BranchFalse referencing Name to a relative offset and removes Label
// instructions from the final program.
type Label struct{ Name string }

// Jump unconditionally transfers control; Offset is filled in by the
// linker (spec.md §4.5: "pc += offset after the fetch").
type Jump struct {
	To     string
	Offset int
}

// BranchTrue pops the top of the value stack and jumps if it was truthy.
type BranchTrue struct {
	To     string
	Offset int
}

// BranchFalse pops the top of the value stack and jumps if it was falsy.
type BranchFalse struct {
	To     string
	Offset int
}
