// Package ast defines Flitter's expression tree (spec.md §4, "AST"): the
// literal/name/range/operator/control-flow/node-construction expressions
// produced by the external parser and consumed by the partial evaluator and
// the compiler.
//
// Following the teacher's convention for its own macro-operation trees
// (asm.Statement, vm.Operation, jack.Statement/Expression), Expr is a bare
// marker interface; every concrete node is a plain struct and callers
// type-switch on it. There is no behaviour on these types themselves —
// pkg/simplify and pkg/compiler own all of the logic that walks them.
package ast

import (
	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/value"
)

// Expr is implemented by every Flitter expression node.
type Expr interface{}

// Top is the root of a parsed program: conventionally a *Sequence, but any
// Expr is accepted since a one-expression program is a degenerate sequence.
type Top = Expr

// ----------------------------------------------------------------------------
// Literals and names

// Literal carries a constant Vector, already fully evaluated. Produced
// directly by the parser for numeric/string constants, and by the partial
// evaluator whenever a subtree folds to a constant (spec.md §4.3).
type Literal struct{ Value value.Vector }

// Name references a binding resolved at runtime: a local (by lexical
// position), a program global, a builtin, or the current node scope
// (spec.md §4.6, "Name resolution order").
type Name struct{ Name string }

// FunctionName is what a Name simplifies to when it is known (at partial
// evaluation time) to be bound to a single-definition Function; it stays
// symbolic precisely so that a surrounding Call can recognise and inline it
// (spec.md §4.3, "Name... becomes FunctionName").
type FunctionName struct{ Name string }

// ----------------------------------------------------------------------------
// Ranges, unary/binary/comparison/logical operators

// Range is `start..stop|step`; all three sub-expressions are optional at
// the grammar level but required once lowered here (the parser fills in the
// implicit default start=0/step=1).
type Range struct{ Start, Stop, Step Expr }

// Negative is unary "-rhs".
type Negative struct{ Rhs Expr }

// Positive is unary "+rhs"; spec.md §4.3 calls out that it "strips nested
// Positive/Negative/MathsBinaryOp wrappers" during simplification.
type Positive struct{ Rhs Expr }

// Not is unary logical negation.
type Not struct{ Rhs Expr }

// MathsOp enumerates the pairwise arithmetic operators (spec.md §4.1).
type MathsOp uint8

const (
	OpAdd MathsOp = iota
	OpSub
	OpMul
	OpTrueDiv
	OpFloorDiv
	OpMod
	OpPow
)

// MathsBinaryOp is a pairwise arithmetic operator applied to Lhs and Rhs.
type MathsBinaryOp struct {
	Op       MathsOp
	Lhs, Rhs Expr
}

// CompareOp enumerates the comparison operators (spec.md §4.1).
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// Comparison applies a CompareOp to Lhs and Rhs.
type Comparison struct {
	Op       CompareOp
	Lhs, Rhs Expr
}

// And/Or are short-circuiting logical operators (spec.md §4.3, §8 scenario
// 6).
type And struct{ Lhs, Rhs Expr }
type Or struct{ Lhs, Rhs Expr }

// Xor is logical exclusive-or (spec.md §4.1 "Eq/Ne/Lt/Le/Gt/Ge/Not/Neg/
// Pos/Xor"). Unlike And/Or it cannot short-circuit from either side alone,
// so both operands are always evaluated.
type Xor struct{ Lhs, Rhs Expr }

// ----------------------------------------------------------------------------
// Slicing

// Slice indexes Target by the (generally non-literal) vector Index.
type Slice struct{ Target, Index Expr }

// FastSlice is what the partial evaluator lowers Slice(e, literal) to,
// capturing the literal index vector directly (spec.md §4.3).
type FastSlice struct {
	Target Expr
	Index  []float64
}

// StateRef indexes the persistent Store by Key, evaluating to state[Key] or
// Null if unset (spec.md §4.6 `Lookup`/`LookupLiteral`, §6 "state[...]").
type StateRef struct{ Key Expr }

// ----------------------------------------------------------------------------
// Calls and user functions

// Call applies Callee to Args plus optional keyword arguments (KwNames
// paired positionally with KwArgs).
type Call struct {
	Callee  Expr
	Args    []Expr
	KwNames []string
	KwArgs  []Expr
}

// FunctionDef declares a user function visible to the remainder of the
// enclosing Sequence (spec.md §4.4, "Function emits the default-value
// vectors, the body as a nested program... Func to build a Function value").
type FunctionDef struct {
	Name       string
	Parameters []string
	Defaults   []Expr // one per parameter; nil entry means "no default"
	Body       Expr
}

// ----------------------------------------------------------------------------
// Bindings, loops, conditionals

// Let binds Names to the evaluated Values for the remainder of the
// enclosing Sequence (no explicit body: scoping comes from sequence
// position, spec.md §4.4's lvars-stack compilation model).
type Let struct {
	Names  []string
	Values []Expr
}

// InlineLet binds Names to Values around an explicit Body, produced only by
// the partial evaluator when inlining a call to a known function (spec.md
// §4.3, "inline by producing an InlineLet(body, parameter_bindings)").
type InlineLet struct {
	Names  []string
	Values []Expr
	Body   Expr
}

// For iterates Names over Source, evaluating Body once per binding and
// composing the results (spec.md §4.4, `BeginFor`/`Next`/`EndForCompose`).
type For struct {
	Names  []string
	Source Expr
	Body   Expr
}

// IfBranch is one `condition -> then` arm of an IfElse.
type IfBranch struct{ Condition, Then Expr }

// IfElse evaluates branches in order, taking the first whose Condition is
// truthy; Else (possibly nil, meaning "produces Null") runs if none match.
type IfElse struct {
	Branches []IfBranch
	Else     Expr
}

// ----------------------------------------------------------------------------
// Modules and pragmas

// Import loads Filename (an expression producing a path string) and binds
// Names from the imported module for the remainder of the enclosing
// Sequence (spec.md §4.4, §4.6 "Imports").
type Import struct {
	Filename Expr
	Names    []string
}

// Pragma sets a named directive, passed through verbatim to the host
// (spec.md §6, "Pragmas").
type Pragma struct {
	Name  string
	Value Expr
}

// ----------------------------------------------------------------------------
// Node construction

// NodeExpr constructs a single fresh, attribute-less, tag-less node of the
// given kind each time it is evaluated.
type NodeExpr struct{ Kind string }

// Tag applies Tags to every node produced by Target, passing the (node)
// vector through unchanged otherwise.
type Tag struct {
	Target Expr
	Tags   []string
}

// Attributes sets Names[i] = Values[i] on every node produced by Target.
// While Values are evaluated, the node scope is the node under
// construction, so sibling attribute names resolve as a name-resolution
// fallback (spec.md §4.4, `SetNodeScope`).
type Attributes struct {
	Target Expr
	Names  []string
	Values []Expr
}

// Append adds the composed results of Children as new last-children of
// every node produced by Target (last node keeps the originals, earlier
// nodes receive copies, spec.md §4.6's `Append` instruction).
type Append struct {
	Target   Expr
	Children []Expr
}

// Prepend is Append's mirror for first-children.
type Prepend struct {
	Target   Expr
	Children []Expr
}

// Search evaluates to the vector of nodes found by Query, scanned from the
// current graph root (spec.md §4.2, §4.6 `Search` instruction). Query is
// fully static (built at parse time), matching the fact that Flitter
// queries do not carry dynamic sub-expressions.
type Search struct{ Query *node.Query }

// ----------------------------------------------------------------------------
// Sequencing

// Sequence runs Items in order. A Let/Import/FunctionDef item binds names
// visible to later items in the same Sequence; every other item is a
// produced value that — only at the top level of a Program — also gets
// attached to the graph root (spec.md §4.4, "every non-Let/Import/
// Function/Pragma child of the root emits AppendRoot").
type Sequence struct{ Items []Expr }
