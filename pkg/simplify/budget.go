// Package simplify implements Flitter's partial evaluator (spec.md §4.3): it
// walks the AST with a variables mapping (values, aliases, or known
// functions) and returns a simpler, semantically equivalent AST — folding
// constants, rewriting algebraic identities, unrolling literal-source loops,
// inlining calls to known single-definition functions, and dropping dead
// `let` bindings.
package simplify

import "github.com/flitter-run/flitter/internal/config"

// Budget caps how much work a single Simplify call will do chasing loop
// unrolling and call inlining, so that combining the two can't blow up code
// size unboundedly (spec.md §9, "Partial evaluation termination"). Once a
// cap is hit, the offending For/Call node is left as-is instead of being
// expanded further.
type Budget struct {
	MaxUnrollIterations int
	MaxInlineDepth      int
}

// DefaultBudget returns the budget implied by internal/config's defaults.
func DefaultBudget() Budget {
	cfg := config.Default()
	return Budget{
		MaxUnrollIterations: cfg.MaxUnrollIterations,
		MaxInlineDepth:      cfg.MaxInlineDepth,
	}
}

// FromConfig adapts an internal/config.Config into a Budget.
func FromConfig(cfg config.Config) Budget {
	return Budget{
		MaxUnrollIterations: cfg.MaxUnrollIterations,
		MaxInlineDepth:      cfg.MaxInlineDepth,
	}
}
