package value

import "math"

// Str is a string held inside an Objects vector.
type Str string

func (s Str) ObjectTruthy() bool { return len(s) > 0 }

func (s Str) ObjectEqual(other Object) bool {
	o, ok := other.(Str)
	return ok && s == o
}

// Float is a boxed numeric scalar, produced when Compose widens a numeric
// input into an Objects vector alongside genuinely heterogeneous elements
// (spec.md §4.1: "compose(vs) concatenates ... preserving numeric-packed
// representation when all inputs are numeric" — implying that when it
// can't, numeric elements still need a faithful Object representation).
type Float float64

func (f Float) ObjectTruthy() bool { return float64(f) != 0 }

func (f Float) ObjectEqual(other Object) bool {
	o, ok := other.(Float)
	if !ok {
		return false
	}
	if math.IsNaN(float64(f)) && math.IsNaN(float64(o)) {
		return true
	}
	return f == o
}

// Callable is implemented by whatever a Function's Body holds once
// compiled. pkg/compiler's *Program implements it so the VM can invoke a
// Function without pkg/value importing pkg/compiler (which would cycle,
// since Instruction payloads reference Vector).
type Callable interface {
	// Arity returns the number of parameters the callable program expects.
	Arity() int
}

// Function is a first-class callable value: name, ordered parameters,
// per-parameter defaults, a compiled body, a captured locals snapshot, and
// the root path of its definition site (spec.md §3).
type Function struct {
	Name       string
	Parameters []string
	Defaults   []Vector // one per parameter; Null if absent
	Body       Callable
	Locals     []Vector // snapshot of the locals stack at definition time
	Path       string
}

// NewFunction builds a Function value. locals is copied defensively so a
// later mutation of the caller's locals stack cannot retroactively change a
// previously captured closure (spec.md §9: "Persistent locals snapshot for
// functions").
func NewFunction(name string, params []string, defaults []Vector, body Callable, locals []Vector, path string) *Function {
	capturedLocals := make([]Vector, len(locals))
	copy(capturedLocals, locals)
	capturedDefaults := make([]Vector, len(defaults))
	copy(capturedDefaults, defaults)
	return &Function{
		Name:       name,
		Parameters: append([]string(nil), params...),
		Defaults:   capturedDefaults,
		Body:       body,
		Locals:     capturedLocals,
		Path:       path,
	}
}

func (f *Function) ObjectTruthy() bool { return true }

func (f *Function) ObjectEqual(other Object) bool {
	o, ok := other.(*Function)
	return ok && f == o
}
