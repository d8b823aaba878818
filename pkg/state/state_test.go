package state_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flitter-run/flitter/pkg/state"
	"github.com/flitter-run/flitter/pkg/value"
)

func TestStoreRoundTrip(t *testing.T) {
	store := state.NewStore()
	key := value.NewObjects([]value.Object{value.Str("foo")})

	assert.Equal(t, value.Null, store.Get(key))

	store.Set(key, value.NewNumber(7))
	assert.Equal(t, []float64{7}, store.Get(key).Numbers())
}

func TestStoreKeyCanonicalisesNegativeZero(t *testing.T) {
	store := state.NewStore()
	store.Set(value.NewNumber(0), value.NewNumber(1))
	assert.Equal(t, []float64{1}, store.Get(value.NewNumber(math0())).Numbers())
}

func math0() float64 { return math.Copysign(0, -1) } // -0.0

func TestContextChildSharesMutableState(t *testing.T) {
	store := state.NewStore()
	root := state.New(store, "main.flitter", nil)
	root.AddError("boom")

	child := root.Child("lib.flitter")
	child.AddError("kaboom")

	assert.Contains(t, root.Errors, "kaboom")
	assert.True(t, child.HasAncestorPath("main.flitter"))
	assert.False(t, root.HasAncestorPath("lib.flitter"))
}

func TestPragmaDefaultsAreOverwritable(t *testing.T) {
	ctx := state.New(state.NewStore(), "main.flitter", map[string]value.Vector{"fps": value.NewNumber(60)})
	assert.Equal(t, []float64{60}, ctx.Pragmas["fps"].Numbers())
	ctx.SetPragma("fps", value.NewNumber(30))
	assert.Equal(t, []float64{30}, ctx.Pragmas["fps"].Numbers())
}
