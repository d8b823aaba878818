package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flitter-run/flitter/internal/utils"
)

func TestStackPushPop(t *testing.T) {
	stack := utils.NewStack[int](1, 2, 3)

	t.Run("Top does not remove", func(t *testing.T) {
		top, err := stack.Top()
		assert.NoError(t, err)
		assert.Equal(t, 3, top)
		assert.Equal(t, 3, stack.Count())
	})

	t.Run("Pop removes in LIFO order", func(t *testing.T) {
		top, err := stack.Pop()
		assert.NoError(t, err)
		assert.Equal(t, 3, top)
		assert.Equal(t, 2, stack.Count())
	})

	t.Run("At addresses by depth from top", func(t *testing.T) {
		v, err := stack.At(0)
		assert.NoError(t, err)
		assert.Equal(t, 2, v)
		v, err = stack.At(1)
		assert.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("Pop on empty stack fails", func(t *testing.T) {
		empty := utils.Stack[int]{}
		_, err := empty.Pop()
		assert.Error(t, err)
	})
}

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	om := utils.NewOrderedMap[string, int]()
	om.Set("z", 1)
	om.Set("a", 2)
	om.Set("z", 3) // update, should not move "z"

	assert.Equal(t, []string{"z", "a"}, om.Keys())
	v, found := om.Get("z")
	assert.True(t, found)
	assert.Equal(t, 3, v)

	om.Delete("z")
	assert.Equal(t, []string{"a"}, om.Keys())
}
