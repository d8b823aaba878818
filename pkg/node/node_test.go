package node_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flitter-run/flitter/pkg/node"
	"github.com/flitter-run/flitter/pkg/value"
)

func TestAppendRootSkipsReattachment(t *testing.T) {
	root := node.New("root")
	child := node.New("dot")
	other := node.New("other")

	root.AppendRoot(child)
	other.AppendRoot(child) // child already has a parent: silently skipped

	assert.Equal(t, root, child.Parent())
	assert.Empty(t, other.Children())
}

func TestAppendCopiesAlreadyOwnedChild(t *testing.T) {
	root := node.New("root")
	other := node.New("other")
	child := node.New("dot")

	root.Append(child)
	other.Append(child) // Append (not AppendRoot): copies instead of skipping

	assert.Len(t, other.Children(), 1)
	assert.NotSame(t, child, other.Children()[0])
	assert.Equal(t, "dot", other.Children()[0].Kind)
}

func TestAttributeCopyOnWrite(t *testing.T) {
	original := node.New("dot")
	original.SetAttribute("x", value.NewNumber(1))

	clone := original.Clone()
	clone.SetAttribute("x", value.NewNumber(2))

	origX, _ := original.Attribute("x")
	cloneX, _ := clone.Attribute("x")
	assert.Equal(t, []float64{1}, origX.Numbers())
	assert.Equal(t, []float64{2}, cloneX.Numbers())
}

func TestAttributeInsertionOrderPreserved(t *testing.T) {
	n := node.New("dot")
	n.SetAttribute("z", value.NewNumber(1))
	n.SetAttribute("a", value.NewNumber(2))
	n.SetAttribute("z", value.NewNumber(3)) // update, should not move
	assert.Equal(t, []string{"z", "a"}, n.AttributeNames())
}

func TestSearchHonoursStopAndFirst(t *testing.T) {
	root := node.New("root")
	group := node.New("group")
	group.AddTag("outer")
	inner := node.New("dot")
	inner.AddTag("inner")
	group.AppendRoot(inner)
	root.AppendRoot(group)

	stopResults := node.Search(root, &node.Query{Tags: []string{"outer"}, Stop: true})
	assert.Len(t, stopResults, 1, "Stop should prevent descending into the matched group")

	noStop := node.Search(root, &node.Query{Kind: "dot"})
	assert.Len(t, noStop, 1)

	secondDot := node.New("dot")
	root.AppendRoot(secondDot)
	firstOnly := node.Search(root, &node.Query{Kind: "dot", First: true})
	assert.Len(t, firstOnly, 1)
}

func TestSearchStrictVsAnyTags(t *testing.T) {
	root := node.New("root")
	a := node.New("dot")
	a.AddTag("red")
	a.AddTag("big")
	root.AppendRoot(a)

	strict := node.Search(root, &node.Query{Tags: []string{"red", "small"}, Strict: true})
	assert.Empty(t, strict)

	any := node.Search(root, &node.Query{Tags: []string{"red", "small"}, Strict: false})
	assert.Len(t, any, 1)
}
