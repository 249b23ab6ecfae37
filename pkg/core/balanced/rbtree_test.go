package balanced

import (
	"fmt"
	"testing"

	"bidindex/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *RedBlackTree, order common.Order) []string {
	var out []string
	t.Walk(order, func(r common.Record) bool {
		out = append(out, r.ID)
		return true
	})
	return out
}

func TestRedBlackTreeBasics(t *testing.T) {
	tree := NewRedBlackTree()
	tree.Insert(common.Record{ID: "b", Title: "first"})
	tree.Insert(common.Record{ID: "b", Title: "second"})
	tree.Insert(common.Record{ID: "a"})
	tree.Insert(common.Record{ID: "c"})

	require.Equal(t, 3, tree.Len())
	got, ok := tree.Search("b")
	require.True(t, ok)
	assert.Equal(t, "first", got.Title)

	// three keys always balance to root b
	assert.Equal(t, []string{"a", "b", "c"}, collect(tree, common.InOrder))
	assert.Equal(t, []string{"b", "a", "c"}, collect(tree, common.PreOrder))
	assert.Equal(t, []string{"a", "c", "b"}, collect(tree, common.PostOrder))

	tree.Remove("b")
	_, ok = tree.Search("b")
	assert.False(t, ok)
	assert.Equal(t, 2, tree.Len())

	tree.Clear()
	assert.Zero(t, tree.Len())
	assert.Empty(t, collect(tree, common.PostOrder))
}

func TestRedBlackTreeStaysShallowOnSortedInput(t *testing.T) {
	tree := NewRedBlackTree()
	for i := 0; i < 1024; i++ {
		tree.Insert(common.Record{ID: fmt.Sprintf("%06d", i)})
	}
	assert.LessOrEqual(t, tree.Height(), 20)
	assert.Len(t, collect(tree, common.PreOrder), 1024)
}
