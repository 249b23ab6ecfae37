// Package balanced provides a self-balancing red-black tree backend so the
// plain binary search tree can be compared against it.
package balanced

import (
	"bidindex/pkg/common"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
)

type node = rbt.Node[string, common.Record]

// RedBlackTree stores records in a gods red-black tree keyed by ID.
// Insertions never overwrite an existing ID.
type RedBlackTree struct {
	tree *rbt.Tree[string, common.Record]
}

func NewRedBlackTree() *RedBlackTree {
	return &RedBlackTree{
		tree: rbt.New[string, common.Record](),
	}
}

func (t *RedBlackTree) Insert(rec common.Record) {
	if _, found := t.tree.Get(rec.ID); found {
		return
	}
	t.tree.Put(rec.ID, rec)
}

func (t *RedBlackTree) Search(id string) (common.Record, bool) {
	return t.tree.Get(id)
}

func (t *RedBlackTree) Remove(id string) {
	t.tree.Remove(id)
}

func (t *RedBlackTree) Len() int {
	return t.tree.Size()
}

func (t *RedBlackTree) Clear() {
	t.tree.Clear()
}

func (t *RedBlackTree) Ascend(fn func(common.Record) bool) {
	it := t.tree.Iterator()
	for it.Next() {
		if !fn(it.Value()) {
			return
		}
	}
}

// Walk visits the red-black tree's own node structure in the requested order.
func (t *RedBlackTree) Walk(order common.Order, fn func(common.Record) bool) {
	switch order {
	case common.PreOrder:
		walkPre(t.tree.Root, fn)
	case common.PostOrder:
		walkPost(t.tree.Root, fn)
	default:
		t.Ascend(fn)
	}
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *RedBlackTree) Height() int {
	if t.tree.Root == nil {
		return 0
	}
	height := 0
	level := []*node{t.tree.Root}
	for len(level) > 0 {
		height++
		var next []*node
		for _, n := range level {
			if n.Left != nil {
				next = append(next, n.Left)
			}
			if n.Right != nil {
				next = append(next, n.Right)
			}
		}
		level = next
	}
	return height
}

func walkPre(root *node, fn func(common.Record) bool) {
	if root == nil {
		return
	}
	stack := []*node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n.Value) {
			return
		}
		if n.Right != nil {
			stack = append(stack, n.Right)
		}
		if n.Left != nil {
			stack = append(stack, n.Left)
		}
	}
}

func walkPost(root *node, fn func(common.Record) bool) {
	var last *node
	var stack []*node
	cur := root
	for cur != nil || len(stack) > 0 {
		if cur != nil {
			stack = append(stack, cur)
			cur = cur.Left
			continue
		}
		top := stack[len(stack)-1]
		if top.Right != nil && top.Right != last {
			cur = top.Right
			continue
		}
		stack = stack[:len(stack)-1]
		if !fn(top.Value) {
			return
		}
		last = top
	}
}
