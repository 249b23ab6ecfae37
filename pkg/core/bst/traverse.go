package bst

import (
	"bidindex/pkg/common"
)

// Walk visits every record in the given order until fn returns false.
// The tree must not be modified while a walk is in progress.
func (t *Tree) Walk(order common.Order, fn func(common.Record) bool) {
	switch order {
	case common.PreOrder:
		walkPre(t.root, fn)
	case common.PostOrder:
		walkPost(t.root, fn)
	default:
		walkIn(t.root, fn)
	}
}

// Ascend visits records in ascending ID order.
func (t *Tree) Ascend(fn func(common.Record) bool) {
	walkIn(t.root, fn)
}

// InOrder returns all records sorted by ID.
func (t *Tree) InOrder() []common.Record {
	return t.collect(common.InOrder)
}

// PreOrder returns all records, each node before its subtrees.
func (t *Tree) PreOrder() []common.Record {
	return t.collect(common.PreOrder)
}

// PostOrder returns all records, each node after its subtrees.
func (t *Tree) PostOrder() []common.Record {
	return t.collect(common.PostOrder)
}

func (t *Tree) collect(order common.Order) []common.Record {
	out := make([]common.Record, 0, t.count)
	t.Walk(order, func(r common.Record) bool {
		out = append(out, r)
		return true
	})
	return out
}

func walkIn(root *node, fn func(common.Record) bool) {
	stack := []*node{}
	cur := root
	for cur != nil || len(stack) > 0 {
		for cur != nil {
			stack = append(stack, cur)
			cur = cur.left
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur.rec) {
			return
		}
		cur = cur.right
	}
}

func walkPre(root *node, fn func(common.Record) bool) {
	if root == nil {
		return
	}
	stack := []*node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n.rec) {
			return
		}
		// right first so the left subtree is popped first
		if n.right != nil {
			stack = append(stack, n.right)
		}
		if n.left != nil {
			stack = append(stack, n.left)
		}
	}
}

func walkPost(root *node, fn func(common.Record) bool) {
	var last *node
	stack := []*node{}
	cur := root
	for cur != nil || len(stack) > 0 {
		if cur != nil {
			stack = append(stack, cur)
			cur = cur.left
			continue
		}
		top := stack[len(stack)-1]
		if top.right != nil && top.right != last {
			cur = top.right
			continue
		}
		stack = stack[:len(stack)-1]
		if !fn(top.rec) {
			return
		}
		last = top
	}
}
