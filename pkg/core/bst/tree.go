// Package bst implements an unbalanced binary search tree of bid records
// keyed by their string ID.
//
// The tree never rebalances: inserting keys in sorted order degenerates it
// into a list. Every walk is iterative so such a tree cannot exhaust the
// goroutine stack. A Tree is not safe for concurrent use.
package bst

import (
	"bidindex/pkg/common"
)

type node struct {
	rec   common.Record
	left  *node
	right *node
}

// Tree is an ordered index over unique record IDs. The zero value is an empty tree.
type Tree struct {
	root    *node
	count   int
	release func(common.Record)
}

// Option configures a Tree.
type Option func(*Tree)

// WithReleaseHook registers fn to be called once for every node the tree
// releases, by Remove or by Clear. It receives the record held by the node at
// the moment it is unlinked.
func WithReleaseHook(fn func(common.Record)) Option {
	return func(t *Tree) {
		t.release = fn
	}
}

// New returns an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsEmpty reports whether the tree holds no records.
func (t *Tree) IsEmpty() bool {
	return t.root == nil
}

// Len returns the number of records in the tree.
func (t *Tree) Len() int {
	return t.count
}

// Insert adds rec to the tree. If a record with the same ID is already
// present the tree is left unchanged: the first write wins.
func (t *Tree) Insert(rec common.Record) {
	if t.root == nil {
		t.root = &node{rec: rec}
		t.count++
		return
	}

	cur := t.root
	for {
		switch {
		case rec.ID == cur.rec.ID:
			return
		case rec.ID < cur.rec.ID:
			if cur.left == nil {
				cur.left = &node{rec: rec}
				t.count++
				return
			}
			cur = cur.left
		default:
			if cur.right == nil {
				cur.right = &node{rec: rec}
				t.count++
				return
			}
			cur = cur.right
		}
	}
}

// Search returns the record stored under id.
func (t *Tree) Search(id string) (common.Record, bool) {
	cur := t.root
	for cur != nil {
		switch {
		case id == cur.rec.ID:
			return cur.rec, true
		case id < cur.rec.ID:
			cur = cur.left
		default:
			cur = cur.right
		}
	}
	return common.Record{}, false
}

// Remove deletes the record stored under id. Removing an absent id is a no-op.
//
// A node with two children keeps its position and takes over the record of
// its in-order successor; the successor's own node is then unlinked from the
// right subtree instead.
func (t *Tree) Remove(id string) {
	var parent *node
	cur := t.root
	for cur != nil && cur.rec.ID != id {
		parent = cur
		if id < cur.rec.ID {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}
	if cur == nil {
		return
	}

	if cur.left != nil && cur.right != nil {
		succParent := cur
		succ := cur.right
		for succ.left != nil {
			succParent = succ
			succ = succ.left
		}
		rec := succ.rec
		t.unlink(succParent, succ)
		cur.rec = rec
		return
	}
	t.unlink(parent, cur)
}

// unlink detaches n, which has at most one child, by splicing that child into
// the slot n occupied under parent. A nil parent means n is the root.
func (t *Tree) unlink(parent, n *node) {
	child := n.left
	if child == nil {
		child = n.right
	}

	switch {
	case parent == nil:
		t.root = child
	case parent.left == n:
		parent.left = child
	default:
		parent.right = child
	}

	n.left, n.right = nil, nil
	t.count--
	t.free(n)
}

func (t *Tree) free(n *node) {
	if t.release != nil {
		t.release(n.rec)
	}
}

// Clear releases every node in post-order, children before their parent,
// and leaves the tree empty.
func (t *Tree) Clear() {
	if t.root == nil {
		return
	}

	var last *node
	stack := []*node{}
	cur := t.root
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
		top.left, top.right = nil, nil
		t.free(top)
		last = top
	}

	t.root = nil
	t.count = 0
}
