package bst

import (
	"fmt"
	"io"
)

// Check verifies the ordering invariant: every key in a left subtree is
// strictly smaller than its ancestor and every key in a right subtree strictly
// greater. It also confirms that the node count matches Len.
func (t *Tree) Check() error {
	type frame struct {
		n      *node
		lo, hi *string
	}

	seen := 0
	stack := []frame{}
	if t.root != nil {
		stack = append(stack, frame{n: t.root})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen++

		id := f.n.rec.ID
		if f.lo != nil && id <= *f.lo {
			return fmt.Errorf("bst: key %q not greater than ancestor %q", id, *f.lo)
		}
		if f.hi != nil && id >= *f.hi {
			return fmt.Errorf("bst: key %q not less than ancestor %q", id, *f.hi)
		}
		if f.n.left != nil {
			stack = append(stack, frame{n: f.n.left, lo: f.lo, hi: &f.n.rec.ID})
		}
		if f.n.right != nil {
			stack = append(stack, frame{n: f.n.right, lo: &f.n.rec.ID, hi: f.hi})
		}
	}

	if seen != t.count {
		return fmt.Errorf("bst: counted %d nodes, Len reports %d", seen, t.count)
	}
	return nil
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree) Height() int {
	if t.root == nil {
		return 0
	}
	height := 0
	level := []*node{t.root}
	for len(level) > 0 {
		height++
		next := level[:0:0]
		for _, n := range level {
			if n.left != nil {
				next = append(next, n.left)
			}
			if n.right != nil {
				next = append(next, n.right)
			}
		}
		level = next
	}
	return height
}

type branch int

const (
	branchRoot branch = iota
	branchLeft
	branchRight
)

// Print writes an ASCII drawing of the tree to w, right subtree on top,
// and returns its height. Intended for small trees.
func (t *Tree) Print(w io.Writer) int {
	return printNode(w, t.root, "", branchRoot)
}

func printNode(w io.Writer, n *node, prefix string, br branch) int {
	if n == nil {
		return 0
	}
	rd, ld := 0, 0
	if n.right != nil {
		pad := "       "
		if br == branchLeft {
			pad = "|      "
		}
		rd = printNode(w, n.right, prefix+pad, branchRight)
	}
	switch br {
	case branchRoot:
		fmt.Fprintf(w, "%s|------+ ", prefix)
	case branchLeft:
		fmt.Fprintf(w, "%s\\------+ ", prefix)
	case branchRight:
		fmt.Fprintf(w, "%s/------+ ", prefix)
	}
	fmt.Fprintf(w, "%q\n", n.rec.ID)
	if n.left != nil {
		pad := "       "
		if br == branchRight {
			pad = "|      "
		}
		ld = printNode(w, n.left, prefix+pad, branchLeft)
	}
	return 1 + max(ld, rd)
}
