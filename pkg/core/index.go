package core

import (
	"errors"
	"fmt"
	"strings"

	"bidindex/pkg/common"
	"bidindex/pkg/core/balanced"
	"bidindex/pkg/core/bst"
	"bidindex/pkg/core/memory"
)

var (
	ErrEmptyID          = errors.New("record id must not be empty")
	ErrUnsupportedOrder = errors.New("traversal order not supported by this index backend")
)

// Index is the contract every ordered index backend satisfies. Backends keep
// the first record inserted for an ID. None of them is safe for concurrent use.
type Index interface {
	Insert(rec common.Record)
	Search(id string) (common.Record, bool)
	Remove(id string)
	Ascend(fn func(common.Record) bool)
	Len() int
	Clear()
}

// Traverser is an Index whose node structure can be walked in pre-order and
// post-order as well as in key order.
type Traverser interface {
	Index
	Walk(order common.Order, fn func(common.Record) bool)
}

var (
	_ Traverser = (*bst.Tree)(nil)
	_ Traverser = (*balanced.RedBlackTree)(nil)
	_ Index     = (*memory.MemTable)(nil)
)

// Kind names an index backend.
type Kind string

const (
	KindBST    Kind = "bst"    // unbalanced binary search tree
	KindBTree  Kind = "btree"  // google/btree
	KindRBTree Kind = "rbtree" // red-black tree
)

// Kinds lists every backend, the default first.
var Kinds = []Kind{KindBST, KindBTree, KindRBTree}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case "":
		return KindBST, nil
	case KindBST, KindBTree, KindRBTree:
		return k, nil
	}
	return KindBST, fmt.Errorf("unknown index backend %q", s)
}

// NewIndex builds an empty index of the given kind. degree only applies to
// the B-tree and bstOpts only to the binary search tree.
func NewIndex(kind Kind, degree int, bstOpts ...bst.Option) Index {
	switch kind {
	case KindBTree:
		return memory.NewMemTable(degree)
	case KindRBTree:
		return balanced.NewRedBlackTree()
	case KindBST:
		fallthrough
	default:
		return bst.New(bstOpts...)
	}
}

// Walk visits idx in the given order. In-order works on every backend;
// the structural orders need a Traverser.
func Walk(idx Index, order common.Order, fn func(common.Record) bool) error {
	if t, ok := idx.(Traverser); ok {
		t.Walk(order, fn)
		return nil
	}
	if order != common.InOrder {
		return fmt.Errorf("%w: %s", ErrUnsupportedOrder, order)
	}
	idx.Ascend(fn)
	return nil
}

// Collect returns every record of idx in the given order.
func Collect(idx Index, order common.Order) ([]common.Record, error) {
	out := make([]common.Record, 0, idx.Len())
	err := Walk(idx, order, func(r common.Record) bool {
		out = append(out, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Height reports the tree height for backends that expose it.
func Height(idx Index) (int, bool) {
	h, ok := idx.(interface{ Height() int })
	if !ok {
		return 0, false
	}
	return h.Height(), true
}
