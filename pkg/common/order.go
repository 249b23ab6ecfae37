package common

import (
	"fmt"
	"strings"
)

// Order selects the visiting sequence of a full-tree walk.
type Order uint8

const (
	InOrder   Order = iota // left, node, right
	PreOrder               // node, left, right
	PostOrder              // left, right, node
)

func (o Order) String() string {
	switch o {
	case InOrder:
		return "inorder"
	case PreOrder:
		return "preorder"
	case PostOrder:
		return "postorder"
	default:
		return fmt.Sprintf("order(%d)", uint8(o))
	}
}

// ParseOrder accepts the long names as well as "in", "pre" and "post".
// An empty string selects in-order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "in", "inorder", "in-order":
		return InOrder, nil
	case "pre", "preorder", "pre-order":
		return PreOrder, nil
	case "post", "postorder", "post-order":
		return PostOrder, nil
	}
	return InOrder, fmt.Errorf("unknown traversal order %q", s)
}
