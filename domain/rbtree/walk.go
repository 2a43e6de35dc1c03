package rbtree

import (
	"cmp"
	"iter"
)

// Side tells where a node hangs off its parent.
type Side uint8

const (
	Root Side = iota
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return "root"
	}
}

// NodeInfo is a read-only view of one node produced by Walk.
type NodeInfo[V cmp.Ordered] struct {
	Key       string
	Color     Color
	Depth     int
	Side      Side
	Values    []V
	Attribute int
}

// Walk yields every node in pre-order (node, left, right). It is meant for
// diagnostics and export; the tree must not be mutated while walking.
func (t *Tree[V]) Walk() iter.Seq[NodeInfo[V]] {
	return func(yield func(NodeInfo[V]) bool) {
		t.walk(t.root, 0, Root, yield)
	}
}

func (t *Tree[V]) walk(n *node[V], depth int, side Side, yield func(NodeInfo[V]) bool) bool {
	if n == nil {
		return true
	}
	values := make([]V, len(n.data.values))
	copy(values, n.data.values)
	info := NodeInfo[V]{
		Key:       n.data.key,
		Color:     n.color,
		Depth:     depth,
		Side:      side,
		Values:    values,
		Attribute: n.data.attribute,
	}
	if !yield(info) {
		return false
	}
	if !t.walk(n.left, depth+1, Left, yield) {
		return false
	}
	return t.walk(n.right, depth+1, Right, yield)
}
