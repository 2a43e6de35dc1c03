package rbtree

import (
	"cmp"
	"fmt"
)

// verify checks every structural invariant and returns the first violation.
func verify[V cmp.Ordered](t *Tree[V]) error {
	if t.root == nil {
		if t.size != 0 {
			return fmt.Errorf("empty tree reports size %d", t.size)
		}
		return nil
	}
	if t.root.parent != nil {
		return fmt.Errorf("root %q has a parent", t.root.data.key)
	}
	if t.root.color != Black {
		return fmt.Errorf("root %q is red", t.root.data.key)
	}
	count := 0
	if _, err := verifyNode(t.root, nil, nil, &count); err != nil {
		return err
	}
	if count != t.size {
		return fmt.Errorf("counted %d nodes, size is %d", count, t.size)
	}
	return nil
}

func verifyNode[V cmp.Ordered](n *node[V], lo, hi *string, count *int) (int, error) {
	if n == nil {
		return 1, nil
	}
	*count++
	key := n.data.key
	if lo != nil && key <= *lo {
		return 0, fmt.Errorf("key %q not greater than lower bound %q", key, *lo)
	}
	if hi != nil && key >= *hi {
		return 0, fmt.Errorf("key %q not less than upper bound %q", key, *hi)
	}
	if len(n.data.values) == 0 {
		return 0, fmt.Errorf("node %q has no values", key)
	}
	for _, c := range []*node[V]{n.left, n.right} {
		if c == nil {
			continue
		}
		if c.parent != n {
			return 0, fmt.Errorf("child %q of %q has wrong parent", c.data.key, key)
		}
		if n.color == Red && c.color == Red {
			return 0, fmt.Errorf("red node %q has red child %q", key, c.data.key)
		}
	}
	lh, err := verifyNode(n.left, lo, &key, count)
	if err != nil {
		return 0, err
	}
	rh, err := verifyNode(n.right, &key, hi, count)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, fmt.Errorf("black-height mismatch at %q: left %d right %d", key, lh, rh)
	}
	if n.color == Black {
		lh++
	}
	return lh, nil
}

func height[V cmp.Ordered](n *node[V]) int {
	if n == nil {
		return 0
	}
	return 1 + max(height(n.left), height(n.right))
}

func inorderKeys[V cmp.Ordered](n *node[V], out []string) []string {
	if n == nil {
		return out
	}
	out = inorderKeys(n.left, out)
	out = append(out, n.data.key)
	return inorderKeys(n.right, out)
}
