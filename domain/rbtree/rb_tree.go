package rbtree

import "cmp"

type Color uint8

const (
	Red   Color = 0
	Black Color = 1
)

func (c Color) String() string {
	if c == Red {
		return "RED"
	}
	return "BLACK"
}

// data is the payload carried by a node. The tree is ordered by key;
// values only grow, attribute is fixed at creation.
type data[V cmp.Ordered] struct {
	values    []V
	key       string
	attribute int
}

type node[V cmp.Ordered] struct {
	color  Color
	left   *node[V]
	right  *node[V]
	parent *node[V] // non-owning
	data   data[V]
}

// Tree is a red-black tree keyed by string with key-merge semantics.
// A nil child is the black sentinel. Not safe for concurrent use.
type Tree[V cmp.Ordered] struct {
	root *node[V]
	size int
}

func New[V cmp.Ordered]() *Tree[V] {
	return &Tree[V]{}
}

// Len reports the number of distinct keys.
func (t *Tree[V]) Len() int { return t.size }

// Insert adds value under key. An existing key gets value appended and
// keeps its original attribute.
func (t *Tree[V]) Insert(value V, key string, attribute int) {
	var y *node[V]
	x := t.root
	for x != nil {
		y = x
		switch {
		case key == x.data.key:
			x.data.values = append(x.data.values, value)
			return
		case key < x.data.key:
			x = x.left
		default:
			x = x.right
		}
	}

	z := &node[V]{
		color:  Red,
		parent: y,
		data: data[V]{
			values:    []V{value},
			key:       key,
			attribute: attribute,
		},
	}

	if y == nil {
		t.root = z
	} else if key < y.data.key {
		y.left = z
	} else {
		y.right = z
	}
	t.size++
	t.insertFixup(z)
}

// Search returns a copy of the values stored under key and the key's
// attribute.
func (t *Tree[V]) Search(key string) ([]V, int, bool) {
	n := t.findByKey(key)
	if n == nil {
		return nil, 0, false
	}
	out := make([]V, len(n.data.values))
	copy(out, n.data.values)
	return out, n.data.attribute, true
}

// Remove deletes the node whose first value equals value. The target is
// located by descending on first values (<= goes right), not on keys, so
// it only finds nodes whose first values happen to follow key order along
// the search path. Returns false when no candidate was found.
func (t *Tree[V]) Remove(value V) bool {
	z := t.findByFirstValue(value)
	if z == nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

// Locate runs the same descent as Remove without mutating and returns the
// key of the node Remove would delete.
func (t *Tree[V]) Locate(value V) (string, bool) {
	z := t.findByFirstValue(value)
	if z == nil {
		return "", false
	}
	return z.data.key, true
}

// Delete removes the node for key. Used to re-apply a removal whose
// effect was recorded by key.
func (t *Tree[V]) Delete(key string) bool {
	z := t.findByKey(key)
	if z == nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

// Destroy unlinks every node in post-order and returns how many were
// released. The tree is empty afterwards.
func (t *Tree[V]) Destroy() int {
	released := t.release(t.root)
	t.root = nil
	t.size = 0
	return released
}

/******************** Internal helpers ********************/

func (t *Tree[V]) release(n *node[V]) int {
	if n == nil {
		return 0
	}
	count := t.release(n.left) + t.release(n.right)
	n.left, n.right, n.parent = nil, nil, nil
	n.data.values = nil
	return count + 1
}

func (t *Tree[V]) findByKey(key string) *node[V] {
	n := t.root
	for n != nil {
		switch {
		case key < n.data.key:
			n = n.left
		case key > n.data.key:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

func (t *Tree[V]) findByFirstValue(value V) *node[V] {
	var z *node[V]
	n := t.root
	for n != nil {
		first := n.data.values[0]
		if first == value {
			z = n
		}
		if first <= value {
			n = n.right
		} else {
			n = n.left
		}
	}
	return z
}

func (t *Tree[V]) minNode(n *node[V]) *node[V] {
	for n.left != nil {
		n = n.left
	}
	return n
}

func colorOf[V cmp.Ordered](n *node[V]) Color {
	if n == nil {
		return Black
	}
	return n.color
}

func (t *Tree[V]) rotateLeft(x *node[V]) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *Tree[V]) rotateRight(y *node[V]) {
	x := y.left
	y.left = x.right
	if x.right != nil {
		x.right.parent = y
	}
	x.parent = y.parent
	if y.parent == nil {
		t.root = x
	} else if y == y.parent.right {
		y.parent.right = x
	} else {
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *Tree[V]) insertFixup(z *node[V]) {
	for z != t.root && z.color == Red && z.parent.color == Red {
		p := z.parent
		g := p.parent
		if p == g.left {
			u := g.right
			if colorOf(u) == Red {
				p.color = Black
				u.color = Black
				g.color = Red
				z = g
				continue
			}
			if z == p.right {
				t.rotateLeft(p)
				z = p
				p = z.parent
			}
			t.rotateRight(g)
			p.color, g.color = g.color, p.color
			z = p
		} else {
			u := g.left
			if colorOf(u) == Red {
				p.color = Black
				u.color = Black
				g.color = Red
				z = g
				continue
			}
			if z == p.left {
				t.rotateRight(p)
				z = p
				p = z.parent
			}
			t.rotateLeft(g)
			p.color, g.color = g.color, p.color
			z = p
		}
	}
	t.root.color = Black
}

// transplant puts v in u's place. v may be nil.
func (t *Tree[V]) transplant(u, v *node[V]) {
	if u.parent == nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

func (t *Tree[V]) deleteNode(z *node[V]) {
	y := z
	yOrigColor := y.color
	var x, xParent *node[V]

	if z.left == nil {
		x = z.right
		xParent = z.parent
		t.transplant(z, z.right)
	} else if z.right == nil {
		x = z.left
		xParent = z.parent
		t.transplant(z, z.left)
	} else {
		y = t.minNode(z.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	z.left, z.right, z.parent = nil, nil, nil
	z.data.values = nil

	if yOrigColor == Black {
		t.deleteFixup(x, xParent)
	}
}

// deleteFixup restores black-height starting at x, which carries an
// extra black. x may be nil, so its parent is passed alongside.
func (t *Tree[V]) deleteFixup(x, parent *node[V]) {
	for x != t.root && colorOf(x) == Black {
		if x == parent.left {
			w := parent.right
			if w.color == Red {
				w.color = Black
				parent.color = Red
				t.rotateLeft(parent)
				w = parent.right
			}
			if colorOf(w.left) == Black && colorOf(w.right) == Black {
				w.color = Red
				x = parent
				parent = x.parent
				continue
			}
			if colorOf(w.right) == Black {
				w.left.color = Black
				w.color = Red
				t.rotateRight(w)
				w = parent.right
			}
			w.color = parent.color
			parent.color = Black
			w.right.color = Black
			t.rotateLeft(parent)
			x = t.root
			parent = nil
		} else {
			w := parent.left
			if w.color == Red {
				w.color = Black
				parent.color = Red
				t.rotateRight(parent)
				w = parent.left
			}
			if colorOf(w.right) == Black && colorOf(w.left) == Black {
				w.color = Red
				x = parent
				parent = x.parent
				continue
			}
			if colorOf(w.left) == Black {
				w.right.color = Black
				w.color = Red
				t.rotateLeft(w)
				w = parent.left
			}
			w.color = parent.color
			parent.color = Black
			w.left.color = Black
			t.rotateRight(parent)
			x = t.root
			parent = nil
		}
	}
	if x != nil {
		x.color = Black
	}
}
