// pkg/quadtree/quadtree.go

// Package quadtree implements a point quadtree whose nodes live in a single
// arena slice. Children are addressed by index rather than by pointer, so a
// tree is cheap to build, cheap to throw away and safe to rebuild every pass.
package quadtree

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// none marks an absent child or the end of a coincident chain.
const none int32 = -1

var noChildren = [4]int32{none, none, none, none}

// Node is one slot in the arena. A node is either a leaf holding a single
// datum, or an internal node with up to four children in quadrant order
// (0 top-left, 1 top-right, 2 bottom-left, 3 bottom-right).
type Node[T any] struct {
	Data T

	// R is an aggregate slot left to the caller, usually filled by VisitAfter.
	R float64

	leaf     bool
	x, y     float64
	next     int32
	children [4]int32
}

// IsLeaf reports whether the node holds a datum.
func (n *Node[T]) IsLeaf() bool {
	return n.leaf
}

// Point returns the indexed coordinate of a leaf. Internal nodes return the zero vector.
func (n *Node[T]) Point() r2.Vec {
	return r2.Vec{X: n.x, Y: n.y}
}

// Tree is a point quadtree over a square extent.
type Tree[T any] struct {
	nodes  []Node[T]
	root   int32
	extent r2.Box
	size   int
}

// New builds a tree over data, indexing each datum at (x(d), y(d)).
// Data with a non-finite coordinate is left out of the tree.
func New[T any](data []T, x, y func(T) float64) *Tree[T] {
	t := &Tree[T]{
		root:  none,
		nodes: make([]Node[T], 0, 2*len(data)),
	}

	xs := make([]float64, len(data))
	ys := make([]float64, len(data))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, d := range data {
		px, py := x(d), y(d)
		xs[i], ys[i] = px, py
		if !finite(px) || !finite(py) {
			continue
		}
		minX, maxX = math.Min(minX, px), math.Max(maxX, px)
		minY, maxY = math.Min(minY, py), math.Max(maxY, py)
	}
	if minX > maxX {
		return t
	}

	t.cover(minX, minY, maxX, maxY)
	for i, d := range data {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		t.add(xs[i], ys[i], d)
	}
	return t
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// cover sets the extent to the smallest power-of-two square anchored at the
// floored minimum corner that contains the maximum corner.
func (t *Tree[T]) cover(minX, minY, maxX, maxY float64) {
	x0, y0 := math.Floor(minX), math.Floor(minY)
	z := 1.0
	for x0+z <= maxX || y0+z <= maxY {
		z *= 2
	}
	t.extent = r2.Box{
		Min: r2.Vec{X: x0, Y: y0},
		Max: r2.Vec{X: x0 + z, Y: y0 + z},
	}
}

func (t *Tree[T]) alloc(n Node[T]) int32 {
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

func (t *Tree[T]) add(x, y float64, d T) {
	leaf := t.alloc(Node[T]{Data: d, leaf: true, x: x, y: y, next: none, children: noChildren})
	t.size++
	if t.root == none {
		t.root = leaf
		return
	}

	x0, y0 := t.extent.Min.X, t.extent.Min.Y
	x1, y1 := t.extent.Max.X, t.extent.Max.Y
	parent, node, i := none, t.root, 0

	// Descend to the leaf or empty slot that owns (x, y).
	for !t.nodes[node].leaf {
		i = 0
		if xm := (x0 + x1) / 2; x >= xm {
			i |= 1
			x0 = xm
		} else {
			x1 = xm
		}
		if ym := (y0 + y1) / 2; y >= ym {
			i |= 2
			y0 = ym
		} else {
			y1 = ym
		}
		parent, node = node, t.nodes[node].children[i]
		if node == none {
			t.nodes[parent].children[i] = leaf
			return
		}
	}

	px, py := t.nodes[node].x, t.nodes[node].y
	if px == x && py == y {
		for t.nodes[node].next != none {
			node = t.nodes[node].next
		}
		t.nodes[node].next = leaf
		return
	}

	// Split until the existing leaf and the new one land in different quadrants.
	for {
		branch := t.alloc(Node[T]{next: none, children: noChildren})
		if parent == none {
			t.root = branch
		} else {
			t.nodes[parent].children[i] = branch
		}
		parent = branch

		i = 0
		j := 0
		xm, ym := (x0+x1)/2, (y0+y1)/2
		if px >= xm {
			j |= 1
		}
		if py >= ym {
			j |= 2
		}
		if x >= xm {
			i |= 1
			x0 = xm
		} else {
			x1 = xm
		}
		if y >= ym {
			i |= 2
			y0 = ym
		} else {
			y1 = ym
		}
		if i != j {
			t.nodes[parent].children[j] = node
			t.nodes[parent].children[i] = leaf
			return
		}
	}
}

// Len returns the number of data indexed by the tree.
func (t *Tree[T]) Len() int {
	return t.size
}

// Extent returns the square covered by the root node.
func (t *Tree[T]) Extent() r2.Box {
	return t.extent
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree[T]) Root() *Node[T] {
	if t.root == none {
		return nil
	}
	return &t.nodes[t.root]
}

// Child returns the node in quadrant q of n, or nil when the slot is empty.
// For a coincident chain only the first leaf is returned; use Next for the rest.
func (t *Tree[T]) Child(n *Node[T], q int) *Node[T] {
	if n == nil || n.leaf || q < 0 || q > 3 || n.children[q] == none {
		return nil
	}
	return &t.nodes[n.children[q]]
}

// Next returns the following leaf at the same coordinate as n, or nil.
func (t *Tree[T]) Next(n *Node[T]) *Node[T] {
	if n == nil || n.next == none {
		return nil
	}
	return &t.nodes[n.next]
}

// Data returns every indexed datum in insertion order.
func (t *Tree[T]) Data() []T {
	out := make([]T, 0, t.size)
	for i := range t.nodes {
		if t.nodes[i].leaf {
			out = append(out, t.nodes[i].Data)
		}
	}
	return out
}

type quad struct {
	node int32
	box  r2.Box
}

// Visit walks the tree in pre-order, calling fn with each node and the box it
// covers. If fn returns true for an internal node its children are skipped.
// Leaves are always terminal; every leaf of a coincident chain is reported
// with the same box.
func (t *Tree[T]) Visit(fn func(n *Node[T], b r2.Box) bool) *Tree[T] {
	if t.root == none {
		return t
	}

	stack := []quad{{node: t.root, box: t.extent}}
	for len(stack) > 0 {
		q := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t.nodes[q.node].leaf {
			for c := q.node; c != none; c = t.nodes[c].next {
				fn(&t.nodes[c], q.box)
			}
			continue
		}
		if fn(&t.nodes[q.node], q.box) {
			continue
		}

		children := t.nodes[q.node].children
		for i := 3; i >= 0; i-- {
			if children[i] != none {
				stack = append(stack, quad{node: children[i], box: childBox(q.box, i)})
			}
		}
	}
	return t
}

// VisitAfter walks the tree in post-order: every node is passed to fn after
// all of its children. Chained leaves are each visited once.
func (t *Tree[T]) VisitAfter(fn func(n *Node[T])) *Tree[T] {
	if t.root != none {
		t.visitAfter(t.root, fn)
	}
	return t
}

func (t *Tree[T]) visitAfter(i int32, fn func(n *Node[T])) {
	if t.nodes[i].leaf {
		for c := i; c != none; c = t.nodes[c].next {
			fn(&t.nodes[c])
		}
		return
	}
	for _, c := range t.nodes[i].children {
		if c != none {
			t.visitAfter(c, fn)
		}
	}
	fn(&t.nodes[i])
}

func childBox(b r2.Box, q int) r2.Box {
	xm := (b.Min.X + b.Max.X) / 2
	ym := (b.Min.Y + b.Max.Y) / 2
	c := b
	if q&1 != 0 {
		c.Min.X = xm
	} else {
		c.Max.X = xm
	}
	if q&2 != 0 {
		c.Min.Y = ym
	} else {
		c.Max.Y = ym
	}
	return c
}
