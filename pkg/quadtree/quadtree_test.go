package quadtree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

type point struct {
	id   int
	x, y float64
}

func px(p point) float64 { return p.x }
func py(p point) float64 { return p.y }

func build(pts ...point) *Tree[point] {
	return New(pts, px, py)
}

func TestNew_Extent(t *testing.T) {
	tests := []struct {
		name     string
		points   []point
		expected r2.Box
	}{
		{
			name:     "single_point",
			points:   []point{{0, 0.5, 2.25}},
			expected: r2.Box{Min: r2.Vec{X: 0, Y: 2}, Max: r2.Vec{X: 1, Y: 3}},
		},
		{
			name:     "doubles_until_covered",
			points:   []point{{0, 0, 0}, {1, 3, 1}},
			expected: r2.Box{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: 4, Y: 4}},
		},
		{
			name:     "negative_coordinates",
			points:   []point{{0, -1.5, -0.2}, {1, 0.5, 0.5}},
			expected: r2.Box{Min: r2.Vec{X: -2, Y: -1}, Max: r2.Vec{X: 2, Y: 3}},
		},
		{
			name:     "max_on_boundary_expands",
			points:   []point{{0, 0, 0}, {1, 2, 0}},
			expected: r2.Box{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: 4, Y: 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := build(tt.points...)
			if got := tree.Extent(); got != tt.expected {
				t.Errorf("Extent() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestNew_Empty(t *testing.T) {
	tree := build()
	if tree.Len() != 0 {
		t.Errorf("Expected empty tree, got %d points", tree.Len())
	}
	if tree.Root() != nil {
		t.Error("Expected nil root for empty tree")
	}

	calls := 0
	tree.Visit(func(n *Node[point], b r2.Box) bool { calls++; return false })
	tree.VisitAfter(func(n *Node[point]) { calls++ })
	if calls != 0 {
		t.Errorf("Expected no visits on empty tree, got %d", calls)
	}
}

func TestNew_SkipsNonFinite(t *testing.T) {
	tree := build(
		point{0, 1, 1},
		point{1, math.NaN(), 2},
		point{2, 3, math.Inf(1)},
		point{3, 2, 2},
	)
	if tree.Len() != 2 {
		t.Fatalf("Expected 2 indexed points, got %d", tree.Len())
	}
	data := tree.Data()
	if data[0].id != 0 || data[1].id != 3 {
		t.Errorf("Unexpected data %v", data)
	}
}

func TestVisit_ReportsEveryLeafOnce(t *testing.T) {
	pts := make([]point, 0, 64)
	for i := 0; i < 64; i++ {
		pts = append(pts, point{i, float64(i%8) * 1.3, float64(i/8) * 0.7})
	}
	tree := build(pts...)

	seen := make(map[int]int)
	tree.Visit(func(n *Node[point], b r2.Box) bool {
		if n.IsLeaf() {
			seen[n.Data.id]++
			p := n.Point()
			if p.X < b.Min.X || p.X > b.Max.X || p.Y < b.Min.Y || p.Y > b.Max.Y {
				t.Errorf("Point %v outside its box %v", p, b)
			}
		}
		return false
	})

	if len(seen) != len(pts) {
		t.Fatalf("Expected %d leaves, saw %d", len(pts), len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("Point %d visited %d times", id, count)
		}
	}
}

func TestVisit_SkipChildren(t *testing.T) {
	tree := build(point{0, 0, 0}, point{1, 3, 3}, point{2, 1, 3})

	visits := 0
	tree.Visit(func(n *Node[point], b r2.Box) bool {
		visits++
		return true
	})
	if visits != 1 {
		t.Errorf("Expected only the root to be visited, got %d visits", visits)
	}
}

func TestVisit_QuadrantBoxes(t *testing.T) {
	tree := build(point{0, 0.5, 0.5}, point{1, 3.5, 3.5})
	root := tree.Root()
	if root == nil || root.IsLeaf() {
		t.Fatal("Expected internal root")
	}

	boxes := make(map[int]r2.Box)
	tree.Visit(func(n *Node[point], b r2.Box) bool {
		if n.IsLeaf() {
			boxes[n.Data.id] = b
		}
		return false
	})

	want0 := r2.Box{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: 2, Y: 2}}
	want1 := r2.Box{Min: r2.Vec{X: 2, Y: 2}, Max: r2.Vec{X: 4, Y: 4}}
	if boxes[0] != want0 {
		t.Errorf("Point 0 box = %v, expected %v", boxes[0], want0)
	}
	if boxes[1] != want1 {
		t.Errorf("Point 1 box = %v, expected %v", boxes[1], want1)
	}
	if tree.Child(root, 0) == nil || tree.Child(root, 3) == nil {
		t.Error("Expected children in quadrants 0 and 3")
	}
	if tree.Child(root, 1) != nil || tree.Child(root, 2) != nil {
		t.Error("Expected quadrants 1 and 2 to be empty")
	}
}

func TestCoincidentPoints(t *testing.T) {
	tree := build(point{0, 1, 1}, point{1, 1, 1}, point{2, 1, 1}, point{3, 0, 0})
	if tree.Len() != 4 {
		t.Fatalf("Expected 4 points, got %d", tree.Len())
	}

	var ids []int
	tree.Visit(func(n *Node[point], b r2.Box) bool {
		if n.IsLeaf() {
			ids = append(ids, n.Data.id)
		}
		return false
	})
	if len(ids) != 4 {
		t.Fatalf("Expected 4 leaf reports, got %v", ids)
	}

	after := 0
	tree.VisitAfter(func(n *Node[point]) {
		if n.IsLeaf() {
			after++
		}
	})
	if after != 4 {
		t.Errorf("Expected VisitAfter to see 4 leaves, got %d", after)
	}
}

func TestVisitAfter_ChildrenBeforeParent(t *testing.T) {
	pts := []point{{0, 0, 0}, {1, 5, 1}, {2, 1, 6}, {3, 7, 7}, {4, 2.5, 2.5}, {5, 2.6, 2.4}}
	tree := build(pts...)

	// Count leaves per subtree bottom-up; the root must end up with all of them.
	tree.VisitAfter(func(n *Node[point]) {
		if n.IsLeaf() {
			n.R = 1
			return
		}
		n.R = 0
		for q := 0; q < 4; q++ {
			for c := tree.Child(n, q); c != nil; c = tree.Next(c) {
				if c.R == 0 {
					t.Errorf("Child in quadrant %d visited after its parent", q)
				}
				n.R += c.R
			}
		}
	})

	if got := tree.Root().R; got != float64(len(pts)) {
		t.Errorf("Root aggregate = %v, expected %d", got, len(pts))
	}
}
