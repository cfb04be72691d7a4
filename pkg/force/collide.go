// pkg/force/collide.go
package force

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/opd-ai/go-collide/pkg/quadtree"
)

// DefaultRadius is used when a Collide is created with an unset radius.
const DefaultRadius = 1.0

// Stats describes the work done by the last Apply.
type Stats struct {
	Passes     int // relaxation passes run
	Visits     int // quadtree nodes inspected across all descents
	Collisions int // overlapping pairs corrected
}

// Collide pushes overlapping circles apart by adjusting their velocities.
// Circles are tested at their predicted positions (position plus velocity);
// each overlapping pair is corrected once per pass, split by radius squared.
//
// A Collide is not safe for concurrent use, and Apply must not run while the
// bound nodes are being modified elsewhere.
type Collide struct {
	nodes      []*Node
	radii      []float64
	radius     Param
	strength   float64
	iterations int
	jiggle     func() float64
	stats      Stats
}

// NewCollide creates a collide force with strength 1 and one pass per tick.
// An unset radius defaults to DefaultRadius.
func NewCollide(radius Param) *Collide {
	if radius.IsZero() {
		radius = ConstParam(DefaultRadius)
	}
	return &Collide{
		radius:     radius,
		strength:   1,
		iterations: 1,
		jiggle:     NewJiggle(rand.NewSource(1)),
	}
}

// Initialize binds the force to nodes and resolves every radius. It panics if
// a node has a negative Index.
func (c *Collide) Initialize(nodes []*Node) {
	c.nodes = nodes
	c.initialize()
}

// initialize rebuilds the radius table, indexed by Node.Index.
func (c *Collide) initialize() {
	if c.nodes == nil {
		return
	}

	size := len(c.nodes)
	for _, n := range c.nodes {
		if n.Index < 0 {
			panic(fmt.Sprintf("force: negative node index %d", n.Index))
		}
		if n.Index >= size {
			size = n.Index + 1
		}
	}
	c.radii = make([]float64, size)
	for i, n := range c.nodes {
		c.radii[n.Index] = c.radius.Eval(n, i, c.nodes)
	}
}

// Strength returns the correction multiplier.
func (c *Collide) Strength() float64 {
	return c.strength
}

// SetStrength sets the correction multiplier.
func (c *Collide) SetStrength(strength float64) *Collide {
	c.strength = strength
	return c
}

// Iterations returns the number of passes per Apply.
func (c *Collide) Iterations() int {
	return c.iterations
}

// SetIterations sets the number of passes per Apply. Values <= 0 turn Apply
// into a no-op.
func (c *Collide) SetIterations(iterations int) *Collide {
	c.iterations = iterations
	return c
}

// Radius returns the radius source.
func (c *Collide) Radius() Param {
	return c.radius
}

// SetRadius replaces the radius source and recomputes the radius table for
// the bound nodes, if any.
func (c *Collide) SetRadius(radius Param) *Collide {
	if radius.IsZero() {
		radius = ConstParam(DefaultRadius)
	}
	c.radius = radius
	c.initialize()
	return c
}

// SetJiggle replaces the generator used to break ties on a zero axis.
func (c *Collide) SetJiggle(jiggle func() float64) *Collide {
	if jiggle != nil {
		c.jiggle = jiggle
	}
	return c
}

// Radii returns a copy of the resolved radius table.
func (c *Collide) Radii() []float64 {
	out := make([]float64, len(c.radii))
	copy(out, c.radii)
	return out
}

// Stats returns counters for the last Apply.
func (c *Collide) Stats() Stats {
	return c.stats
}

// Apply runs the configured number of passes. Each pass rebuilds the index
// from the current predicted positions, so corrections made by one pass are
// seen by the next. alpha is ignored.
func (c *Collide) Apply(alpha float64) {
	c.stats = Stats{}
	if c.nodes == nil {
		return
	}

	for k := 0; k < c.iterations; k++ {
		tree := quadtree.New(c.nodes, predictedX, predictedY)
		tree.VisitAfter(c.prepare(tree))

		for _, node := range c.nodes {
			ri := c.radii[node.Index]
			p := probe{
				node: node,
				x:    predictedX(node),
				y:    predictedY(node),
				r:    ri,
				r2:   ri * ri,
			}
			tree.Visit(func(q *quadtree.Node[*Node], b r2.Box) bool {
				return c.apply(&p, q, b)
			})
		}
		c.stats.Passes++
	}
}

// prepare stores in each quadtree node the largest radius found beneath it.
func (c *Collide) prepare(tree *quadtree.Tree[*Node]) func(q *quadtree.Node[*Node]) {
	return func(q *quadtree.Node[*Node]) {
		if q.IsLeaf() {
			q.R = c.radii[q.Data.Index]
			return
		}
		q.R = 0
		for i := 0; i < 4; i++ {
			for child := tree.Child(q, i); child != nil; child = tree.Next(child) {
				if child.R > q.R {
					q.R = child.R
				}
			}
		}
	}
}

// probe is the node under test during one descent. Its predicted position
// is fixed for the whole descent even though its velocity changes.
type probe struct {
	node  *Node
	x, y  float64
	r, r2 float64
}

// apply handles one quadtree node for probe p. It returns true when the
// node's box cannot hold anything that reaches p.
func (c *Collide) apply(p *probe, q *quadtree.Node[*Node], b r2.Box) bool {
	c.stats.Visits++
	rj := q.R
	r := p.r + rj

	if !q.IsLeaf() {
		return b.Min.X > p.x+r || b.Max.X < p.x-r || b.Min.Y > p.y+r || b.Max.Y < p.y-r
	}

	data := q.Data
	if data.Index <= p.node.Index {
		return false
	}

	x := p.x - data.X - data.VX
	y := p.y - data.Y - data.VY
	l := x*x + y*y
	// A non-finite probe yields NaN here and must not count as an overlap.
	if !(l < r*r) {
		return false
	}

	if x == 0 {
		x = c.jiggle()
		l += x * x
	}
	if y == 0 {
		y = c.jiggle()
		l += y * y
	}
	l = math.Sqrt(l)
	s := (r - l) / l * c.strength
	x *= s
	y *= s

	rj2 := rj * rj
	share := 0.5
	if sum := p.r2 + rj2; sum != 0 {
		share = rj2 / sum
	}
	p.node.VX += x * share
	p.node.VY += y * share
	data.VX -= x * (1 - share)
	data.VY -= y * (1 - share)
	c.stats.Collisions++
	return false
}
