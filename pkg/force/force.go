// pkg/force/force.go

// Package force implements velocity-based forces over a set of simulated
// nodes. A force is bound to a node slice once and then applied every tick;
// it reads positions and velocities and writes velocity corrections in place.
package force

// Node is a simulated point. Index is the node's identity: it must be unique
// and non-negative within a bound slice and is used both for ordering pairs
// and for radius lookups. Per-node tables are sized by the largest Index, so
// indices should stay close to the slice length. Forces never modify X, Y or
// Index.
type Node struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
}

// Force is applied once per simulation tick.
type Force interface {
	// Initialize binds the force to nodes. The slice is kept by reference.
	Initialize(nodes []*Node)
	// Apply runs one tick at the given cooling parameter.
	Apply(alpha float64)
}

// predictedX and predictedY locate a node where it is about to move.
func predictedX(n *Node) float64 {
	return n.X + n.VX
}

func predictedY(n *Node) float64 {
	return n.Y + n.VY
}
