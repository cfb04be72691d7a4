// pkg/simulation/layout.go
package simulation

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/force"
	"github.com/opd-ai/go-collide/pkg/physics"
)

// Scatter places cfg.Count bodies uniformly in a square of side cfg.Spread
// centred on the origin and draws each radius uniformly from
// [cfg.MinRadius, cfg.MaxRadius]. The same seed yields the same layout.
func Scatter(cfg config.NodeConfig) ([]*force.Node, []float64) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	nodes := make([]*force.Node, cfg.Count)
	radii := make([]float64, cfg.Count)
	for i := range nodes {
		nodes[i] = &force.Node{
			Index: i,
			X:     (rng.Float64() - 0.5) * cfg.Spread,
			Y:     (rng.Float64() - 0.5) * cfg.Spread,
		}
		radii[i] = cfg.MinRadius + (cfg.MaxRadius-cfg.MinRadius)*rng.Float64()
	}
	return nodes, radii
}

// NewCollide builds a collide force from cfg. Radii are looked up by node
// index; with a constant radius configuration the constant is used instead.
func NewCollide(cfg *config.Config, radii []float64) *force.Collide {
	radius := force.ConstParam(cfg.Nodes.MinRadius)
	if !cfg.Nodes.ConstantRadius() {
		radius = force.FuncParam(func(n *force.Node, _ int, _ []*force.Node) float64 {
			if n.Index < len(radii) {
				return radii[n.Index]
			}
			return cfg.Nodes.MinRadius
		})
	}

	return force.NewCollide(radius).
		SetStrength(cfg.Collide.Strength).
		SetIterations(cfg.Collide.Iterations).
		SetJiggle(force.NewJiggle(rand.NewSource(cfg.Collide.JiggleSeed)))
}

// Circles returns the current position of each node paired with its radius
// from the table, for overlap measurement.
func Circles(nodes []*force.Node, radii []float64) []physics.Circle {
	circles := make([]physics.Circle, len(nodes))
	for i, n := range nodes {
		circles[i] = physics.Circle{
			Center: r2.Vec{X: n.X, Y: n.Y},
			Radius: radii[n.Index],
		}
	}
	return circles
}
