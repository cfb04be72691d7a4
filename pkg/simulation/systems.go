// pkg/simulation/systems.go
package simulation

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-collide/pkg/force"
)

// body is a node tracked as an ECS entity
type body struct {
	basic *ecs.BasicEntity
	node  *force.Node
}

// collisionReporter is implemented by forces that count resolved overlaps
type collisionReporter interface {
	Stats() force.Stats
}

// ForceSystem applies every registered force once per update. It owns the
// node slice the forces are bound to and rebinds them whenever a body is
// added or removed.
type ForceSystem struct {
	bodies []body
	nodes  []*force.Node

	names  []string
	forces map[string]force.Force

	alpha      float64
	collisions int
}

// NewForceSystem creates an empty force system
func NewForceSystem() *ForceSystem {
	return &ForceSystem{forces: make(map[string]force.Force)}
}

// Priority runs forces before integration
func (fs *ForceSystem) Priority() int {
	return 10
}

// Add tracks a body and rebinds all forces
func (fs *ForceSystem) Add(basic *ecs.BasicEntity, node *force.Node) {
	fs.add(basic, node)
	fs.rebind()
}

func (fs *ForceSystem) add(basic *ecs.BasicEntity, node *force.Node) {
	fs.bodies = append(fs.bodies, body{basic: basic, node: node})
}

// Remove satisfies the ecs.System interface. Remaining bodies are re-indexed
// in order and all forces are rebound.
func (fs *ForceSystem) Remove(basic ecs.BasicEntity) {
	for i, b := range fs.bodies {
		if b.basic.ID() == basic.ID() {
			fs.bodies = append(fs.bodies[:i], fs.bodies[i+1:]...)
			fs.rebind()
			return
		}
	}
}

// rebind assigns node indices from body order and re-initializes every force
func (fs *ForceSystem) rebind() {
	fs.nodes = make([]*force.Node, len(fs.bodies))
	for i, b := range fs.bodies {
		b.node.Index = i
		fs.nodes[i] = b.node
	}
	for _, name := range fs.names {
		fs.forces[name].Initialize(fs.nodes)
	}
}

// Register binds f to the current nodes under name, replacing any force
// already registered under that name. A nil f removes the force.
func (fs *ForceSystem) Register(name string, f force.Force) {
	if _, ok := fs.forces[name]; ok {
		delete(fs.forces, name)
		for i, n := range fs.names {
			if n == name {
				fs.names = append(fs.names[:i], fs.names[i+1:]...)
				break
			}
		}
	}
	if f == nil {
		return
	}
	fs.forces[name] = f
	fs.names = append(fs.names, name)
	f.Initialize(fs.nodes)
}

// Force returns the force registered under name, or nil
func (fs *ForceSystem) Force(name string) force.Force {
	return fs.forces[name]
}

// Nodes returns the slice the forces are bound to
func (fs *ForceSystem) Nodes() []*force.Node {
	return fs.nodes
}

// Update applies the forces in registration order at the current alpha
func (fs *ForceSystem) Update(dt float32) {
	fs.collisions = 0
	for _, name := range fs.names {
		f := fs.forces[name]
		f.Apply(fs.alpha)
		if r, ok := f.(collisionReporter); ok {
			fs.collisions += r.Stats().Collisions
		}
	}
}

// IntegrateSystem damps velocities and moves bodies by them
type IntegrateSystem struct {
	bodies        []body
	velocityDecay float64
}

// NewIntegrateSystem creates an integration system. velocityDecay is the
// fraction of velocity removed each update.
func NewIntegrateSystem(velocityDecay float64) *IntegrateSystem {
	return &IntegrateSystem{velocityDecay: velocityDecay}
}

// Priority runs integration after forces
func (is *IntegrateSystem) Priority() int {
	return 0
}

// Add tracks a body
func (is *IntegrateSystem) Add(basic *ecs.BasicEntity, node *force.Node) {
	is.bodies = append(is.bodies, body{basic: basic, node: node})
}

// Remove satisfies the ecs.System interface
func (is *IntegrateSystem) Remove(basic ecs.BasicEntity) {
	for i, b := range is.bodies {
		if b.basic.ID() == basic.ID() {
			is.bodies = append(is.bodies[:i], is.bodies[i+1:]...)
			return
		}
	}
}

// Update applies velocity decay and advances positions
func (is *IntegrateSystem) Update(dt float32) {
	keep := 1 - is.velocityDecay
	for _, b := range is.bodies {
		n := b.node
		n.VX *= keep
		n.VY *= keep
		n.X += n.VX
		n.Y += n.VY
	}
}
