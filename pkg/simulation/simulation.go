// pkg/simulation/simulation.go

// Package simulation hosts forces in a cooling tick loop. Nodes are ECS
// entities; a force system applies registered forces and an integration
// system damps velocities and moves nodes, in that order, once per tick.
package simulation

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/EngoEngine/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/opd-ai/go-collide/pkg/config"
	"github.com/opd-ai/go-collide/pkg/event"
	"github.com/opd-ai/go-collide/pkg/force"
	"github.com/opd-ai/go-collide/pkg/logging"
)

const (
	initialRadius = 10.0
	decayTicks    = 300
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// ErrUnknownNode is returned when removing an entity the simulation does not hold
var ErrUnknownNode = errors.New("unknown node")

// Simulation drives registered forces over a set of nodes. It is not safe for
// concurrent use.
type Simulation struct {
	world     *ecs.World
	forces    *ForceSystem
	integrate *IntegrateSystem
	entities  map[uint64]*ecs.BasicEntity

	alpha       float64
	alphaMin    float64
	alphaDecay  float64
	alphaTarget float64
	maxTicks    int
	interval    time.Duration
	ticks       int

	logger *logging.Logger
	bus    *event.Bus
}

// New creates a simulation over nodes using cfg. Nodes with a NaN coordinate
// are placed on a phyllotaxis spiral and NaN velocities are zeroed. A nil
// logger discards output and a nil bus gets a private one.
func New(nodes []*force.Node, cfg config.SimulationConfig, logger *logging.Logger, bus *event.Bus) *Simulation {
	if logger == nil {
		logger = logging.Discard()
	}
	if bus == nil {
		bus = event.NewEventBus()
	}

	s := &Simulation{
		world:       &ecs.World{},
		forces:      NewForceSystem(),
		integrate:   NewIntegrateSystem(cfg.VelocityDecay),
		entities:    make(map[uint64]*ecs.BasicEntity),
		alpha:       cfg.Alpha,
		alphaMin:    cfg.AlphaMin,
		alphaDecay:  cfg.AlphaDecay,
		alphaTarget: cfg.AlphaTarget,
		maxTicks:    cfg.MaxTicks,
		interval:    cfg.TickInterval,
		logger:      logger,
		bus:         bus,
	}
	if s.alphaDecay == 0 {
		s.alphaDecay = DefaultAlphaDecay(cfg.AlphaMin)
	}

	s.world.AddSystem(s.forces)
	s.world.AddSystem(s.integrate)

	for i, n := range nodes {
		place(n, i)
		s.track(n)
	}
	s.forces.rebind()

	return s
}

// DefaultAlphaDecay returns the decay that takes alpha from 1 to alphaMin in
// 300 ticks.
func DefaultAlphaDecay(alphaMin float64) float64 {
	if alphaMin <= 0 {
		return 0
	}
	return 1 - math.Pow(alphaMin, 1.0/decayTicks)
}

// Phyllotaxis returns the initial position of the i-th node.
func Phyllotaxis(i int) r2.Vec {
	radius := initialRadius * math.Sqrt(0.5+float64(i))
	angle := float64(i) * initialAngle
	return r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
}

func place(n *force.Node, i int) {
	if math.IsNaN(n.X) || math.IsNaN(n.Y) {
		p := Phyllotaxis(i)
		n.X, n.Y = p.X, p.Y
	}
	if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
		n.VX, n.VY = 0, 0
	}
}

// track creates an entity for n and hands it to both systems without
// rebinding forces.
func (s *Simulation) track(n *force.Node) uint64 {
	basic := ecs.NewBasic()
	s.entities[basic.ID()] = &basic
	s.forces.add(&basic, n)
	s.integrate.Add(&basic, n)
	return basic.ID()
}

// AddNode appends n, rebinds every force and returns the node's entity ID.
func (s *Simulation) AddNode(n *force.Node) uint64 {
	place(n, len(s.forces.bodies))
	id := s.track(n)
	s.forces.rebind()
	s.bus.Publish(event.NewNodeEvent(event.NodeAdded, s, id, n.Index))
	return id
}

// RemoveNode removes the node held by entity id. Remaining nodes are
// re-indexed in order and every force is rebound.
func (s *Simulation) RemoveNode(id uint64) error {
	basic, ok := s.entities[id]
	if !ok {
		return ErrUnknownNode
	}

	index := -1
	for _, b := range s.forces.bodies {
		if b.basic.ID() == id {
			index = b.node.Index
			break
		}
	}

	delete(s.entities, id)
	s.world.RemoveEntity(*basic)
	s.bus.Publish(event.NewNodeEvent(event.NodeRemoved, s, id, index))
	return nil
}

// Nodes returns the simulated nodes in index order.
func (s *Simulation) Nodes() []*force.Node {
	return s.forces.Nodes()
}

// EntityIDs returns the entity ID of each node in index order.
func (s *Simulation) EntityIDs() []uint64 {
	ids := make([]uint64, len(s.forces.bodies))
	for i, b := range s.forces.bodies {
		ids[i] = b.basic.ID()
	}
	return ids
}

// SetForce registers f under name and binds it to the current nodes. A nil f
// removes the force registered under name.
func (s *Simulation) SetForce(name string, f force.Force) *Simulation {
	_, existed := s.forces.forces[name]
	s.forces.Register(name, f)
	switch {
	case f != nil:
		s.bus.Publish(event.NewForceEvent(event.ForceRegistered, s, name))
	case existed:
		s.bus.Publish(event.NewForceEvent(event.ForceRemoved, s, name))
	}
	return s
}

// Force returns the force registered under name, or nil.
func (s *Simulation) Force(name string) force.Force {
	return s.forces.Force(name)
}

// Alpha returns the current cooling parameter.
func (s *Simulation) Alpha() float64 {
	return s.alpha
}

// SetAlpha sets the current cooling parameter.
func (s *Simulation) SetAlpha(alpha float64) *Simulation {
	s.alpha = alpha
	return s
}

// AlphaTarget returns the value alpha decays toward.
func (s *Simulation) AlphaTarget() float64 {
	return s.alphaTarget
}

// SetAlphaTarget sets the value alpha decays toward.
func (s *Simulation) SetAlphaTarget(target float64) *Simulation {
	s.alphaTarget = target
	return s
}

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int {
	return s.ticks
}

// Collisions returns the overlaps corrected during the last tick by forces
// that report them.
func (s *Simulation) Collisions() int {
	return s.forces.collisions
}

// Tick runs n ticks without publishing events or checking alpha.
func (s *Simulation) Tick(n int) *Simulation {
	for i := 0; i < n; i++ {
		s.step()
	}
	return s
}

func (s *Simulation) step() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay
	s.forces.alpha = s.alpha
	s.world.Update(1)
	s.ticks++
}

// Run ticks until alpha drops below the minimum, the tick limit is reached or
// ctx is cancelled. A tick event is published after every tick and an end
// event when the loop stops. With a positive tick interval, ticks are paced
// by a ticker.
func (s *Simulation) Run(ctx context.Context) error {
	var pace <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		pace = ticker.C
	}

	s.logger.Info(ctx, "Simulation started",
		"nodes", len(s.forces.bodies),
		"forces", len(s.forces.names),
		"alpha", s.alpha,
	)

	for {
		if err := ctx.Err(); err != nil {
			s.end(ctx, event.ReasonCancelled)
			return err
		}
		if s.alpha < s.alphaMin {
			s.end(ctx, event.ReasonSettled)
			return nil
		}
		if s.maxTicks > 0 && s.ticks >= s.maxTicks {
			s.end(ctx, event.ReasonMaxTicks)
			return nil
		}

		s.step()
		s.logger.Debug(ctx, "Tick",
			"tick", s.ticks,
			"alpha", s.alpha,
			"collisions", s.forces.collisions,
		)
		s.bus.Publish(event.NewTickEvent(s, s.ticks, s.alpha, s.forces.collisions))

		if pace != nil {
			select {
			case <-ctx.Done():
			case <-pace:
			}
		}
	}
}

func (s *Simulation) end(ctx context.Context, reason string) {
	s.logger.Info(ctx, "Simulation ended",
		"reason", reason,
		"ticks", s.ticks,
		"alpha", s.alpha,
	)
	s.bus.Publish(event.NewEndEvent(s, s.ticks, s.alpha, reason))
}
