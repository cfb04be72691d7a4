// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	SimulationTick  Type = "simulation_tick"
	SimulationEnd   Type = "simulation_end"
	NodeAdded       Type = "node_added"
	NodeRemoved     Type = "node_removed"
	ForceRegistered Type = "force_registered"
	ForceRemoved    Type = "force_removed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run synchronously
// on the publishing goroutine.
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// Subscription identifies one registered handler.
type Subscription struct {
	bus       *Bus
	eventType Type
	id        uint64
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})
	return &Subscription{bus: b, eventType: eventType, id: id}
}

// Cancel removes the handler from its bus. Cancelling twice is harmless.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[s.eventType]
	for i, r := range regs {
		if r.id == s.id {
			b.handlers[s.eventType] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(b.handlers[s.eventType]) == 0 {
		delete(b.handlers, s.eventType)
	}
	s.bus = nil
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, r := range regs {
		r.handler(event)
	}
}

// TickEvent is published after every simulation tick
type TickEvent struct {
	BaseEvent
	Tick       int
	Alpha      float64
	Collisions int
}

// NewTickEvent creates a new tick event
func NewTickEvent(source interface{}, tick int, alpha float64, collisions int) *TickEvent {
	return &TickEvent{
		BaseEvent: BaseEvent{
			EventType: SimulationTick,
			Source:    source,
		},
		Tick:       tick,
		Alpha:      alpha,
		Collisions: collisions,
	}
}

// Reasons carried by EndEvent
const (
	ReasonSettled   = "settled"
	ReasonMaxTicks  = "max_ticks"
	ReasonCancelled = "cancelled"
)

// EndEvent is published once a simulation run stops
type EndEvent struct {
	BaseEvent
	Ticks  int
	Alpha  float64
	Reason string
}

// NewEndEvent creates a new end event
func NewEndEvent(source interface{}, ticks int, alpha float64, reason string) *EndEvent {
	return &EndEvent{
		BaseEvent: BaseEvent{
			EventType: SimulationEnd,
			Source:    source,
		},
		Ticks:  ticks,
		Alpha:  alpha,
		Reason: reason,
	}
}

// NodeEvent reports a node entering or leaving a simulation
type NodeEvent struct {
	BaseEvent
	EntityID uint64
	Index    int
}

// NewNodeEvent creates a new node event
func NewNodeEvent(eventType Type, source interface{}, entityID uint64, index int) *NodeEvent {
	return &NodeEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		EntityID: entityID,
		Index:    index,
	}
}

// ForceEvent reports a force being registered or removed by name
type ForceEvent struct {
	BaseEvent
	Name string
}

// NewForceEvent creates a new force event
func NewForceEvent(eventType Type, source interface{}, name string) *ForceEvent {
	return &ForceEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Name: name,
	}
}
