// Package health serves liveness and readiness probes for long simulation
// runs. Probes never touch simulation state directly: a Progress follows the
// run through its tick and end events and checks read that snapshot.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/opd-ai/go-collide/pkg/event"
)

// HealthCheck defines the interface for individual health checks.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// Status values reported by probes
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the aggregated result of all checks.
type HealthStatus struct {
	Status   string                     `json:"status"`
	Progress Snapshot                   `json:"progress"`
	Checks   map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of one check.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker runs registered checks and serves them over HTTP.
type HealthChecker struct {
	progress *Progress
	checks   map[string]HealthCheck
	mu       sync.RWMutex
}

// NewHealthChecker creates a checker reporting on progress. A nil progress
// reports an empty snapshot.
func NewHealthChecker(progress *Progress) *HealthChecker {
	if progress == nil {
		progress = NewProgress()
	}
	return &HealthChecker{
		progress: progress,
		checks:   make(map[string]HealthCheck),
	}
}

// AddCheck registers a check, replacing any check with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth runs every check in name order. The overall status is healthy
// only if all checks pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	checks := make([]HealthCheck, len(names))
	sort.Strings(names)
	for i, name := range names {
		checks[i] = hc.checks[name]
	}
	hc.mu.RUnlock()

	status := HealthStatus{
		Status:   StatusHealthy,
		Progress: hc.progress.Snapshot(),
		Checks:   make(map[string]ComponentHealth, len(checks)),
	}
	for i, check := range checks {
		if err := check.Check(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[names[i]] = ComponentHealth{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[names[i]] = ComponentHealth{Status: StatusHealthy}
	}
	return status
}

// LivenessHandler answers 200 with the current progress while the process
// can serve requests.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(struct {
		Status   string   `json:"status"`
		Progress Snapshot `json:"progress"`
	}{"alive", hc.progress.Snapshot()})
}

// ReadinessHandler runs all checks and answers 200 when they pass or 503
// otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")
	if health.Status == StatusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

// Handler returns a mux serving /health and /ready.
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hc.LivenessHandler)
	mux.HandleFunc("/ready", hc.ReadinessHandler)
	return mux
}

// Snapshot is the state of a run as of its last event.
type Snapshot struct {
	Tick       int       `json:"tick"`
	Alpha      float64   `json:"alpha"`
	Collisions int       `json:"collisions"`
	LastTick   time.Time `json:"lastTick"`
	Ended      bool      `json:"ended"`
	Reason     string    `json:"reason,omitempty"`
}

// Progress follows a simulation run through the event bus. It is safe for
// concurrent use.
type Progress struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewProgress creates an empty progress tracker.
func NewProgress() *Progress {
	return &Progress{now: time.Now}
}

// Observe subscribes to tick and end events on bus. The returned function
// stops observing.
func (p *Progress) Observe(bus *event.Bus) func() {
	tick := bus.Subscribe(event.SimulationTick, func(e event.Event) {
		t := e.(*event.TickEvent)
		p.mu.Lock()
		p.snap.Tick = t.Tick
		p.snap.Alpha = t.Alpha
		p.snap.Collisions = t.Collisions
		p.snap.LastTick = p.now()
		p.mu.Unlock()
	})
	end := bus.Subscribe(event.SimulationEnd, func(e event.Event) {
		t := e.(*event.EndEvent)
		p.mu.Lock()
		p.snap.Tick = t.Ticks
		p.snap.Alpha = t.Alpha
		p.snap.Ended = true
		p.snap.Reason = t.Reason
		p.mu.Unlock()
	})
	return func() {
		tick.Cancel()
		end.Cancel()
	}
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// StallCheck fails when a running simulation has not ticked for longer than
// MaxGap, or when the run was cancelled.
type StallCheck struct {
	progress *Progress
	maxGap   time.Duration
}

// NewStallCheck creates a stall check over progress.
func NewStallCheck(progress *Progress, maxGap time.Duration) *StallCheck {
	return &StallCheck{progress: progress, maxGap: maxGap}
}

// Name returns the name of this health check.
func (s *StallCheck) Name() string {
	return "simulation"
}

// Check verifies the simulation is still advancing.
func (s *StallCheck) Check(ctx context.Context) error {
	snap := s.progress.Snapshot()
	if snap.Ended {
		if snap.Reason == event.ReasonCancelled {
			return fmt.Errorf("simulation cancelled after %d ticks", snap.Tick)
		}
		return nil
	}
	if snap.LastTick.IsZero() {
		return nil
	}
	if gap := s.progress.now().Sub(snap.LastTick); gap > s.maxGap {
		return fmt.Errorf("no tick for %s (limit %s)", gap, s.maxGap)
	}
	return nil
}

// SettledCheck fails until the simulation run has ended.
type SettledCheck struct {
	progress *Progress
}

// NewSettledCheck creates a settled check over progress.
func NewSettledCheck(progress *Progress) *SettledCheck {
	return &SettledCheck{progress: progress}
}

// Name returns the name of this health check.
func (s *SettledCheck) Name() string {
	return "settled"
}

// Check reports whether the final layout is available.
func (s *SettledCheck) Check(ctx context.Context) error {
	snap := s.progress.Snapshot()
	if !snap.Ended {
		return fmt.Errorf("simulation running at tick %d (alpha %.4f)", snap.Tick, snap.Alpha)
	}
	return nil
}

// MemoryHealthCheck fails when memory usage exceeds a limit.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}
