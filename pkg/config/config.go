// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config contains configuration for a collision layout run
type Config struct {
	Nodes      NodeConfig       `json:"nodes"`
	Collide    CollideConfig    `json:"collide"`
	Simulation SimulationConfig `json:"simulation"`
}

// NodeConfig describes how bodies are scattered before the run
type NodeConfig struct {
	Count     int     `json:"count"`
	MinRadius float64 `json:"minRadius"`
	MaxRadius float64 `json:"maxRadius"`
	Spread    float64 `json:"spread"`
	Seed      uint64  `json:"seed"`
}

// CollideConfig contains collide force settings
type CollideConfig struct {
	Strength   float64 `json:"strength"`
	Iterations int     `json:"iterations"`
	JiggleSeed uint64  `json:"jiggleSeed"`
}

// SimulationConfig contains settings for the host tick loop
type SimulationConfig struct {
	Alpha         float64 `json:"alpha"`
	AlphaMin      float64 `json:"alphaMin"`
	AlphaDecay    float64 `json:"alphaDecay"` // 0 derives the decay from AlphaMin over 300 ticks
	AlphaTarget   float64 `json:"alphaTarget"`
	VelocityDecay float64 `json:"velocityDecay"`
	MaxTicks      int     `json:"maxTicks"` // 0 runs until alpha drops below AlphaMin

	TickInterval time.Duration `json:"tickInterval"`
}

// ConstantRadius reports whether every body shares one radius.
func (n NodeConfig) ConstantRadius() bool {
	return n.MinRadius == n.MaxRadius
}

// LoadConfig loads a configuration from a file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *Config, path string) error {
	if config == nil {
		return fmt.Errorf("failed to marshal config: nil config")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Nodes: NodeConfig{
			Count:     200,
			MinRadius: 2,
			MaxRadius: 8,
			Spread:    200,
			Seed:      1,
		},
		Collide: CollideConfig{
			Strength:   1,
			Iterations: 1,
			JiggleSeed: 1,
		},
		Simulation: SimulationConfig{
			Alpha:         1,
			AlphaMin:      0.001,
			AlphaDecay:    0,
			AlphaTarget:   0,
			VelocityDecay: 0.4,
			MaxTicks:      300,
		},
	}
}

// ValidationError reports the first invalid field found by Validate
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks that every setting is within its usable range
func (c *Config) Validate() error {
	switch {
	case c.Nodes.Count < 0:
		return &ValidationError{"Nodes.Count", "must not be negative"}
	case c.Nodes.MinRadius < 0:
		return &ValidationError{"Nodes.MinRadius", "must not be negative"}
	case c.Nodes.MaxRadius < c.Nodes.MinRadius:
		return &ValidationError{"Nodes.MaxRadius", "must not be smaller than MinRadius"}
	case c.Nodes.Spread <= 0:
		return &ValidationError{"Nodes.Spread", "must be positive"}
	case c.Collide.Strength < 0:
		return &ValidationError{"Collide.Strength", "must not be negative"}
	case c.Collide.Iterations < 0:
		return &ValidationError{"Collide.Iterations", "must not be negative"}
	case !unit(c.Simulation.Alpha):
		return &ValidationError{"Simulation.Alpha", "must be within [0, 1]"}
	case !unit(c.Simulation.AlphaMin):
		return &ValidationError{"Simulation.AlphaMin", "must be within [0, 1]"}
	case !unit(c.Simulation.AlphaDecay):
		return &ValidationError{"Simulation.AlphaDecay", "must be within [0, 1]"}
	case !unit(c.Simulation.AlphaTarget):
		return &ValidationError{"Simulation.AlphaTarget", "must be within [0, 1]"}
	case !unit(c.Simulation.VelocityDecay):
		return &ValidationError{"Simulation.VelocityDecay", "must be within [0, 1]"}
	case c.Simulation.MaxTicks < 0:
		return &ValidationError{"Simulation.MaxTicks", "must not be negative"}
	case c.Simulation.TickInterval < 0:
		return &ValidationError{"Simulation.TickInterval", "must not be negative"}
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
