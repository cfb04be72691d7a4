package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if config.Nodes.Count != 200 {
		t.Errorf("Expected Nodes.Count 200, got %d", config.Nodes.Count)
	}
	if config.Nodes.MinRadius != 2 || config.Nodes.MaxRadius != 8 {
		t.Errorf("Expected radii [2, 8], got [%v, %v]", config.Nodes.MinRadius, config.Nodes.MaxRadius)
	}
	if config.Collide.Strength != 1 {
		t.Errorf("Expected Collide.Strength 1, got %v", config.Collide.Strength)
	}
	if config.Collide.Iterations != 1 {
		t.Errorf("Expected Collide.Iterations 1, got %d", config.Collide.Iterations)
	}
	if config.Simulation.AlphaMin != 0.001 {
		t.Errorf("Expected Simulation.AlphaMin 0.001, got %v", config.Simulation.AlphaMin)
	}
	if config.Simulation.VelocityDecay != 0.4 {
		t.Errorf("Expected Simulation.VelocityDecay 0.4, got %v", config.Simulation.VelocityDecay)
	}
	if config.Nodes.ConstantRadius() {
		t.Error("Expected default radii to vary")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid, got %v", err)
	}
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "collide.json")

	testConfig := DefaultConfig()
	testConfig.Nodes.Count = 50
	testConfig.Nodes.MinRadius = 3
	testConfig.Nodes.MaxRadius = 3
	testConfig.Collide.Strength = 0.7
	testConfig.Collide.Iterations = 4
	testConfig.Simulation.MaxTicks = 120
	testConfig.Simulation.TickInterval = 16 * time.Millisecond

	data, err := json.Marshal(testConfig)
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if *loaded != *testConfig {
		t.Errorf("Loaded config %+v does not match %+v", loaded, testConfig)
	}
	if !loaded.Nodes.ConstantRadius() {
		t.Error("Expected equal radii to report a constant radius")
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(configPath, []byte(`{"collide": {"iterations": 3}}`), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Collide.Iterations != 3 {
		t.Errorf("Expected Iterations 3, got %d", loaded.Collide.Iterations)
	}
	if loaded.Collide.Strength != 1 {
		t.Errorf("Expected default Strength 1, got %v", loaded.Collide.Strength)
	}
	if loaded.Nodes.Count != 200 {
		t.Errorf("Expected default Count 200, got %d", loaded.Nodes.Count)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))

	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Unexpected error message: %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(configPath, []byte(`{"nodes": `), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadConfig(configPath)

	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(configPath, []byte(`{"simulation": {"velocityDecay": 2}}`), 0o644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadConfig(configPath)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Field != "Simulation.VelocityDecay" {
		t.Errorf("Expected field Simulation.VelocityDecay, got %s", verr.Field)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "saved.json")
	config := DefaultConfig()
	config.Nodes.Seed = 99

	if err := SaveConfig(config, configPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read saved config: %v", err)
	}
	if !strings.Contains(string(data), `"velocityDecay": 0.4`) {
		t.Errorf("Expected indented JSON with velocityDecay, got %s", data)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Nodes.Seed != 99 {
		t.Errorf("Expected seed 99, got %d", loaded.Nodes.Seed)
	}
}

func TestSaveConfig_InvalidPath(t *testing.T) {
	err := SaveConfig(DefaultConfig(), filepath.Join(t.TempDir(), "missing", "dir", "config.json"))
	if err == nil {
		t.Error("Expected error for invalid path")
	}
}

func TestSaveConfig_NilConfig(t *testing.T) {
	err := SaveConfig(nil, filepath.Join(t.TempDir(), "nil.json"))
	if err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero_iterations_allowed", func(c *Config) { c.Collide.Iterations = 0 }, ""},
		{"zero_nodes_allowed", func(c *Config) { c.Nodes.Count = 0 }, ""},
		{"negative_count", func(c *Config) { c.Nodes.Count = -1 }, "Nodes.Count"},
		{"negative_min_radius", func(c *Config) { c.Nodes.MinRadius = -1 }, "Nodes.MinRadius"},
		{"max_below_min", func(c *Config) { c.Nodes.MaxRadius = 1 }, "Nodes.MaxRadius"},
		{"zero_spread", func(c *Config) { c.Nodes.Spread = 0 }, "Nodes.Spread"},
		{"negative_strength", func(c *Config) { c.Collide.Strength = -0.5 }, "Collide.Strength"},
		{"negative_iterations", func(c *Config) { c.Collide.Iterations = -1 }, "Collide.Iterations"},
		{"alpha_above_one", func(c *Config) { c.Simulation.Alpha = 1.5 }, "Simulation.Alpha"},
		{"negative_alpha_min", func(c *Config) { c.Simulation.AlphaMin = -0.1 }, "Simulation.AlphaMin"},
		{"alpha_decay_above_one", func(c *Config) { c.Simulation.AlphaDecay = 2 }, "Simulation.AlphaDecay"},
		{"alpha_target_above_one", func(c *Config) { c.Simulation.AlphaTarget = 1.1 }, "Simulation.AlphaTarget"},
		{"velocity_decay_negative", func(c *Config) { c.Simulation.VelocityDecay = -1 }, "Simulation.VelocityDecay"},
		{"negative_max_ticks", func(c *Config) { c.Simulation.MaxTicks = -5 }, "Simulation.MaxTicks"},
		{"negative_interval", func(c *Config) { c.Simulation.TickInterval = -time.Second }, "Simulation.TickInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}
