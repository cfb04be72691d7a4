// pkg/config/env_config.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by LoadConfigFromEnv and ApplyEnvironmentOverrides
const (
	EnvNodeCount     = "COLLIDE_NODE_COUNT"
	EnvRadius        = "COLLIDE_RADIUS"
	EnvStrength      = "COLLIDE_STRENGTH"
	EnvIterations    = "COLLIDE_ITERATIONS"
	EnvVelocityDecay = "COLLIDE_VELOCITY_DECAY"
	EnvAlphaMin      = "COLLIDE_ALPHA_MIN"
	EnvMaxTicks      = "COLLIDE_MAX_TICKS"
	EnvSeed          = "COLLIDE_SEED"
	EnvTickInterval  = "COLLIDE_TICK_INTERVAL"
)

// LoadConfigFromEnv returns the default configuration with environment
// overrides applied.
func LoadConfigFromEnv() (*Config, error) {
	config := DefaultConfig()
	if err := ApplyEnvironmentOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnvironmentOverrides overwrites fields of config from COLLIDE_*
// variables. Unset or unparsable variables leave the field unchanged.
// COLLIDE_RADIUS sets both the minimum and maximum radius.
func ApplyEnvironmentOverrides(config *Config) error {
	config.Nodes.Count = getEnvAsIntOrDefault(EnvNodeCount, config.Nodes.Count)
	if r := getEnvAsFloatOrDefault(EnvRadius, -1); r >= 0 {
		config.Nodes.MinRadius = r
		config.Nodes.MaxRadius = r
	}
	config.Nodes.Seed = getEnvAsUint64OrDefault(EnvSeed, config.Nodes.Seed)

	config.Collide.Strength = getEnvAsFloatOrDefault(EnvStrength, config.Collide.Strength)
	config.Collide.Iterations = getEnvAsIntOrDefault(EnvIterations, config.Collide.Iterations)

	config.Simulation.VelocityDecay = getEnvAsFloatOrDefault(EnvVelocityDecay, config.Simulation.VelocityDecay)
	config.Simulation.AlphaMin = getEnvAsFloatOrDefault(EnvAlphaMin, config.Simulation.AlphaMin)
	config.Simulation.MaxTicks = getEnvAsIntOrDefault(EnvMaxTicks, config.Simulation.MaxTicks)
	config.Simulation.TickInterval = getEnvAsDurationOrDefault(EnvTickInterval, config.Simulation.TickInterval)

	return config.Validate()
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsUint64OrDefault(key string, defaultValue uint64) uint64 {
	if value, err := strconv.ParseUint(os.Getenv(key), 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
