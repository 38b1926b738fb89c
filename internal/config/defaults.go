package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers every key so environment overrides resolve even
// when no config file mentions them.
func setDefaults(v *viper.Viper) {
	// Simulation
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.days", 100)
	v.SetDefault("simulation.max_population", 1000)
	v.SetDefault("simulation.starting_colonists", 10)
	v.SetDefault("simulation.auto_staff", true)
	v.SetDefault("simulation.step_interval", time.Duration(0))
	v.SetDefault("simulation.map_radius", 6)

	// Database
	v.SetDefault("database.path", "data/colony.db")
	v.SetDefault("database.save_every", 1)

	// API
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.allowed_origins", []string{})
	v.SetDefault("api.rate_limit.requests_per_second", 5.0)
	v.SetDefault("api.rate_limit.burst", 10)

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
