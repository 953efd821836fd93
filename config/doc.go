// Package config loads the service configuration of sdfsched.
//
// Viper reads a YAML file, godotenv exports an optional .env file, and every
// leaf key can be overridden from the environment:
//
//	cfg, err := config.LoadApp("sdfsched", config.WithEnvPrefix("SDFSCHED"))
//
// With that prefix SDFSCHED_SCHEDULE_MEMORY_OPTIMIZATION=true sets
// schedule.memory_optimization. AppConfig gathers the service, scheduling,
// HTTP server, telemetry and cache sections.
package config
