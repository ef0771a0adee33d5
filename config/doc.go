// Package config loads toolflow runtime configuration.
//
// Values come from a YAML file (config.yml or config.yaml, searched under
// cmd/<service>/, config/ and the working directory), then a .env file loaded
// with godotenv, then TOOLFLOW_* environment variables which take precedence:
//
//	cfg, err := config.Load("ci-runner")
//	// TOOLFLOW_ENGINE_MAX_PARALLEL=8 overrides engine.max_parallel
package config
