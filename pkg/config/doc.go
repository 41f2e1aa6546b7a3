// Package config loads application configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
//
//   - LoadEnv reads one or more `.env` files into the process environment
//     without overriding variables that are already set.
//   - Load parses the environment into a struct annotated with `env` tags and,
//     when the struct implements Validator, validates the result.
//   - MustLoad panics on failure and is meant for process start-up.
//
// Nothing is cached between calls. Every component receives its config value
// explicitly, so tests can build configs by hand or call Load after t.Setenv.
//
// # Usage
//
//	type DatabaseConfig struct {
//	    URL string `env:"DATABASE_URL,required"`
//	}
//
//	var db DatabaseConfig
//	if err := config.Load(&db); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
package config
