// Package config provides centralized configuration management for the
// WashPulse service. It merges environment variables with an optional YAML
// overlay, validates the result, and exposes a type-safe API to the rest of
// the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. washpulse.yaml next to the executable (or WASH_CONFIG_FILE)
//	3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables use the WASH_ prefix:
//
//	WASH_SERVER_PORT=8080
//	WASH_STORE_STRATEGIES=mysql,snapshot
//	WASH_STORE_MYSQL_DSN=analytics:...@tcp(warehouse:3306)/carwash
//	WASH_GATE_PASSWORD_HASH=$2a$10$...
//	WASH_LOGGING_LEVEL=info
//
// # Store Strategies
//
// WASH_STORE_STRATEGIES is an ordered list. Each named strategy must have its
// DSN or path configured or it is skipped; there are no built-in fallback
// credentials. When every strategy is skipped or fails, loads return a typed
// store-unavailable error rather than partial data.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use config.Default() for a fully defaulted configuration that needs
// no environment and no external resources.
package config
