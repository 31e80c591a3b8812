// Package config provides configuration management for Governor.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults, plus a file
// watcher for live reloads of rate limit tiers.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("governor.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("governor.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GOVERNOR_FIELD.
// For example:
//
//   - GOVERNOR_DEFAULT_MODEL overrides client.default_model
//   - GOVERNOR_API_KEY overrides generator.api_key
//   - GOVERNOR_LOG_LEVEL overrides telemetry.logging.level
//
// The API key additionally falls back to GEMINI_API_KEY, so existing Gemini
// tooling environments work unchanged. Environment variables always take
// precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Live Reload
//
// The Watcher reloads configuration when the file changes, debouncing event
// bursts. Pair it with ratelimit.Limiter.Configure to apply tightened or
// relaxed tiers without a restart:
//
//	w, _ := config.NewWatcher(&config.WatcherConfig{Path: "governor.yaml"}, logger)
//	go w.Watch(ctx, func() error {
//	    cfg, err := config.LoadConfigWithEnvOverrides("governor.yaml")
//	    if err != nil {
//	        return err
//	    }
//	    limiter.Configure(cfg.Limits.Models)
//	    return nil
//	})
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	client:
//	  default_model: "gemini-1.5-flash"
//	  fallback_model: "gemini-2.0-flash"
//	  max_retries: 3
//
//	generator:
//	  base_url: "https://generativelanguage.googleapis.com/v1beta"
//	  timeout: 60s
//
//	limits:
//	  models:
//	    gemini-1.5-flash:
//	      rpm: 15
//	      rpd: 1500
//	      circuit_breaker_threshold: 3
//	      circuit_breaker_timeout: 60s
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses
// read-write locks to allow concurrent reads while protecting against
// concurrent writes during reload operations.
package config
