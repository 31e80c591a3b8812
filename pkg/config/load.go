package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention GOVERNOR_FIELD (e.g., GOVERNOR_DEFAULT_MODEL) and always take
// precedence over file-based configuration. The API key additionally falls
// back to GEMINI_API_KEY, matching the variable the Gemini tooling ecosystem
// uses.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Client overrides
	if val := os.Getenv("GOVERNOR_DEFAULT_MODEL"); val != "" {
		cfg.Client.DefaultModel = val
	}
	if val := os.Getenv("GOVERNOR_FALLBACK_MODEL"); val != "" {
		cfg.Client.FallbackModel = val
	}
	if val := os.Getenv("GOVERNOR_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Client.MaxRetries = i
		}
	}
	if val := os.Getenv("GOVERNOR_RETRY_BACKOFF_BASE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Client.RetryBackoffBase = d
		}
	}

	// Generator overrides. GOVERNOR_API_KEY wins over GEMINI_API_KEY,
	// which wins over the file.
	if val := os.Getenv("GEMINI_API_KEY"); val != "" {
		cfg.Generator.APIKey = val
	}
	if val := os.Getenv("GOVERNOR_API_KEY"); val != "" {
		cfg.Generator.APIKey = val
	}
	if val := os.Getenv("GOVERNOR_BASE_URL"); val != "" {
		cfg.Generator.BaseURL = val
	}
	if val := os.Getenv("GOVERNOR_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Generator.Timeout = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("GOVERNOR_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GOVERNOR_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}
