package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FLOWGATE_"

// DefaultPath returns the default config file location,
// ~/.config/flowgate/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "flowgate", "config.yaml"), nil
}

// Load reads configuration from the YAML file at configPath, then overrides
// with FLOWGATE_-prefixed environment variables. An empty configPath uses
// the default location; a missing file at either is not an error.
//
// Environment variables map to config keys with a double underscore as the
// nesting separator:
//
//	FLOWGATE_PROJECTS_DIR                  -> projects_dir
//	FLOWGATE_GOVERNANCE__STRICTNESS__LEVEL -> governance.strictness.level
//	FLOWGATE_LOGGING__LEVEL                -> logging.level
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = path
	}

	content, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults plus environment only.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// FLOWGATE_GOVERNANCE__STRICTNESS__LEVEL -> governance.strictness.level
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyDefaults backfills fields the file or environment cleared.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.ProjectsDir == "" {
		cfg.ProjectsDir = def.ProjectsDir
	}
	if cfg.WorkflowsDir == "" {
		cfg.WorkflowsDir = def.WorkflowsDir
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if !cfg.Logging.Output.Stdout && !cfg.Logging.Output.Stderr {
		cfg.Logging.Output = def.Logging.Output
	}
}
