// Package config provides configuration loading for flowgate.
//
// Configuration cascades from three sources, lowest precedence first:
// built-in defaults, the YAML config file (~/.config/flowgate/config.yaml
// by default), and FLOWGATE_-prefixed environment variables.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/flowgate/internal/logging"
)

// Config holds the complete flowgate configuration.
type Config struct {
	ProjectsDir  string         `koanf:"projects_dir"`
	WorkflowsDir string         `koanf:"workflows_dir"`
	Logging      logging.Config `koanf:"logging"`
	Governance   Governance     `koanf:"governance"`
}

// Governance holds the rule-engine configuration section.
type Governance struct {
	Strictness Strictness      `koanf:"strictness"`
	Rules      map[string]Rule `koanf:"rules"`
}

// Strictness selects the active governance level.
type Strictness struct {
	Level string `koanf:"level"`
}

// Rule declares a governance rule in configuration. A declaration whose name
// matches a built-in rule overrides that rule's descriptive fields; any
// other declaration defines a new rule whose condition is synthesized from
// the three declarative predicate lists.
type Rule struct {
	Description   string `koanf:"description"`
	Context       string `koanf:"context"`
	Level         string `koanf:"level"`
	ErrorMessage  string `koanf:"error_message"`
	FixSuggestion string `koanf:"fix_suggestion"`
	Enabled       *bool  `koanf:"enabled"`

	RequiredFiles   []string `koanf:"required_files"`
	RequiredContext []string `koanf:"required_context"`
	BlockedBy       []string `koanf:"blocked_by"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ProjectsDir:  "projects",
		WorkflowsDir: "workflows",
		Logging:      *logging.NewDefaultConfig(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ProjectsDir == "" {
		return fmt.Errorf("projects_dir cannot be empty")
	}
	if c.WorkflowsDir == "" {
		return fmt.Errorf("workflows_dir cannot be empty")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
