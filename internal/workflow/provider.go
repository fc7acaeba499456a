package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrWorkflowNotFound indicates no manifest exists for the requested name.
var ErrWorkflowNotFound = errors.New("workflow not found")

// Manifest file names probed per workflow directory, in preference order.
const (
	manifestYAML = "workflow.yaml"
	manifestJSON = "workflow.json"
)

// Provider loads workflow manifests from a root directory.
type Provider struct {
	root string
}

// NewProvider creates a provider reading manifests under root.
func NewProvider(root string) *Provider {
	return &Provider{root: root}
}

// Root returns the workflows root directory.
func (p *Provider) Root() string {
	return p.root
}

// Load reads and parses the manifest for the named workflow.
// Returns ErrWorkflowNotFound when neither workflow.yaml nor workflow.json
// exists for the name. Parse and read failures are returned as-is: a present
// but broken manifest is an error, not a missing workflow.
func (p *Provider) Load(name string) (*Manifest, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty workflow name", ErrWorkflowNotFound)
	}

	dir := filepath.Join(p.root, name)

	yamlPath := filepath.Join(dir, manifestYAML)
	if data, err := os.ReadFile(yamlPath); err == nil {
		m, err := parseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
		}
		return named(m, name), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", yamlPath, err)
	}

	jsonPath := filepath.Join(dir, manifestJSON)
	if data, err := os.ReadFile(jsonPath); err == nil {
		m, err := parseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", jsonPath, err)
		}
		return named(m, name), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", jsonPath, err)
	}

	return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, name)
}

// List returns the names of all workflows that have a manifest under root.
func (p *Provider) List() ([]string, error) {
	entries, err := os.ReadDir(p.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read workflows root %s: %w", p.root, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(p.root, e.Name())
		if fileExists(filepath.Join(dir, manifestYAML)) || fileExists(filepath.Join(dir, manifestJSON)) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func parseYAML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func parseJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func named(m *Manifest, name string) *Manifest {
	if m.Name == "" {
		m.Name = name
	}
	return m
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
