package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectExists    = errors.New("project already exists")
	ErrMetadataNotFound = errors.New("project metadata not found")
)

// Project layout constants.
const (
	configDir      = ".agentic"
	configFile     = "project_config.json"
	logDirName     = "agent_log"
	contextDirName = "agent_context"

	// InputDirName, PlanningSubdirName, and ArtifactsDirName are exported
	// for the rule conditions that probe artifact locations.
	InputDirName       = "input"
	PlanningSubdirName = "planning_artifacts"
	ArtifactsDirName   = "artifacts"
)

// RequiredDirs lists the directories every initialized project carries.
// The init-context structure rule checks these.
var RequiredDirs = []string{
	InputDirName,
	ArtifactsDirName,
	logDirName,
	contextDirName,
}

// Store reads and writes project state under a projects root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at the given projects directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the projects root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of the named project. The directory may not
// exist.
func (s *Store) Dir(name string) string {
	return filepath.Join(s.root, name)
}

// DirExists reports whether the project directory is present.
func (s *Store) DirExists(name string) bool {
	info, err := os.Stat(s.Dir(name))
	return err == nil && info.IsDir()
}

// Exists reports whether the project is initialized: directory plus
// metadata record.
func (s *Store) Exists(name string) bool {
	if !s.DirExists(name) {
		return false
	}
	_, err := os.Stat(s.ConfigPath(name))
	return err == nil
}

// ConfigPath returns the metadata file path for the named project.
func (s *Store) ConfigPath(name string) string {
	return filepath.Join(s.Dir(name), configDir, configFile)
}

// LogDir returns the project's agent_log directory.
func (s *Store) LogDir(name string) string {
	return filepath.Join(s.Dir(name), logDirName)
}

// InputDir returns the project's input directory.
func (s *Store) InputDir(name string) string {
	return filepath.Join(s.Dir(name), InputDirName)
}

// PlanningArtifactsDir returns the synced planning artifacts directory.
func (s *Store) PlanningArtifactsDir(name string) string {
	return filepath.Join(s.Dir(name), InputDirName, PlanningSubdirName)
}

// ArtifactsDir returns the project's artifacts directory.
func (s *Store) ArtifactsDir(name string) string {
	return filepath.Join(s.Dir(name), ArtifactsDirName)
}

// List returns the names of all initialized projects under the root.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read projects root %s: %w", s.root, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && s.Exists(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Init creates the named project: the required directory skeleton plus an
// initial metadata record with a fresh project ID. firstStage may be empty
// when the workflow defines no pipeline.
func (s *Store) Init(name, workflowName, firstStage string, at time.Time) (*Metadata, error) {
	if s.Exists(name) {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, name)
	}

	dirs := append([]string{}, RequiredDirs...)
	dirs = append(dirs, filepath.Join(InputDirName, PlanningSubdirName), configDir)
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(s.Dir(name), dir), 0o755); err != nil {
			return nil, fmt.Errorf("create project dir %s: %w", dir, err)
		}
	}

	meta := NewMetadata()
	meta.Set("id", uuid.NewString())
	meta.Set("name", name)
	meta.Set("created_at", at.UTC().Format(time.RFC3339))
	meta.SetWorkflow(workflowName)
	if firstStage != "" {
		meta.SetCurrentStage(firstStage, at)
	}

	if err := s.SaveMetadata(name, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// LoadMetadata reads the project's metadata record.
// Returns ErrMetadataNotFound when the record does not exist; genuine read
// failures propagate.
func (s *Store) LoadMetadata(name string) (*Metadata, error) {
	data, err := os.ReadFile(s.ConfigPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMetadataNotFound, name)
		}
		return nil, fmt.Errorf("read metadata for %s: %w", name, err)
	}
	return ParseMetadata(data)
}

// SaveMetadata writes the project's metadata record. The project directory
// must already exist; the .agentic subdirectory is created on demand.
func (s *Store) SaveMetadata(name string, meta *Metadata) error {
	if !s.DirExists(name) {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, name)
	}

	data, err := meta.Encode()
	if err != nil {
		return err
	}

	path := s.ConfigPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metadata dir for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata for %s: %w", name, err)
	}
	return nil
}
