// Package stage moves projects through their workflow pipeline.
//
// The pipeline order comes from the project's workflow manifest; the
// project's position in it lives in the metadata record. Transitions are
// validated forward-only and step-by-step unless the workflow allows
// skipping, and every applied transition is recorded in the metadata stage
// history and, when the project keeps a context log, in the ledger.
package stage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowgate/internal/ledger"
	"github.com/fyrsmithlabs/flowgate/internal/logging"
	"github.com/fyrsmithlabs/flowgate/internal/project"
	"github.com/fyrsmithlabs/flowgate/internal/workflow"
)

// TransitionCheck is the outcome of validating a proposed stage change.
type TransitionCheck struct {
	Valid   bool
	Message string
}

// Transition records an applied stage change.
type Transition struct {
	Previous string
	Current  string
}

// TransitionError is returned when a stage change fails validation. Its
// message is the validation message verbatim.
type TransitionError struct {
	From    string
	To      string
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

// Manager validates and applies stage transitions.
type Manager struct {
	projects  *project.Store
	workflows *workflow.Provider
	log       *logging.Logger
	now       func() time.Time
}

// NewManager creates a stage manager over the given stores.
func NewManager(projects *project.Store, workflows *workflow.Provider, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		projects:  projects,
		workflows: workflows,
		log:       log,
		now:       time.Now,
	}
}

// CurrentStage returns the project's recorded stage, which may be empty for
// projects initialized before stage tracking.
func (m *Manager) CurrentStage(projectName string) (string, error) {
	meta, err := m.projects.LoadMetadata(projectName)
	if err != nil {
		return "", err
	}
	return meta.CurrentStage(), nil
}

// ListStages returns the workflow's pipeline stages and the project's
// current stage.
func (m *Manager) ListStages(projectName string) ([]workflow.Stage, string, error) {
	meta, err := m.projects.LoadMetadata(projectName)
	if err != nil {
		return nil, "", err
	}
	manifest, err := m.manifestFor(meta.Workflow())
	if err != nil {
		return nil, "", err
	}
	return manifest.Stages, meta.CurrentStage(), nil
}

// ValidateStageTransition checks whether the project may move to the target
// stage. Validation failures are reported in the check, not the error; the
// error covers metadata access problems only.
func (m *Manager) ValidateStageTransition(projectName, target string) (TransitionCheck, error) {
	meta, err := m.projects.LoadMetadata(projectName)
	if err != nil {
		return TransitionCheck{}, err
	}
	return m.validate(meta.Workflow(), meta.CurrentStage(), target), nil
}

func (m *Manager) validate(workflowName, current, target string) TransitionCheck {
	manifest, err := m.manifestFor(workflowName)
	if err != nil {
		return TransitionCheck{Valid: false, Message: "Workflow config not found"}
	}

	stages := manifest.StageIDs()
	targetIdx := indexOf(stages, target)
	if targetIdx < 0 {
		return TransitionCheck{
			Valid:   false,
			Message: fmt.Sprintf("Unknown stage: %s. Valid: %s", target, strings.Join(stages, ", ")),
		}
	}

	currentIdx := indexOf(stages, current)
	if current == "" || currentIdx < 0 {
		return TransitionCheck{Valid: true, Message: "Current stage unknown, allowing transition"}
	}

	// Ordering applies only when the workflow asks for it; otherwise any
	// declared stage is reachable.
	if !manifest.EnforcesOrdering() {
		return TransitionCheck{Valid: true, Message: "Transition allowed"}
	}

	if targetIdx < currentIdx {
		return TransitionCheck{
			Valid:   false,
			Message: fmt.Sprintf("Cannot move backward from %s to %s", current, target),
		}
	}

	if targetIdx > currentIdx+1 && !manifest.Gating.AllowSkip {
		return TransitionCheck{
			Valid:   false,
			Message: fmt.Sprintf("Cannot skip stages. Next allowed: %s", stages[currentIdx+1]),
		}
	}

	return TransitionCheck{Valid: true, Message: "Transition allowed"}
}

// ValidateTransition checks a from/to stage pair against a workflow without
// consulting project state.
func (m *Manager) ValidateTransition(workflowName, from, to string) TransitionCheck {
	return m.validate(workflowName, from, to)
}

// SetStage moves the project to the target stage. With force set the
// ordering validation is bypassed; the target must still exist unless the
// workflow manifest itself is missing. Same-stage transitions are no-ops.
func (m *Manager) SetStage(ctx context.Context, projectName, target string, force bool) (*Transition, error) {
	meta, err := m.projects.LoadMetadata(projectName)
	if err != nil {
		return nil, err
	}
	current := meta.CurrentStage()

	if !force {
		check := m.validate(meta.Workflow(), current, target)
		if !check.Valid {
			return nil, &TransitionError{From: current, To: target, Message: check.Message}
		}
	}

	if current == target {
		m.log.Debug(ctx, "stage unchanged",
			zap.String("project", projectName),
			zap.String("stage", target))
		return &Transition{Previous: current, Current: current}, nil
	}

	at := m.now()
	meta.SetCurrentStage(target, at)
	if err := m.projects.SaveMetadata(projectName, meta); err != nil {
		return nil, err
	}

	// Ledger recording is best effort; the metadata write is the source of
	// truth for the stage.
	if err := ledger.AppendStageTransition(m.projects.Dir(projectName), current, target, at); err != nil {
		m.log.Warn(ctx, "failed to record stage transition in ledger",
			zap.String("project", projectName),
			zap.Error(err))
	}

	m.log.Info(ctx, "stage transition applied",
		zap.String("project", projectName),
		zap.String("from", current),
		zap.String("to", target),
		zap.Bool("force", force))

	return &Transition{Previous: current, Current: target}, nil
}

func indexOf(ids []string, id string) int {
	for i, s := range ids {
		if s == id {
			return i
		}
	}
	return -1
}

func (m *Manager) manifestFor(name string) (*workflow.Manifest, error) {
	if name == "" {
		name = workflow.DefaultName
	}
	manifest, err := m.workflows.Load(name)
	if err != nil {
		if errors.Is(err, workflow.ErrWorkflowNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load workflow %s: %w", name, err)
	}
	return manifest, nil
}
