package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/flowgate/internal/ledger"
	"github.com/fyrsmithlabs/flowgate/internal/logging"
	"github.com/fyrsmithlabs/flowgate/internal/project"
	"github.com/fyrsmithlabs/flowgate/internal/workflow"
)

const planningManifest = `
name: planning
stages:
  - id: INTAKE
    name: Intake
  - id: DESIGN
    name: Design
  - id: BUILD
    name: Build
  - id: REVIEW
    name: Review
gating:
  enabled: true
  strict_order: true
`

type fixture struct {
	manager  *Manager
	projects *project.Store
}

func newFixture(t *testing.T, manifest string) *fixture {
	t.Helper()

	workflowsRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workflowsRoot, "planning"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workflowsRoot, "planning", "workflow.yaml"), []byte(manifest), 0o644))

	projects := project.NewStore(t.TempDir())
	m := NewManager(projects, workflow.NewProvider(workflowsRoot), logging.NewNop())
	m.now = func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }

	return &fixture{manager: m, projects: projects}
}

func (f *fixture) initProject(t *testing.T, name, stage string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.projects.Dir(name), 0o755))
	meta := project.NewMetadata()
	meta.SetWorkflow("planning")
	if stage != "" {
		meta.SetCurrentStage(stage, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	}
	require.NoError(t, f.projects.SaveMetadata(name, meta))
}

func TestValidateStageTransition(t *testing.T) {
	tests := []struct {
		name        string
		current     string
		target      string
		wantValid   bool
		wantMessage string
	}{
		{"forward one step", "INTAKE", "DESIGN", true, "Transition allowed"},
		{"backward", "BUILD", "DESIGN", false, "Cannot move backward from BUILD to DESIGN"},
		{"skip", "INTAKE", "BUILD", false, "Cannot skip stages. Next allowed: DESIGN"},
		{"unknown target", "INTAKE", "SHIPPED", false, "Unknown stage: SHIPPED. Valid: INTAKE, DESIGN, BUILD, REVIEW"},
		{"unknown current", "", "BUILD", true, "Current stage unknown, allowing transition"},
		{"same stage", "DESIGN", "DESIGN", true, "Transition allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, planningManifest)
			f.initProject(t, "demo", tt.current)

			check, err := f.manager.ValidateStageTransition("demo", tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, check.Valid)
			assert.Equal(t, tt.wantMessage, check.Message)
		})
	}
}

// Without strict_order or a strict enforcement mode, any declared stage is
// reachable in either direction.
func TestValidateStageTransition_OrderingNotEnforced(t *testing.T) {
	manifest := `
name: planning
stages:
  - id: INTAKE
  - id: DESIGN
  - id: BUILD
  - id: REVIEW
`
	f := newFixture(t, manifest)

	check := f.manager.ValidateTransition("planning", "BUILD", "INTAKE")
	assert.True(t, check.Valid)
	assert.Equal(t, "Transition allowed", check.Message)

	check = f.manager.ValidateTransition("planning", "INTAKE", "BUILD")
	assert.True(t, check.Valid)

	// Undeclared targets stay invalid regardless of ordering mode.
	check = f.manager.ValidateTransition("planning", "INTAKE", "SHIPPED")
	assert.False(t, check.Valid)
}

// enforcement.mode strict turns ordering on even without the gating flag.
func TestValidateStageTransition_EnforcementModeStrict(t *testing.T) {
	manifest := `
name: planning
stages:
  - id: INTAKE
  - id: DESIGN
  - id: BUILD
config:
  enforcement:
    mode: strict
`
	f := newFixture(t, manifest)

	check := f.manager.ValidateTransition("planning", "BUILD", "INTAKE")
	assert.False(t, check.Valid)
	assert.Equal(t, "Cannot move backward from BUILD to INTAKE", check.Message)

	check = f.manager.ValidateTransition("planning", "INTAKE", "BUILD")
	assert.False(t, check.Valid)
	assert.Equal(t, "Cannot skip stages. Next allowed: DESIGN", check.Message)
}

func TestValidateTransition_Stateless(t *testing.T) {
	f := newFixture(t, planningManifest)

	check := f.manager.ValidateTransition("planning", "INTAKE", "DESIGN")
	assert.True(t, check.Valid)

	check = f.manager.ValidateTransition("planning", "REVIEW", "INTAKE")
	assert.False(t, check.Valid)
	assert.Equal(t, "Cannot move backward from REVIEW to INTAKE", check.Message)
}

func TestValidateStageTransition_AllowSkip(t *testing.T) {
	manifest := planningManifest + "  allow_skip: true\n"
	f := newFixture(t, manifest)
	f.initProject(t, "demo", "INTAKE")

	check, err := f.manager.ValidateStageTransition("demo", "REVIEW")
	require.NoError(t, err)
	assert.True(t, check.Valid)

	// Skipping forward is allowed; moving backward still is not.
	f.initProject(t, "late", "BUILD")
	check, err = f.manager.ValidateStageTransition("late", "INTAKE")
	require.NoError(t, err)
	assert.False(t, check.Valid)
}

func TestValidateStageTransition_MissingWorkflow(t *testing.T) {
	f := newFixture(t, planningManifest)

	require.NoError(t, os.MkdirAll(f.projects.Dir("demo"), 0o755))
	meta := project.NewMetadata()
	meta.SetWorkflow("nonexistent")
	require.NoError(t, f.projects.SaveMetadata("demo", meta))

	check, err := f.manager.ValidateStageTransition("demo", "DESIGN")
	require.NoError(t, err)
	assert.False(t, check.Valid)
	assert.Equal(t, "Workflow config not found", check.Message)
}

func TestSetStage_Forward(t *testing.T) {
	f := newFixture(t, planningManifest)
	f.initProject(t, "demo", "INTAKE")

	tr, err := f.manager.SetStage(context.Background(), "demo", "DESIGN", false)
	require.NoError(t, err)
	assert.Equal(t, "INTAKE", tr.Previous)
	assert.Equal(t, "DESIGN", tr.Current)

	meta, err := f.projects.LoadMetadata("demo")
	require.NoError(t, err)
	assert.Equal(t, "DESIGN", meta.CurrentStage())

	history := meta.StageHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "DESIGN", history[1].Stage)
}

func TestSetStage_BackwardRejected(t *testing.T) {
	f := newFixture(t, planningManifest)
	f.initProject(t, "demo", "BUILD")

	_, err := f.manager.SetStage(context.Background(), "demo", "INTAKE", false)
	require.Error(t, err)

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "Cannot move backward from BUILD to INTAKE", terr.Error())

	// State unchanged after a rejected transition.
	meta, err := f.projects.LoadMetadata("demo")
	require.NoError(t, err)
	assert.Equal(t, "BUILD", meta.CurrentStage())
}

func TestSetStage_ForceBypassesValidation(t *testing.T) {
	f := newFixture(t, planningManifest)
	f.initProject(t, "demo", "BUILD")

	tr, err := f.manager.SetStage(context.Background(), "demo", "INTAKE", true)
	require.NoError(t, err)
	assert.Equal(t, "INTAKE", tr.Current)

	meta, err := f.projects.LoadMetadata("demo")
	require.NoError(t, err)
	assert.Equal(t, "INTAKE", meta.CurrentStage())
}

func TestSetStage_SameStageIsNoOp(t *testing.T) {
	f := newFixture(t, planningManifest)
	f.initProject(t, "demo", "DESIGN")

	before, err := f.projects.LoadMetadata("demo")
	require.NoError(t, err)

	tr, err := f.manager.SetStage(context.Background(), "demo", "DESIGN", false)
	require.NoError(t, err)
	assert.Equal(t, tr.Previous, tr.Current)

	after, err := f.projects.LoadMetadata("demo")
	require.NoError(t, err)
	assert.Len(t, after.StageHistory(), len(before.StageHistory()))
}

func TestSetStage_RecordsLedgerEntry(t *testing.T) {
	f := newFixture(t, planningManifest)
	f.initProject(t, "demo", "INTAKE")

	projectDir := f.projects.Dir("demo")
	logPath := ledger.ContextLogPath(projectDir)
	require.NoError(t, os.MkdirAll(filepath.Dir(logPath), 0o755))
	require.NoError(t, os.WriteFile(logPath, []byte("# Context Log\n"), 0o644))

	_, err := f.manager.SetStage(context.Background(), "demo", "DESIGN", false)
	require.NoError(t, err)

	text, err := ledger.ReadContextLog(projectDir)
	require.NoError(t, err)
	assert.Contains(t, text, "### STAGE TRANSITION")
	assert.Contains(t, text, "- **from:** INTAKE")
	assert.Contains(t, text, "- **to:** DESIGN")
}

func TestSetStage_NoContextLogStillSucceeds(t *testing.T) {
	f := newFixture(t, planningManifest)
	f.initProject(t, "demo", "INTAKE")

	_, err := f.manager.SetStage(context.Background(), "demo", "DESIGN", false)
	require.NoError(t, err)

	_, err = ledger.ReadContextLog(f.projects.Dir("demo"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCurrentStage_MissingProject(t *testing.T) {
	f := newFixture(t, planningManifest)
	_, err := f.manager.CurrentStage("ghost")
	assert.ErrorIs(t, err, project.ErrMetadataNotFound)
}

func TestListStages(t *testing.T) {
	f := newFixture(t, planningManifest)
	f.initProject(t, "demo", "DESIGN")

	stages, current, err := f.manager.ListStages("demo")
	require.NoError(t, err)
	assert.Equal(t, "DESIGN", current)
	require.Len(t, stages, 4)
	assert.Equal(t, "INTAKE", stages[0].ID)
	assert.Equal(t, "Review", stages[3].Name)
}
