package gate

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

const gatedManifest = `
name: planning
stages:
  - id: INTAKE
    name: Intake
  - id: DESIGN
    name: Design
pipeline:
  order: [A-00, A-01, A-02]
agents:
  - id: A-00
    role: intake
    stage: INTAKE
  - id: A-01
    role: analyst
    stage: INTAKE
  - id: A-02
    role: designer
    stage: DESIGN
    consumes_core: [requirements]
on_demand:
  - id: OD-R
    role: reviewer
gating:
  enabled: true
  pre_activation: true
`

const ungatedManifest = `
name: planning
stages:
  - id: INTAKE
agents:
  - id: A-00
gating:
  enabled: false
`

var testTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	checker  *Checker
	projects *project.Store
}

func newFixture(t *testing.T, manifest string) *fixture {
	t.Helper()

	workflowsRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(workflowsRoot, "planning"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workflowsRoot, "planning", "workflow.yaml"), []byte(manifest), 0o644))

	projects := project.NewStore(t.TempDir())
	return &fixture{
		checker:  NewChecker(projects, workflow.NewProvider(workflowsRoot), logging.NewNop()),
		projects: projects,
	}
}

func (f *fixture) initProject(t *testing.T, name, stage string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.projects.Dir(name), 0o755))
	meta := project.NewMetadata()
	meta.SetWorkflow("planning")
	if stage != "" {
		meta.SetCurrentStage(stage, testTime)
	}
	require.NoError(t, f.projects.SaveMetadata(name, meta))
	return f.projects.Dir(name)
}

func TestCheck_GatingDisabled(t *testing.T) {
	f := newFixture(t, ungatedManifest)
	f.initProject(t, "demo", "INTAKE")

	result, err := f.checker.Check(context.Background(), "demo", "A-00")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, "Gating disabled", result.Message)
	assert.Empty(t, result.Reasons)
}

func TestCheck_FirstAgentPasses(t *testing.T) {
	f := newFixture(t, gatedManifest)
	f.initProject(t, "demo", "INTAKE")

	// A-00 has no consumed artifacts, never needs a handoff, and matches
	// the current stage.
	result, err := f.checker.Check(context.Background(), "demo", "A-00")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, "All gates passed", result.Message)
}

func TestCheck_DownstreamAgentNeedsHandoff(t *testing.T) {
	f := newFixture(t, gatedManifest)
	dir := f.initProject(t, "demo", "DESIGN")

	// Produce the artifact A-02 consumes so only the handoff gate fails.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, project.ArtifactsDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, project.ArtifactsDirName, "requirements.md"), []byte("reqs"), 0o644))

	result, err := f.checker.Check(context.Background(), "demo", "A-02")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reasons, "No handoff found to A-02 from upstream")

	// Recording the handoff opens the gate.
	_, err = ledger.AppendHandoff(dir, "A-01", "A-02", []string{"requirements"}, "", testTime)
	require.NoError(t, err)

	result, err = f.checker.Check(context.Background(), "demo", "A-02")
	require.NoError(t, err)
	assert.True(t, result.Passed, "reasons: %v", result.Reasons)
}

func TestCheck_MissingArtifact(t *testing.T) {
	f := newFixture(t, gatedManifest)
	dir := f.initProject(t, "demo", "DESIGN")

	_, err := ledger.AppendHandoff(dir, "A-01", "A-02", nil, "", testTime)
	require.NoError(t, err)

	result, err := f.checker.Check(context.Background(), "demo", "A-02")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reasons, "Required artifact missing: requirements")
}

func TestCheck_ArtifactLocations(t *testing.T) {
	locations := []string{
		filepath.Join(project.InputDirName, project.PlanningSubdirName, "requirements.md"),
		filepath.Join(project.InputDirName, "requirements.md"),
		filepath.Join(project.ArtifactsDirName, "requirements.md"),
	}

	for _, loc := range locations {
		t.Run(loc, func(t *testing.T) {
			f := newFixture(t, gatedManifest)
			dir := f.initProject(t, "demo", "DESIGN")

			require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, loc)), 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, loc), []byte("reqs"), 0o644))
			_, err := ledger.AppendHandoff(dir, "A-01", "A-02", nil, "", testTime)
			require.NoError(t, err)

			result, err := f.checker.Check(context.Background(), "demo", "A-02")
			require.NoError(t, err)
			assert.True(t, result.Passed, "reasons: %v", result.Reasons)
		})
	}
}

func TestCheck_StageGate(t *testing.T) {
	f := newFixture(t, gatedManifest)

	// An agent from an earlier stage may still run once the project has
	// moved on.
	dir := f.initProject(t, "early", "DESIGN")
	_, err := ledger.AppendHandoff(dir, "A-00", "A-01", nil, "", testTime)
	require.NoError(t, err)

	result, err := f.checker.Check(context.Background(), "early", "A-01")
	require.NoError(t, err)
	assert.True(t, result.Passed, "reasons: %v", result.Reasons)

	// An agent from a later stage is blocked until the project reaches it.
	f.initProject(t, "late", "INTAKE")
	result, err = f.checker.Check(context.Background(), "late", "A-02")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reasons, "Agent A-02 belongs to stage DESIGN but project is in INTAKE")
}

func TestCheck_BlockedAgent(t *testing.T) {
	f := newFixture(t, gatedManifest)
	dir := f.initProject(t, "demo", "INTAKE")

	_, err := ledger.AppendBlocker(dir, "A-00", "Waiting on access", "No repo access yet", []string{"A-01"}, testTime)
	require.NoError(t, err)

	result, err := f.checker.Check(context.Background(), "demo", "A-01")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reasons, "Agent A-01 is blocked (see context log)")
}

func TestCheck_MultipleFailuresReported(t *testing.T) {
	f := newFixture(t, gatedManifest)
	f.initProject(t, "demo", "INTAKE")

	// A-02 is in the wrong stage, has no artifact, and has no handoff.
	result, err := f.checker.Check(context.Background(), "demo", "A-02")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Len(t, result.Reasons, 3)
	assert.Equal(t, "Activation blocked: 3 check(s) failed", result.Message)
}

func TestCheck_OnDemandAgentSkipsHandoffGate(t *testing.T) {
	f := newFixture(t, gatedManifest)
	f.initProject(t, "demo", "INTAKE")

	// No numeric suffix: the handoff gate does not apply.
	result, err := f.checker.Check(context.Background(), "demo", "OD-R")
	require.NoError(t, err)
	assert.True(t, result.Passed, "reasons: %v", result.Reasons)
}

func TestCheck_EvidenceProblemsAreFailedResults(t *testing.T) {
	f := newFixture(t, gatedManifest)

	result, err := f.checker.Check(context.Background(), "ghost", "A-00")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "Project not initialized")

	f.initProject(t, "demo", "INTAKE")
	result, err = f.checker.Check(context.Background(), "demo", "A-99")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reasons, "Agent A-99 not found in workflow")
	// The remaining gates still run for an undeclared agent.
	assert.Contains(t, result.Reasons, "No handoff found to A-99 from upstream")
}

func TestIsFirstAgent(t *testing.T) {
	assert.True(t, isFirstAgent("A-00"))
	assert.True(t, isFirstAgent("I-0"))
	assert.True(t, isFirstAgent("orchestrator"))
	assert.False(t, isFirstAgent("A-02"))
}
