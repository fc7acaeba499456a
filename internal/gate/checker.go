// Package gate runs the pre-activation checks that decide whether an agent
// may start work on a project.
//
// The gate reads only recorded evidence: the workflow manifest, the project
// metadata, and the ledger logs. Four checks run in order — stage
// membership, required input artifacts, upstream handoff, and open
// blockers — and every failed check contributes a reason, so an operator
// sees the full picture in one run rather than one failure at a time.
package gate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowgate/internal/ledger"
	"github.com/fyrsmithlabs/flowgate/internal/logging"
	"github.com/fyrsmithlabs/flowgate/internal/project"
	"github.com/fyrsmithlabs/flowgate/internal/workflow"
)

// Result is the outcome of a gate check. Reasons lists every failed check;
// an empty list means the agent may activate.
type Result struct {
	Passed  bool     `json:"passed"`
	Reasons []string `json:"reasons,omitempty"`
	Message string   `json:"message"`
}

// Checker evaluates activation gates against recorded project evidence.
type Checker struct {
	projects  *project.Store
	workflows *workflow.Provider
	log       *logging.Logger
}

// NewChecker creates a gate checker over the given stores.
func NewChecker(projects *project.Store, workflows *workflow.Provider, log *logging.Logger) *Checker {
	if log == nil {
		log = logging.NewNop()
	}
	return &Checker{projects: projects, workflows: workflows, log: log}
}

// Check runs the activation gates for the agent on the project. Evidence
// problems (missing project, missing workflow, unknown agent) are failed
// results, not errors: the gate's answer is still "do not activate".
func (c *Checker) Check(ctx context.Context, projectName, agentID string) (Result, error) {
	meta, err := c.projects.LoadMetadata(projectName)
	if err != nil {
		if errors.Is(err, project.ErrMetadataNotFound) {
			return failed(fmt.Sprintf("Project not initialized: %s", projectName)), nil
		}
		return Result{}, err
	}

	workflowName := meta.Workflow()
	if workflowName == "" {
		workflowName = workflow.DefaultName
	}
	manifest, err := c.workflows.Load(workflowName)
	if err != nil {
		if errors.Is(err, workflow.ErrWorkflowNotFound) {
			return failed(fmt.Sprintf("Workflow config not found: %s", workflowName)), nil
		}
		return Result{}, err
	}

	if !manifest.Gating.Enabled {
		return Result{Passed: true, Message: "Gating disabled"}, nil
	}

	projectDir := c.projects.Dir(projectName)
	agent, found := manifest.AgentByID(agentID)

	var reasons []string
	if manifest.Gating.PreActivation {
		if !found {
			reasons = append(reasons, fmt.Sprintf("Agent %s not found in workflow", agentID))
		} else {
			reasons = append(reasons, c.checkStage(manifest, agent, meta.CurrentStage())...)
		}
	}
	if found {
		reasons = append(reasons, c.checkArtifacts(projectDir, agent)...)
	}
	reasons = append(reasons, c.checkHandoff(projectDir, manifest, agentID)...)
	reasons = append(reasons, c.checkBlockers(projectDir, agentID)...)

	result := Result{Passed: len(reasons) == 0, Reasons: reasons}
	if result.Passed {
		result.Message = "All gates passed"
	} else {
		result.Message = fmt.Sprintf("Activation blocked: %d check(s) failed", len(reasons))
	}

	c.log.Debug(ctx, "gate check complete",
		zap.String("project", projectName),
		zap.String("agent", agentID),
		zap.Bool("passed", result.Passed),
		zap.Strings("reasons", reasons))

	return result, nil
}

func failed(message string) Result {
	return Result{Passed: false, Reasons: []string{message}, Message: message}
}

// checkStage blocks agents whose stage comes after the project's current
// stage; agents from the current or an earlier stage may run. Agents without
// a stage assignment, projects without a recorded stage, and stages not in
// the pipeline all pass.
func (c *Checker) checkStage(manifest *workflow.Manifest, agent workflow.Agent, currentStage string) []string {
	if agent.Stage == "" || currentStage == "" {
		return nil
	}
	agentIdx := manifest.StageIndex(agent.Stage)
	currentIdx := manifest.StageIndex(currentStage)
	if agentIdx < 0 || currentIdx < 0 || agentIdx <= currentIdx {
		return nil
	}
	return []string{fmt.Sprintf("Agent %s belongs to stage %s but project is in %s", agent.ID, agent.Stage, currentStage)}
}

// checkArtifacts verifies every core input the agent consumes exists in one
// of the locations producers write to. Consumed artifacts are named bare;
// the file on disk is the markdown rendition.
func (c *Checker) checkArtifacts(projectDir string, agent workflow.Agent) []string {
	var reasons []string
	for _, name := range agent.ConsumesCore {
		file := name
		if !strings.HasSuffix(file, ".md") {
			file += ".md"
		}
		candidates := []string{
			filepath.Join(projectDir, project.InputDirName, project.PlanningSubdirName, file),
			filepath.Join(projectDir, project.InputDirName, file),
			filepath.Join(projectDir, project.ArtifactsDirName, file),
		}
		found := false
		for _, path := range candidates {
			if _, err := os.Stat(path); err == nil {
				found = true
				break
			}
		}
		if !found {
			reasons = append(reasons, fmt.Sprintf("Required artifact missing: %s", name))
		}
	}
	return reasons
}

var agentNumber = regexp.MustCompile(`(\d+)$`)

// checkHandoff verifies an upstream agent handed work to this agent. The
// check only applies to numbered pipeline agents past the first position;
// the pipeline entry points and the orchestrator start without a handoff.
func (c *Checker) checkHandoff(projectDir string, manifest *workflow.Manifest, agentID string) []string {
	m := agentNumber.FindStringSubmatch(agentID)
	if m == nil {
		return nil
	}
	if n, err := strconv.Atoi(m[1]); err != nil || n == 0 {
		return nil
	}
	if isFirstAgent(agentID) || normalize(agentID) == normalize(manifest.FirstAgent()) {
		return nil
	}

	text, err := ledger.ReadExchangeLog(projectDir)
	if err != nil {
		text = ""
	}

	if strings.Contains(text, "to: "+agentID) || strings.Contains(text, "→ "+agentID) {
		return nil
	}
	return []string{fmt.Sprintf("No handoff found to %s from upstream", agentID)}
}

// checkBlockers scans the context log for an open blocker naming the agent.
func (c *Checker) checkBlockers(projectDir, agentID string) []string {
	text, err := ledger.ReadContextLog(projectDir)
	if err != nil {
		return nil
	}

	if strings.Contains(text, "blocked: "+agentID) || strings.Contains(text, "blocked_agents: ["+agentID) {
		return []string{fmt.Sprintf("Agent %s is blocked (see context log)", agentID)}
	}
	return nil
}

// isFirstAgent reports whether the ID names a pipeline entry point that
// never receives a handoff.
func isFirstAgent(id string) bool {
	switch normalize(id) {
	case "I0", "A00", "ORCHESTRATOR":
		return true
	}
	return false
}

func normalize(id string) string {
	return strings.ToUpper(strings.ReplaceAll(id, "-", ""))
}
