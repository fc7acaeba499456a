package governance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/flowgate/internal/project"
)

// Workflow definition files expected at the project root.
var workflowFiles = []string{"workflow.json", "agents.json", "artifacts.json"}

// DefaultRules returns the built-in rule set in registration order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:          "project_structure_valid",
			Description:   "Project has the required directory structure",
			Context:       ContextProjectInit,
			Level:         LevelStrict,
			Condition:     ConditionFunc(projectStructureValid),
			ErrorMessage:  "Project directory structure is incomplete",
			FixSuggestion: "Run 'flowgate init' to create the required directories",
			Enabled:       true,
		},
		{
			Name:          "workflow_files_exist",
			Description:   "Workflow definition files are present",
			Context:       ContextProjectInit,
			Level:         LevelModerate,
			Condition:     ConditionFunc(workflowFilesExist),
			ErrorMessage:  "Workflow definition files are missing",
			FixSuggestion: "Copy workflow.json, agents.json, and artifacts.json into the project",
			Enabled:       true,
		},
		{
			Name:          "agent_handoff_valid",
			Description:   "Handoff names distinct agents and its artifacts exist",
			Context:       ContextAgentHandoff,
			Level:         LevelStrict,
			Condition:     ConditionFunc(agentHandoffValid),
			ErrorMessage:  "Handoff is invalid: agents must differ and listed artifacts must exist",
			FixSuggestion: "Check the from/to agent IDs and produce the listed artifacts first",
			Enabled:       true,
		},
		{
			Name:          "agent_artifacts_exist",
			Description:   "Agent's declared artifacts are present",
			Context:       ContextAgentActivation,
			Level:         LevelModerate,
			Condition:     ConditionFunc(alwaysSatisfied),
			ErrorMessage:  "Agent's declared artifacts are missing",
			FixSuggestion: "Produce the agent's declared artifacts before activation",
			Enabled:       true,
		},
		{
			Name:          "decision_rationale_required",
			Description:   "Logged decisions carry a rationale",
			Context:       ContextDecisionLog,
			Level:         LevelModerate,
			Condition:     ConditionFunc(decisionRationaleRequired),
			ErrorMessage:  "Decision has no rationale",
			FixSuggestion: "Add a rationale explaining why the decision was made",
			Enabled:       true,
		},
		{
			Name:          "session_end_artifacts_complete",
			Description:   "Required artifacts exist before the session ends",
			Context:       ContextSessionEnd,
			Level:         LevelLenient,
			Condition:     ConditionFunc(sessionEndArtifactsComplete),
			ErrorMessage:  "Declared artifacts are missing at session end",
			FixSuggestion: "Produce the missing artifacts or update artifacts.json",
			Enabled:       true,
		},
		{
			Name:          "agent_stage_valid",
			Description:   "Agent belongs to the project's current stage",
			Context:       ContextAgentActivation,
			Level:         LevelStrict,
			Condition:     ConditionFunc(agentStageValid),
			ErrorMessage:  "Agent does not belong to the current stage",
			FixSuggestion: "Advance the stage or activate an agent from the current stage",
			Enabled:       true,
		},
		{
			Name:          "agent_not_blocked",
			Description:   "Agent is not blocked by an open blocker",
			Context:       ContextAgentActivation,
			Level:         LevelStrict,
			Condition:     ConditionFunc(alwaysSatisfied),
			ErrorMessage:  "Agent is blocked by an open blocker",
			FixSuggestion: "Resolve the blocker recorded in the context log",
			Enabled:       true,
		},
	}
}

// alwaysSatisfied backs rules whose real predicate needs evidence the
// snapshot does not yet carry. Keeping them registered preserves the rule
// names for configuration overrides.
func alwaysSatisfied(Data) (bool, error) {
	return true, nil
}

func projectStructureValid(data Data) (bool, error) {
	if data.ProjectPath == "" {
		return false, nil
	}
	for _, dir := range project.RequiredDirs {
		info, err := os.Stat(filepath.Join(data.ProjectPath, dir))
		if err != nil || !info.IsDir() {
			return false, nil
		}
	}
	return true, nil
}

func workflowFilesExist(data Data) (bool, error) {
	if data.ProjectPath == "" {
		return false, nil
	}
	for _, name := range workflowFiles {
		if _, err := os.Stat(filepath.Join(data.ProjectPath, name)); err != nil {
			return false, nil
		}
	}
	return true, nil
}

func agentHandoffValid(data Data) (bool, error) {
	if data.FromAgent == "" || data.ToAgent == "" {
		return false, nil
	}
	if data.FromAgent == data.ToAgent {
		return false, nil
	}
	for _, artifact := range data.Artifacts {
		if !artifactExists(data.ProjectPath, artifact) {
			return false, nil
		}
	}
	return true, nil
}

func decisionRationaleRequired(data Data) (bool, error) {
	return strings.TrimSpace(data.Rationale) != "", nil
}

// sessionEndArtifactsComplete checks the artifacts marked required in
// artifacts.json. A missing or unparsable declaration file satisfies the
// rule: only declared artifacts can be incomplete.
func sessionEndArtifactsComplete(data Data) (bool, error) {
	if data.ProjectPath == "" {
		return true, nil
	}
	raw, err := os.ReadFile(filepath.Join(data.ProjectPath, "artifacts.json"))
	if err != nil {
		return true, nil
	}

	var decl struct {
		Artifacts []struct {
			Name     string `json:"name"`
			Path     string `json:"path"`
			Required bool   `json:"required"`
		} `json:"artifacts"`
	}
	if err := json.Unmarshal(raw, &decl); err != nil {
		return true, nil
	}

	for _, a := range decl.Artifacts {
		if !a.Required {
			continue
		}
		name := a.Path
		if name == "" {
			name = a.Name
		}
		if name == "" {
			continue
		}
		if !artifactExists(data.ProjectPath, name) {
			return false, nil
		}
	}
	return true, nil
}

func agentStageValid(data Data) (bool, error) {
	if data.AgentStage == "" || data.CurrentStage == "" {
		return true, nil
	}
	return data.AgentStage == data.CurrentStage, nil
}

// artifactExists probes the places an artifact file may live: the literal
// path, the artifacts directory, and the planning artifacts directory.
func artifactExists(projectPath, name string) bool {
	if projectPath == "" || name == "" {
		return false
	}
	candidates := []string{
		filepath.Join(projectPath, name),
		filepath.Join(projectPath, project.ArtifactsDirName, name),
		filepath.Join(projectPath, project.InputDirName, project.PlanningSubdirName, name),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}
