package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowgate/internal/gate"
	"github.com/fyrsmithlabs/flowgate/internal/tui"
	"github.com/fyrsmithlabs/flowgate/internal/workflow"
)

var (
	statusAgent string
	statusPlain bool
)

// statusCmd shows the interactive project status view
var statusCmd = &cobra.Command{
	Use:   "status <project>",
	Short: "Show the project's pipeline status",
	Long: `Show the project's pipeline status: the stage ladder with the current
position, and optionally the activation gate for an agent.

Examples:
  # Interactive status view
  flowgate status billing-revamp

  # Include the gate check for an agent
  flowgate status billing-revamp --agent A-02

  # Plain text output for scripts
  flowgate status billing-revamp --plain`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAgent, "agent", "", "include the activation gate for this agent")
	statusCmd.Flags().BoolVar(&statusPlain, "plain", false, "print plain text instead of the interactive view")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	projectName := args[0]
	load := func() (tui.StatusData, error) {
		return a.statusData(cmd, projectName)
	}

	if statusPlain {
		data, err := load()
		if err != nil {
			return err
		}
		printStatus(cmd, data)
		return nil
	}

	projectDir := a.projects.Dir(projectName)
	return tui.Run(load,
		projectDir,
		a.projects.LogDir(projectName),
	)
}

func (a *app) statusData(cmd *cobra.Command, projectName string) (tui.StatusData, error) {
	meta, err := a.projects.LoadMetadata(projectName)
	if err != nil {
		return tui.StatusData{}, err
	}

	workflowName := meta.Workflow()
	if workflowName == "" {
		workflowName = workflow.DefaultName
	}

	data := tui.StatusData{
		Project:      projectName,
		Workflow:     workflowName,
		Strictness:   a.cfg.Governance.Strictness.Level,
		CurrentStage: meta.CurrentStage(),
	}
	if data.Strictness == "" {
		data.Strictness = "moderate"
	}

	if manifest, err := a.workflows.Load(workflowName); err == nil {
		data.Stages = manifest.Stages
	}

	if statusAgent != "" {
		result, err := a.gateChecker().Check(cmd.Context(), projectName, statusAgent)
		if err != nil {
			return tui.StatusData{}, err
		}
		data.GateAgent = statusAgent
		data.Gate = &result
	}

	return data, nil
}

func printStatus(cmd *cobra.Command, data tui.StatusData) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "project:  %s\n", data.Project)
	fmt.Fprintf(out, "workflow: %s (strictness %s)\n", data.Workflow, data.Strictness)
	for _, s := range data.Stages {
		marker := " "
		if s.ID == data.CurrentStage {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, s.ID)
	}
	if data.Gate != nil {
		printGate(out, data.GateAgent, data.Gate)
	}
}

func printGate(out io.Writer, agent string, result *gate.Result) {
	if result.Passed {
		fmt.Fprintf(out, "gate %s: PASS (%s)\n", agent, result.Message)
		return
	}
	fmt.Fprintf(out, "gate %s: FAIL\n", agent)
	for _, reason := range result.Reasons {
		fmt.Fprintf(out, "  - %s\n", reason)
	}
}
