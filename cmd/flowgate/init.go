package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowgate/internal/governance"
	"github.com/fyrsmithlabs/flowgate/internal/workflow"
)

func pickWorkflow(name string) string {
	if name == "" {
		return workflow.DefaultName
	}
	return name
}

var initWorkflow string

// initCmd creates a new governed project
var initCmd = &cobra.Command{
	Use:   "init <project>",
	Short: "Initialize a new project",
	Long: `Initialize a new project under the projects directory: the required
directory skeleton plus a metadata record pointing at the first pipeline
stage of the chosen workflow.

Examples:
  # Initialize with the default workflow
  flowgate init billing-revamp

  # Initialize with a specific workflow
  flowgate init billing-revamp --workflow delivery`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initWorkflow, "workflow", "", "workflow to attach the project to (default from the workflow provider)")
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	name := args[0]

	workflowName := initWorkflow
	firstStage := ""
	manifest, err := a.workflows.Load(pickWorkflow(workflowName))
	if err == nil {
		workflowName = manifest.Name
		if ids := manifest.StageIDs(); len(ids) > 0 {
			firstStage = ids[0]
		}
	} else if initWorkflow != "" {
		// An explicitly requested workflow must exist.
		return err
	}
	if workflowName == "" {
		workflowName = pickWorkflow("")
	}

	meta, err := a.projects.Init(name, workflowName, firstStage, time.Now())
	if err != nil {
		return err
	}

	// Report, without blocking, how the fresh project measures against the
	// init rules.
	engine, err := a.engine()
	if err != nil {
		return err
	}
	result := engine.Validate(cmd.Context(), governance.ContextProjectInit, governance.Data{
		ProjectPath: a.projects.Dir(name),
		Workflow:    workflowName,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized project %s (workflow %s", name, workflowName)
	if firstStage != "" {
		fmt.Fprintf(cmd.OutOrStdout(), ", stage %s", firstStage)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ")")

	if id, ok := meta.Get("id"); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Project ID: %v\n", id)
	}

	for _, v := range result.Violations {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %s", v.Message)
		if v.Suggestion != "" {
			fmt.Fprintf(cmd.OutOrStdout(), " (%s)", v.Suggestion)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
