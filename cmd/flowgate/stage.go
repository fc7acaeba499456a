package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stageForce bool

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Inspect and change a project's pipeline stage",
}

// stageGetCmd prints the current stage
var stageGetCmd = &cobra.Command{
	Use:   "get <project>",
	Short: "Print the project's current stage",
	Args:  cobra.ExactArgs(1),
	RunE:  runStageGet,
}

// stageSetCmd applies a stage transition
var stageSetCmd = &cobra.Command{
	Use:   "set <project> <stage>",
	Short: "Move the project to a stage",
	Long: `Move the project to a stage. Transitions are validated against the
workflow's pipeline order: moving backward is rejected, and skipping
stages is rejected unless the workflow allows it.

Examples:
  # Advance to the next stage
  flowgate stage set billing-revamp DESIGN

  # Bypass ordering validation
  flowgate stage set billing-revamp INTAKE --force`,
	Args: cobra.ExactArgs(2),
	RunE: runStageSet,
}

// stageListCmd lists the pipeline stages
var stageListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List the workflow's stages and mark the current one",
	Args:  cobra.ExactArgs(1),
	RunE:  runStageList,
}

func init() {
	stageSetCmd.Flags().BoolVar(&stageForce, "force", false, "bypass transition validation")
	stageCmd.AddCommand(stageGetCmd)
	stageCmd.AddCommand(stageSetCmd)
	stageCmd.AddCommand(stageListCmd)
}

func runStageGet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	current, err := a.stageManager().CurrentStage(args[0])
	if err != nil {
		return err
	}
	if current == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "(no stage recorded)")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), current)
	return nil
}

func runStageSet(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	tr, err := a.stageManager().SetStage(cmd.Context(), args[0], args[1], stageForce)
	if err != nil {
		return err
	}

	if tr.Previous == tr.Current {
		fmt.Fprintf(cmd.OutOrStdout(), "Already at stage %s\n", tr.Current)
		return nil
	}
	from := tr.Previous
	if from == "" {
		from = "(none)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stage: %s -> %s\n", from, tr.Current)
	return nil
}

func runStageList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	stages, current, err := a.stageManager().ListStages(args[0])
	if err != nil {
		return err
	}

	for _, s := range stages {
		marker := " "
		if s.ID == current {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s", marker, s.ID)
		if s.Name != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s", s.Name)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
