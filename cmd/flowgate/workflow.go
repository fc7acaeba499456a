package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Inspect available workflows",
}

// workflowListCmd lists workflows with a manifest
var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows under the workflows directory",
	Args:  cobra.NoArgs,
	RunE:  runWorkflowList,
}

// workflowShowCmd prints a workflow's stages and agents
var workflowShowCmd = &cobra.Command{
	Use:   "show <workflow>",
	Short: "Show a workflow's stages and agent roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowShow,
}

func init() {
	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowShowCmd)
}

func runWorkflowList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	names, err := a.workflows.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no workflows found)")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runWorkflowShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	manifest, err := a.workflows.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "workflow: %s\n", manifest.Name)
	fmt.Fprintf(out, "gating: enabled=%v pre_activation=%v strict_order=%v allow_skip=%v\n",
		manifest.Gating.Enabled, manifest.Gating.PreActivation, manifest.Gating.StrictOrder, manifest.Gating.AllowSkip)

	fmt.Fprintln(out, "stages:")
	for _, s := range manifest.Stages {
		fmt.Fprintf(out, "  %s", s.ID)
		if s.Name != "" {
			fmt.Fprintf(out, "  %s", s.Name)
		}
		fmt.Fprintln(out)
	}

	if len(manifest.Agents) > 0 {
		fmt.Fprintln(out, "agents:")
		for _, ag := range manifest.Agents {
			fmt.Fprintf(out, "  %s", ag.ID)
			if ag.Role != "" {
				fmt.Fprintf(out, "  %s", ag.Role)
			}
			if ag.Stage != "" {
				fmt.Fprintf(out, "  (stage %s)", ag.Stage)
			}
			fmt.Fprintln(out)
		}
	}
	if len(manifest.OnDemand) > 0 {
		fmt.Fprintln(out, "on demand:")
		for _, ag := range manifest.OnDemand {
			fmt.Fprintf(out, "  %s  %s\n", ag.ID, ag.Role)
		}
	}
	return nil
}
