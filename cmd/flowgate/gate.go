package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var gateOutput string

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run activation gates",
}

// gateCheckCmd runs the pre-activation gate for an agent
var gateCheckCmd = &cobra.Command{
	Use:   "check <project> <agent>",
	Short: "Check whether an agent may activate on a project",
	Long: `Check whether an agent may activate on a project. Four gates run in
order: stage membership, required input artifacts, upstream handoff, and
open blockers. Every failed gate is reported.

Examples:
  flowgate gate check billing-revamp A-02`,
	Args: cobra.ExactArgs(2),
	RunE: runGateCheck,
}

func init() {
	gateCheckCmd.Flags().StringVarP(&gateOutput, "output", "o", "text", "output format (text or json)")
	gateCmd.AddCommand(gateCheckCmd)
}

func runGateCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.gateChecker().Check(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	if gateOutput == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.Passed {
			return fmt.Errorf("gate check failed for %s", args[1])
		}
		return nil
	}

	if result.Passed {
		fmt.Fprintf(cmd.OutOrStdout(), "PASS: %s\n", result.Message)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "FAIL: %s\n", result.Message)
	for _, reason := range result.Reasons {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", reason)
	}
	return fmt.Errorf("gate check failed for %s", args[1])
}
