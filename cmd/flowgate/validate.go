package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowgate/internal/governance"
)

var (
	validateOutput     string
	validateContext    string
	validateStrictness string
	validateAgent      string
	validateFrom       string
	validateTo         string
	validateArtifacts  []string
	validateRationale  string
	validateEnforce    bool
)

// validateCmd evaluates governance rules for a lifecycle context
var validateCmd = &cobra.Command{
	Use:   "validate <project>",
	Short: "Evaluate governance rules for a lifecycle context",
	Long: `Evaluate the active governance rules for a lifecycle context against
the project. By default violations are reported and the command still
succeeds; with --enforce a violation fails the command.

Contexts: init, handoff, decision, end, activation.

Examples:
  # Check handoff rules before recording one
  flowgate validate billing-revamp --context handoff --from A-01 --to A-02 --artifact design_doc.md

  # Enforce the decision rules
  flowgate validate billing-revamp --context decision --rationale "chose sqlite" --enforce

  # Tighten a single check beyond the configured strictness
  flowgate validate billing-revamp --context init --strictness strict`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateContext, "context", string(governance.ContextProjectInit), "lifecycle context to validate")
	validateCmd.Flags().StringVar(&validateStrictness, "strictness", "", "strictness for this run (lenient, moderate, strict; default: configured)")
	validateCmd.Flags().StringVar(&validateAgent, "agent", "", "agent being activated")
	validateCmd.Flags().StringVar(&validateFrom, "from", "", "handoff sender")
	validateCmd.Flags().StringVar(&validateTo, "to", "", "handoff receiver")
	validateCmd.Flags().StringSliceVar(&validateArtifacts, "artifact", nil, "handoff artifact (repeatable)")
	validateCmd.Flags().StringVar(&validateRationale, "rationale", "", "decision rationale")
	validateCmd.Flags().BoolVar(&validateEnforce, "enforce", false, "fail when any rule is violated")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "text", "output format (text or json)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	engine, err := a.engine()
	if err != nil {
		return err
	}

	data, err := a.validationData(args[0])
	if err != nil {
		return err
	}

	gctx := governance.Context(validateContext)
	if !gctx.Valid() {
		return fmt.Errorf("unknown context %q (valid: %v)", validateContext, governance.Contexts)
	}

	strictness := engine.Strictness()
	if validateStrictness != "" {
		strictness = governance.Level(validateStrictness)
		if strictness.Index() < 0 {
			return fmt.Errorf("unknown strictness %q (valid: %v)", validateStrictness, governance.Levels)
		}
	}

	result := engine.ValidateAt(cmd.Context(), gctx, data, strictness)

	if validateOutput == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if validateEnforce && !result.Passed {
			return &governance.ViolationError{Context: gctx, Violations: result.Violations}
		}
		return nil
	}

	if validateEnforce {
		if !result.Passed {
			return &governance.ViolationError{Context: gctx, Violations: result.Violations}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "PASS")
		return nil
	}

	if result.Passed {
		fmt.Fprintf(cmd.OutOrStdout(), "PASS: %d rule(s) evaluated\n", result.Evaluated)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d violation(s):\n", len(result.Violations))
	for _, v := range result.Violations {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s (%s)\n", v.Message, v.Rule)
		if v.Suggestion != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "    fix: %s\n", v.Suggestion)
		}
	}
	return nil
}

// validationData assembles the rule snapshot from project state and flags.
func (a *app) validationData(projectName string) (governance.Data, error) {
	data := governance.Data{
		ProjectPath: a.projects.Dir(projectName),
		AgentID:     validateAgent,
		FromAgent:   validateFrom,
		ToAgent:     validateTo,
		Artifacts:   validateArtifacts,
		Rationale:   validateRationale,
	}

	meta, err := a.projects.LoadMetadata(projectName)
	if err != nil {
		// Init-context validation runs against uninitialized projects.
		return data, nil
	}
	data.Workflow = meta.Workflow()
	data.CurrentStage = meta.CurrentStage()

	if validateAgent != "" {
		if manifest, err := a.workflows.Load(pickWorkflow(meta.Workflow())); err == nil {
			if agent, ok := manifest.AgentByID(validateAgent); ok {
				data.AgentStage = agent.Stage
			}
		}
	}
	return data, nil
}
