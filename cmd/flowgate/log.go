package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowgate/internal/governance"
	"github.com/fyrsmithlabs/flowgate/internal/ledger"
)

var (
	logFrom      string
	logTo        string
	logArtifacts []string
	logNotes     string
	logAgent     string
	logTitle     string
	logRationale string
	logBlocked   []string
	logReason    string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Append entries to the project ledger",
	Long: `Append entries to the project's evidence logs. Handoffs and
invocations go to the exchange log; decisions and blockers go to the
context log. Governed entry types are validated against the active rules
before they are written.`,
}

// logHandoffCmd records a work transfer
var logHandoffCmd = &cobra.Command{
	Use:   "handoff <project>",
	Short: "Record a handoff between agents",
	Long: `Record a handoff between agents. The handoff rules run first; a
violation blocks the entry.

Examples:
  flowgate log handoff billing-revamp --from A-01 --to A-02 --artifact design_doc.md`,
	Args: cobra.ExactArgs(1),
	RunE: runLogHandoff,
}

// logDecisionCmd records a decision with rationale
var logDecisionCmd = &cobra.Command{
	Use:   "decision <project>",
	Short: "Record a decision and its rationale",
	Long: `Record a decision in the context log. The decision rules run first;
under the default strictness a missing rationale blocks the entry.

Examples:
  flowgate log decision billing-revamp --agent A-01 --title "Use sqlite" --rationale "portable, zero-config"`,
	Args: cobra.ExactArgs(1),
	RunE: runLogDecision,
}

// logBlockerCmd records an impediment
var logBlockerCmd = &cobra.Command{
	Use:   "blocker <project>",
	Short: "Record a blocker",
	Long: `Record a blocker in the context log. Agents listed as blocked will
fail their activation gate until the blocker is cleared from the log.

Examples:
  flowgate log blocker billing-revamp --agent A-01 --title "No repo access" --blocks A-02`,
	Args: cobra.ExactArgs(1),
	RunE: runLogBlocker,
}

// logInvokeCmd records an on-demand agent invocation
var logInvokeCmd = &cobra.Command{
	Use:   "invoke <project>",
	Short: "Record an on-demand agent invocation",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogInvoke,
}

func init() {
	logHandoffCmd.Flags().StringVar(&logFrom, "from", "", "sending agent")
	logHandoffCmd.Flags().StringVar(&logTo, "to", "", "receiving agent")
	logHandoffCmd.Flags().StringSliceVar(&logArtifacts, "artifact", nil, "artifact included in the handoff (repeatable)")
	logHandoffCmd.Flags().StringVar(&logNotes, "notes", "", "handoff notes")
	_ = logHandoffCmd.MarkFlagRequired("from")
	_ = logHandoffCmd.MarkFlagRequired("to")

	logDecisionCmd.Flags().StringVar(&logAgent, "agent", "", "deciding agent")
	logDecisionCmd.Flags().StringVar(&logTitle, "title", "", "decision title")
	logDecisionCmd.Flags().StringVar(&logRationale, "rationale", "", "why the decision was made")
	_ = logDecisionCmd.MarkFlagRequired("title")

	logBlockerCmd.Flags().StringVar(&logAgent, "agent", "", "reporting agent")
	logBlockerCmd.Flags().StringVar(&logTitle, "title", "", "blocker title")
	logBlockerCmd.Flags().StringVar(&logNotes, "description", "", "blocker description")
	logBlockerCmd.Flags().StringSliceVar(&logBlocked, "blocks", nil, "agent blocked by this (repeatable)")
	_ = logBlockerCmd.MarkFlagRequired("title")

	logInvokeCmd.Flags().StringVar(&logAgent, "agent", "", "agent being invoked")
	logInvokeCmd.Flags().StringVar(&logReason, "reason", "", "why the agent is being invoked")
	_ = logInvokeCmd.MarkFlagRequired("agent")

	logCmd.AddCommand(logHandoffCmd)
	logCmd.AddCommand(logDecisionCmd)
	logCmd.AddCommand(logBlockerCmd)
	logCmd.AddCommand(logInvokeCmd)
}

func runLogHandoff(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	projectName := args[0]
	engine, err := a.engine()
	if err != nil {
		return err
	}

	if _, err := engine.Enforce(cmd.Context(), governance.ContextAgentHandoff, governance.Data{
		ProjectPath: a.projects.Dir(projectName),
		FromAgent:   logFrom,
		ToAgent:     logTo,
		Artifacts:   logArtifacts,
	}); err != nil {
		return err
	}

	id, err := ledger.AppendHandoff(a.projects.Dir(projectName), logFrom, logTo, logArtifacts, logNotes, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s -> %s\n", id, logFrom, logTo)
	return nil
}

func runLogDecision(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	projectName := args[0]
	engine, err := a.engine()
	if err != nil {
		return err
	}

	if _, err := engine.Enforce(cmd.Context(), governance.ContextDecisionLog, governance.Data{
		ProjectPath: a.projects.Dir(projectName),
		AgentID:     logAgent,
		Rationale:   logRationale,
	}); err != nil {
		return err
	}

	id, err := ledger.AppendDecision(a.projects.Dir(projectName), logAgent, logTitle, logRationale, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s\n", id, logTitle)
	return nil
}

func runLogBlocker(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	id, err := ledger.AppendBlocker(a.projects.Dir(args[0]), logAgent, logTitle, logNotes, logBlocked, time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %s\n", id, logTitle)
	return nil
}

func runLogInvoke(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	projectName := args[0]
	engine, err := a.engine()
	if err != nil {
		return err
	}

	data, err := a.validationData(projectName)
	if err != nil {
		return err
	}
	data.AgentID = logAgent
	if _, err := engine.Enforce(cmd.Context(), governance.ContextAgentActivation, data); err != nil {
		return err
	}

	if err := ledger.AppendInvocation(a.projects.Dir(projectName), logAgent, logReason, time.Now()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded invocation of %s\n", logAgent)
	return nil
}
