// Package main implements the flowgate CLI for governed agentic workflows.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/flowgate/internal/config"
	"github.com/fyrsmithlabs/flowgate/internal/gate"
	"github.com/fyrsmithlabs/flowgate/internal/governance"
	"github.com/fyrsmithlabs/flowgate/internal/logging"
	"github.com/fyrsmithlabs/flowgate/internal/project"
	"github.com/fyrsmithlabs/flowgate/internal/stage"
	"github.com/fyrsmithlabs/flowgate/internal/workflow"
)

var (
	// configPath overrides the default config file location
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flowgate",
	Short: "Governance and gating for agentic project workflows",
	Long: `flowgate manages multi-agent project workflows: it tracks each
project's pipeline stage, checks activation gates before an agent starts
work, and evaluates governance rules at lifecycle checkpoints.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/flowgate/config.yaml)")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(workflowCmd)
}

// app bundles the wired services every command needs.
type app struct {
	cfg       *config.Config
	log       *logging.Logger
	projects  *project.Store
	workflows *workflow.Provider
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &app{
		cfg:       cfg,
		log:       log,
		projects:  project.NewStore(cfg.ProjectsDir),
		workflows: workflow.NewProvider(cfg.WorkflowsDir),
	}, nil
}

func (a *app) stageManager() *stage.Manager {
	return stage.NewManager(a.projects, a.workflows, a.log.Named("stage"))
}

func (a *app) gateChecker() *gate.Checker {
	return gate.NewChecker(a.projects, a.workflows, a.log.Named("gate"))
}

func (a *app) engine() (*governance.Engine, error) {
	return governance.NewEngine(a.cfg.Governance, a.log.Named("governance"))
}

func (a *app) close() {
	_ = a.log.Sync()
}
