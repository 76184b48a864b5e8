// Package cmd provides the CLI commands for the policy agent.
//
// Commands:
//   - ingest: chunk and embed a policy workbook into the vector store
//   - answer: answer a question workbook from ingested policies
//   - chat: interactive conversation routed through the orchestrator
//   - skills: list discovered skills
//   - version: show version and configuration
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/koopa0/policy-agent/internal/app"
	"github.com/koopa0/policy-agent/internal/config"
	"github.com/koopa0/policy-agent/internal/log"
)

var rootCmd = &cobra.Command{
	Use:           "policy-agent",
	Short:         "Policy document ingestion and Q&A assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// No subcommand enters chat mode
		return runChat(cmd, args)
	},
}

// Execute is the main entry point for the CLI.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level}))

	return rootCmd.Execute()
}

// setup loads and validates configuration, then initializes the application.
// The caller owns the returned App and must Close it.
func setup(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a, err := app.Setup(cmd.Context(), cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}
