package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/koopa0/policy-agent/internal/config"
	"github.com/koopa0/policy-agent/internal/skill"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List skills discovered in the skills directory",
	RunE:  runSkills,
}

func init() {
	rootCmd.AddCommand(skillsCmd)
}

// runSkills scans manifests only; no database or AI provider is needed
// just to list what is on disk.
func runSkills(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	registry := skill.NewRegistry(slog.Default())
	if err := registry.Scan(cfg.SkillsDir); err != nil {
		return fmt.Errorf("scanning skills directory %q: %w", cfg.SkillsDir, err)
	}

	descriptors := registry.Descriptors()
	if len(descriptors) == 0 {
		fmt.Printf("No skills found under %s\n", cfg.SkillsDir)
		return nil
	}

	for _, d := range descriptors {
		fmt.Printf("%s\t%s\n", d.Name, d.Description)
	}
	return nil
}
