package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koopa0/policy-agent/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(_ *cobra.Command, _ []string) error {
	fmt.Printf("policy-agent %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		// Version info is still useful with a broken config.
		fmt.Printf("\nConfiguration unavailable: %v\n", err)
		return nil
	}

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("  Provider: %s\n", cfg.Provider)
	fmt.Printf("  Model: %s\n", cfg.ModelName)
	fmt.Printf("  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Printf("  Chunk size/overlap: %d/%d\n", cfg.ChunkSize, cfg.ChunkOverlap)
	fmt.Printf("  Retrieval top-k: %d\n", cfg.RetrievalTopK)
	fmt.Printf("  Skills dir: %s\n", cfg.SkillsDir)
	return nil
}
