package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <workbook.xlsx>",
	Short: "Chunk and embed a policy workbook into the vector store",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading workbook: %w", err)
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("closing application", "error", closeErr)
		}
	}()

	summary, err := a.Ingestor.Ingest(cmd.Context(), data, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", path, err)
	}

	if !summary.Success {
		fmt.Println(summary.Message)
		return nil
	}
	fmt.Printf("%s Processed %d policies into %d chunks.\n",
		summary.Message, summary.PoliciesProcessed, summary.TotalChunks)
	return nil
}
