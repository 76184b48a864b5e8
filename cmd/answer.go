package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var answerCmd = &cobra.Command{
	Use:   "answer <questions.xlsx>",
	Short: "Answer a question workbook from ingested policies",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnswer,
}

func init() {
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
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

	answered, err := a.Answerer.Answer(cmd.Context(), data, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("answering %s: %w", path, err)
	}

	fmt.Println(answered.Message)
	if answered.DownloadURL != "" {
		fmt.Printf("Download: %s\n", answered.DownloadURL)
	}
	return nil
}
