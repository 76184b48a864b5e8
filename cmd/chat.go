package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koopa0/policy-agent/internal/app"
	"github.com/koopa0/policy-agent/internal/orchestrator"
)

// localUserID identifies the single interactive terminal user.
const localUserID = "local"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive conversation routed through the orchestrator",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("closing application", "error", closeErr)
		}
	}()

	fmt.Println("Policy agent chat. Type a question, or:")
	fmt.Println("  /skill <name> <file.xlsx> [question]  run a skill on a workbook")
	fmt.Println("  /skills                               list registered skills")
	fmt.Println("  /clear                                clear conversation history")
	fmt.Println("  /exit                                 quit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if done := handleChatCommand(ctx, a, input); done {
				break
			}
			continue
		}

		reply, err := a.Orchestrator.HandleTurn(ctx, orchestrator.Turn{
			UserID:   localUserID,
			Question: input,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Println(reply.Answer)
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// handleChatCommand processes a slash command. Returns true to exit the loop.
func handleChatCommand(ctx context.Context, a *app.App, input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/exit", "/quit":
		fmt.Println("Goodbye.")
		return true

	case "/clear":
		a.Orchestrator.Clear(ctx, localUserID)
		fmt.Println("Conversation cleared.")

	case "/skills":
		descriptors := a.Registry.Descriptors()
		if len(descriptors) == 0 {
			fmt.Println("No skills registered.")
			break
		}
		for _, d := range descriptors {
			status := ""
			if !d.Resolved() {
				status = " (unavailable)"
			}
			fmt.Printf("  %s%s - %s\n", d.Name, status, d.Description)
		}

	case "/skill":
		if len(fields) < 3 {
			fmt.Println("Usage: /skill <name> <file.xlsx> [question]")
			break
		}
		name, path := fields[1], fields[2]
		question := strings.Join(fields[3:], " ")

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading %s: %v\n", path, err)
			break
		}

		reply, err := a.Orchestrator.HandleTurn(ctx, orchestrator.Turn{
			UserID:    localUserID,
			Question:  question,
			SkillName: name,
			FileName:  filepath.Base(path),
			FileData:  data,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			break
		}
		fmt.Println(reply.Answer)
		fmt.Println()

	default:
		fmt.Printf("Unknown command: %s\n", fields[0])
	}
	return false
}
