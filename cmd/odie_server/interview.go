package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/odie-hq/odie/internal/llm"
	"github.com/odie-hq/odie/internal/prompts"
	"github.com/odie-hq/odie/internal/session"
	"github.com/odie-hq/odie/internal/skills"
)

var interviewTier string

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interview in the terminal",
	Long: `Run an interactive interview session against the configured model
without the HTTP server or the database. Extracted positions and bullets
are printed as JSON when the interview ends.`,
	RunE: runInterview,
}

func init() {
	interviewCmd.Flags().StringVar(&interviewTier, "tier", "standard", "Model tier (lite, standard, advanced)")
	rootCmd.AddCommand(interviewCmd)
}

func runInterview(cmd *cobra.Command, _ []string) error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := cmd.Context()
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	stepper := &session.LLMStepper{
		Client:   client,
		Tier:     llm.ModelTier(interviewTier),
		System:   prompts.MustGet("interview.json", "interview-system"),
		PromptID: "interview-system",
	}
	s := session.New(stepper, nil)

	fmt.Println("Interview started. Tell me about your most recent role.")
	fmt.Println("Press Ctrl+C to stop at any time.")
	fmt.Println()

	prompt := promptui.Prompt{
		Label: "You",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("message must not be empty")
			}
			return nil
		},
	}

	for {
		text, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				break
			}
			return fmt.Errorf("prompt failed: %w", err)
		}

		resp, err := s.Submit(ctx, text)
		if err != nil {
			var turnErr *session.TurnError
			if errors.As(err, &turnErr) {
				fmt.Fprintf(os.Stderr, "Turn failed: %v\n", turnErr)
				if !askRetry() {
					break
				}
				if err := s.Resume(); err != nil {
					return err
				}
				continue
			}
			return err
		}

		if resp.ExtractedPosition != nil {
			fmt.Printf("  [position] %s at %s\n", resp.ExtractedPosition.Title, resp.ExtractedPosition.Company)
		}
		for _, b := range resp.ExtractedBullets {
			line := fmt.Sprintf("  [bullet] %s", b.Text)
			if joined := skills.Join(b.HardSkills); joined != "" {
				line += fmt.Sprintf(" (skills: %s)", joined)
			}
			fmt.Println(line)
		}

		fmt.Printf("\nInterviewer: %s\n\n", resp.Response)
		if !resp.ShouldContinue {
			break
		}
	}

	return printOutput(s)
}

// askRetry asks whether to resume the session after a failed turn.
func askRetry() bool {
	sel := promptui.Select{
		Label: "Retry this turn",
		Items: []string{"yes", "no"},
	}
	_, choice, err := sel.Run()
	return err == nil && choice == "yes"
}

// printOutput prints the extraction snapshot as indented JSON.
func printOutput(s *session.Session) error {
	output := s.Output()
	if output == nil {
		fmt.Println("No positions extracted.")
		return nil
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
