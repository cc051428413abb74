package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AskRequest represents the ask API request.
type AskRequest struct {
	Question string `json:"question"`
}

// AskSource is one cited article in an answer.
type AskSource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// AskResponse represents the ask API response.
type AskResponse struct {
	Answer            string      `json:"answer"`
	Model             string      `json:"model"`
	Sources           []AskSource `json:"sources"`
	FollowUpQuestions []string    `json:"follow_up_questions"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the knowledge base",
		Long:  "Generates an answer grounded in indexed knowledge and the current organizational snapshot.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, strings.Join(args, " "), outputJSON)
		},
	}

	return cmd
}

func runAsk(cmd *cobra.Command, question string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/ask", AskRequest{Question: question})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)

	if len(askResp.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range askResp.Sources {
			if src.URL != "" {
				fmt.Printf("  - %s (%s)\n", src.Title, src.URL)
			} else {
				fmt.Printf("  - %s\n", src.Title)
			}
		}
	}

	if len(askResp.FollowUpQuestions) > 0 {
		fmt.Println()
		fmt.Println("Follow-up questions:")
		for _, q := range askResp.FollowUpQuestions {
			fmt.Printf("  - %s\n", q)
		}
	}

	if askResp.Model != "" {
		fmt.Printf("\n(answered by %s)\n", askResp.Model)
	}

	return nil
}
