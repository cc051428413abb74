package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Article represents an article from the API.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	SourceType  string   `json:"source_type"`
	SourceURL   string   `json:"source_url,omitempty"`
	AccessScope []string `json:"access_scope"`
	StorageKey  string   `json:"storage_key,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <article_id>",
		Short:   "Get an article by ID",
		Long:    "Retrieves an article by its ID and displays the full content.",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(cmd *cobra.Command, articleID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/articles/%s", articleID))
	if err != nil {
		return fmt.Errorf("failed to get article: %w", err)
	}

	var article Article
	if err := json.Unmarshal(resp.Data, &article); err != nil {
		return fmt.Errorf("failed to parse article: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(article, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Title: %s\n", article.Title)
	fmt.Printf("Category: %s\n", article.Category)
	fmt.Printf("Source: %s\n", article.SourceType)
	if len(article.AccessScope) > 0 {
		fmt.Printf("Scope: %v\n", article.AccessScope)
	}
	if article.Summary != "" {
		fmt.Printf("Summary: %s\n", article.Summary)
	}
	fmt.Printf("Created: %s\n", article.CreatedAt)
	fmt.Printf("Updated: %s\n", article.UpdatedAt)
	fmt.Println()
	fmt.Println("--- Content ---")
	fmt.Println(article.Content)

	return nil
}
