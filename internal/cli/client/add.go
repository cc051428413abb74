package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// AddRequest represents the article creation request.
type AddRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	AccessScope []string `json:"access_scope,omitempty"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		title     string
		file      string
		summary   string
		category  string
		tags      []string
		sourceURL string
		scopes    []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a manually authored article",
		Long: `Adds an article to the knowledge base.

Content is read from --file, or from stdin when --file is omitted:

  cortex add --title "Deploy process" --file deploy.md
  cat notes.md | cortex add --title "Notes"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAdd(cmd, title, file, summary, category, tags, sourceURL, scopes, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Article title (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File to read content from (default: stdin)")
	cmd.Flags().StringVar(&summary, "summary", "", "Short summary")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "Original source URL")
	cmd.Flags().StringSliceVar(&scopes, "access-scope", nil, "Access scope (repeatable, default: all)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func runAdd(cmd *cobra.Command, title, file, summary, category string, tags []string, sourceURL string, scopes []string, outputJSON bool) error {
	var content []byte
	var err error
	if file != "" {
		content, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := AddRequest{
		Title:       title,
		Content:     string(content),
		Summary:     summary,
		Category:    category,
		Tags:        tags,
		SourceURL:   sourceURL,
		AccessScope: scopes,
	}

	resp, err := api.Post("/articles", req)
	if err != nil {
		return fmt.Errorf("failed to add article: %w", err)
	}

	var article Article
	if err := json.Unmarshal(resp.Data, &article); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(article, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Added article %s (%s)\n", article.ID, article.Title)
	return nil
}
