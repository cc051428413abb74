package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SourceResponse represents the source download URL API response.
type SourceResponse struct {
	DownloadURL string `json:"download_url"`
}

// SourceCmd creates the source command.
func SourceCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "source <article_id>",
		Short: "Fetch the original uploaded file for an article",
		Long:  "Prints a time-limited download URL for the archived source file, or downloads it with --out.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSource(cmd, args[0], output, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "", "Download the file to this path instead of printing the URL")

	return cmd
}

func runSource(cmd *cobra.Command, articleID, outputPath string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/articles/%s/source", articleID))
	if err != nil {
		return fmt.Errorf("failed to get source URL: %w", err)
	}

	var srcResp SourceResponse
	if err := json.Unmarshal(resp.Data, &srcResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputPath != "" {
		if err := api.DownloadFile(srcResp.DownloadURL, outputPath); err != nil {
			return err
		}
		fmt.Printf("Downloaded to %s\n", outputPath)
		return nil
	}

	if outputJSON {
		output, _ := json.MarshalIndent(srcResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(srcResp.DownloadURL)
	return nil
}
