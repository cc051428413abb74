package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// IngestItem is one file outcome in the ingestion response.
type IngestItem struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Error    string `json:"error,omitempty"`
}

// IngestResponse represents the document ingestion API response.
type IngestResponse struct {
	Created []IngestItem `json:"created"`
	Skipped []IngestItem `json:"skipped"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest documents into the knowledge base",
		Long: `Uploads one or more documents for extraction and indexing.

Supported formats: PDF, DOCX, XLSX, PPTX, CSV and plain text. Files whose
text cannot be extracted are skipped; the rest of the batch proceeds.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIngest(cmd, args, scopes, outputJSON)
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "access-scope", nil, "Access scope for the ingested articles (repeatable, default: all)")

	return cmd
}

func runIngest(cmd *cobra.Command, files []string, scopes []string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	formValues := map[string]string{}
	if len(scopes) > 0 {
		formValues["access_scope"] = strings.Join(scopes, ",")
	}

	resp, err := api.PostFiles("/documents", files, formValues)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	var ingestResp IngestResponse
	if err := json.Unmarshal(resp.Data, &ingestResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(ingestResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, item := range ingestResp.Created {
		fmt.Printf("Indexed %s as %s (%s)\n", item.FileName, item.ID, item.Title)
	}
	for _, item := range ingestResp.Skipped {
		fmt.Printf("Skipped %s: %s\n", item.FileName, item.Error)
	}
	fmt.Printf("\n%d indexed, %d skipped\n", len(ingestResp.Created), len(ingestResp.Skipped))

	return nil
}
