package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relayworks/cortex/internal/cli"
	"github.com/relayworks/cortex/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "cortex",
		Short: "Cortex CLI - organizational knowledge assistant",
		Long: `Cortex CLI provides commands to query and manage the knowledge base.

Environment variables:
  CORTEX_API_URL       API base URL (default: http://localhost:8080)
  CORTEX_ACCESS_SCOPE  Access scope sent with every request (default: all)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	rootCmd.PersistentFlags().String("scope", "", "Access scope (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.SourceCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
