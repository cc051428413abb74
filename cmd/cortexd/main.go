package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relayworks/cortex/internal/cli"
	"github.com/relayworks/cortex/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cortexd",
		Short: "Cortex daemon",
		Long:  "Cortex daemon for running the knowledge API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
