package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doculens-ai/doculens/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "doculens",
		Short: "Doculens CLI - ask questions against ingested documentation",
		Long: `Doculens CLI talks to a running doculens server.

Environment variables:
  DOCULENS_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")

	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.ValidateCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.StatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
