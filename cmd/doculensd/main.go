package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doculens-ai/doculens/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "doculensd",
		Short: "Doculens daemon and admin CLI",
		Long:  "Doculens daemon for running the API server and managing document collections",
	}

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.ResetCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
