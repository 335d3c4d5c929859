package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doculens-ai/doculens/internal/config"
	"github.com/doculens-ai/doculens/internal/vectorstore"
)

// IngestCmd returns the one-shot ingest command. It runs the full crawl,
// chunk, embed, store pipeline in the foreground instead of queueing a job.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <site-url>",
		Short: "Crawl a documentation site and store its embeddings",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("collection", "c", "", "Target collection (defaults to the configured collection)")
	cmd.Flags().Bool("json", false, "Print the ingest report as JSON")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	siteURL := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	collection, _ := cmd.Flags().GetString("collection")
	if collection == "" {
		collection = cfg.Collection
	}

	conn, err := vectorstore.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	deps, err := buildPipeline(ctx, cfg, conn)
	if err != nil {
		return err
	}

	report, err := deps.ingest.IngestSite(ctx, siteURL, collection)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	fmt.Printf("Ingested %s into collection %q\n", report.SiteURL, report.Collection)
	fmt.Printf("  pages crawled: %d (%d failed)\n", report.PagesCrawled, report.PagesFailed)
	fmt.Printf("  chunks stored: %d\n", report.ChunksStored)
	fmt.Printf("  duration:      %s\n", report.Duration)
	for _, msg := range report.Errors {
		fmt.Printf("  warning: %s\n", msg)
	}
	return nil
}
