package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type ingestRequest struct {
	SiteURL    string `json:"site_url"`
	Collection string `json:"collection,omitempty"`
}

type ingestJobResponse struct {
	ID           string `json:"id"`
	SiteURL      string `json:"site_url"`
	Collection   string `json:"collection"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	PagesStored  int    `json:"pages_stored"`
	ChunksStored int    `json:"chunks_stored"`
}

// IngestCmd returns the ingest command, which enqueues a crawl of a
// documentation site on the server.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <site-url>",
		Short: "Queue a documentation site for ingestion",
		Args:  cobra.ExactArgs(1),
		RunE:  runClientIngest,
	}

	cmd.Flags().StringP("collection", "c", "", "Target collection (server default when empty)")
	cmd.Flags().BoolP("wait", "w", false, "Poll until the job completes or fails")
	cmd.Flags().Bool("json", false, "Print the job as JSON")

	return cmd
}

// StatusCmd returns the status command for a previously queued ingest job.
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of an ingest job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}

			var job ingestJobResponse
			if err := api.Get("/ingest/"+args[0], &job); err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			printJob(&job, asJSON)
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the job as JSON")

	return cmd
}

func runClientIngest(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	collection, _ := cmd.Flags().GetString("collection")
	wait, _ := cmd.Flags().GetBool("wait")
	asJSON, _ := cmd.Flags().GetBool("json")

	var job ingestJobResponse
	err = api.Post("/ingest", ingestRequest{SiteURL: args[0], Collection: collection}, &job)
	if err != nil {
		return err
	}

	if !wait {
		printJob(&job, asJSON)
		return nil
	}

	for job.Status == "pending" || job.Status == "processing" {
		time.Sleep(2 * time.Second)
		if err := api.Get("/ingest/"+job.ID, &job); err != nil {
			return err
		}
	}

	printJob(&job, asJSON)
	if job.Status == "failed" {
		return fmt.Errorf("ingest job failed: %s", job.Error)
	}
	return nil
}

func printJob(job *ingestJobResponse, asJSON bool) {
	if asJSON {
		out, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Printf("job %s: %s\n", job.ID, job.Status)
	fmt.Printf("  site:       %s\n", job.SiteURL)
	fmt.Printf("  collection: %s\n", job.Collection)
	if job.Status == "completed" {
		fmt.Printf("  pages:      %d\n", job.PagesStored)
		fmt.Printf("  chunks:     %d\n", job.ChunksStored)
	}
	if job.Error != "" {
		fmt.Printf("  error:      %s\n", job.Error)
	}
}
