package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type validateRequest struct {
	Query           string   `json:"query"`
	ExpectedSources []string `json:"expected_sources"`
	TopK            int      `json:"top_k,omitempty"`
}

type validateResponse struct {
	QueryID          string   `json:"query_id"`
	RetrievedChunks  []string `json:"retrieved_chunks"`
	ExpectedChunks   []string `json:"expected_chunks"`
	AccuracyScore    float64  `json:"accuracy_score"`
	RelevantCount    int      `json:"relevant_count"`
	TotalRetrieved   int      `json:"total_retrieved"`
	ValidationPassed bool     `json:"validation_passed"`
	Notes            string   `json:"notes"`
}

// ValidateCmd returns the validate command, which checks retrieval accuracy
// for a query against the source URLs it is expected to surface.
func ValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query>",
		Short: "Check retrieval accuracy for a query",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	cmd.Flags().StringArrayP("expect", "e", nil, "Expected source URL (repeatable)")
	cmd.Flags().IntP("top-k", "k", 0, "Number of chunks to retrieve (default 5)")
	cmd.Flags().Bool("json", false, "Print the raw response as JSON")
	_ = cmd.MarkFlagRequired("expect")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	expected, _ := cmd.Flags().GetStringArray("expect")
	topK, _ := cmd.Flags().GetInt("top-k")
	asJSON, _ := cmd.Flags().GetBool("json")

	var resp validateResponse
	err = api.Post("/validate", validateRequest{
		Query:           args[0],
		ExpectedSources: expected,
		TopK:            topK,
	}, &resp)
	if err != nil {
		return err
	}

	if asJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	status := "FAILED"
	if resp.ValidationPassed {
		status = "PASSED"
	}
	fmt.Printf("%s  accuracy=%.2f (%d/%d relevant, %d retrieved)\n",
		status, resp.AccuracyScore, resp.RelevantCount, len(resp.ExpectedChunks), resp.TotalRetrieved)
	fmt.Println(resp.Notes)
	return nil
}
