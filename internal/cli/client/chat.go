package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
}

type chatSource struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Confidence float32 `json:"confidence"`
}

type chatResponse struct {
	Response  string       `json:"response"`
	SessionID string       `json:"session_id"`
	Sources   []chatSource `json:"sources"`
	Error     string       `json:"error,omitempty"`
}

// ChatCmd returns the chat command. With a message argument it asks a single
// question; without one it starts an interactive session.
func ChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the documentation assistant a question",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runChat,
	}

	cmd.Flags().StringP("session", "s", "", "Session ID to continue a conversation")
	cmd.Flags().IntP("top-k", "k", 0, "Number of chunks to retrieve (default 5)")
	cmd.Flags().Bool("json", false, "Print the raw response as JSON")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	sessionID, _ := cmd.Flags().GetString("session")
	topK, _ := cmd.Flags().GetInt("top-k")
	asJSON, _ := cmd.Flags().GetBool("json")

	if len(args) == 1 {
		_, err := ask(api, args[0], sessionID, topK, asJSON)
		return err
	}

	// Interactive mode keeps the server-assigned session so follow-up
	// questions share conversation history.
	fmt.Println("doculens chat (empty line or Ctrl-D to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			break
		}

		newSession, err := ask(api, message, sessionID, topK, asJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		sessionID = newSession
	}
	return scanner.Err()
}

func ask(api *APIClient, message, sessionID string, topK int, asJSON bool) (string, error) {
	var resp chatResponse
	err := api.Post("/chat", chatRequest{
		Message:   message,
		SessionID: sessionID,
		TopK:      topK,
	}, &resp)
	if err != nil {
		return sessionID, err
	}

	if asJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return resp.SessionID, nil
	}

	fmt.Println(resp.Response)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range resp.Sources {
			fmt.Printf("  - %s (%s)\n", src.Title, src.URL)
		}
	}
	if resp.Error != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", resp.Error)
	}
	return resp.SessionID, nil
}
