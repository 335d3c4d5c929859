package admin

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doculens-ai/doculens/internal/config"
	"github.com/doculens-ai/doculens/internal/vectorstore"
)

// ResetCmd returns the reset command, which drops a collection and all of
// its stored vectors.
func ResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset [collection]",
		Short: "Drop a collection and all of its vectors",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReset,
	}

	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	collection := cfg.Collection
	if len(args) == 1 {
		collection = args[0]
	}

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		fmt.Printf("This deletes collection %q and every stored vector in it. Continue? [y/N] ", collection)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("aborted")
			return nil
		}
	}

	conn, err := vectorstore.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	store, err := conn.Store(ctx)
	if err != nil {
		return err
	}

	if err := store.DropCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}

	fmt.Printf("collection %q dropped\n", collection)
	return nil
}
