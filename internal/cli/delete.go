package cli

import (
	"context"
	"fmt"

	"github.com/adpilot/adpilot/internal/store"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a test and its counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		if err := s.DeleteExperiment(context.Background(), name); err != nil {
			return notFound(name, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted experiment '%s'\n", name)
		return nil
	})
}
