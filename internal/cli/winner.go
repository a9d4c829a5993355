package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/adpilot/adpilot/internal/stats"
	"github.com/adpilot/adpilot/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newWinnerCmd())
}

func newWinnerCmd() *cobra.Command {
	var (
		arm   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "winner <name>",
		Short: "Declare a winner for a test",
		Long: `Declare the winning arm of an A/B test and complete it.

Without --variant the arm is taken from the significance check, which
must have reached 95% confidence. Use --variant with --force to
declare an arm before that.

Examples:
  adpilot winner spring-hook
  adpilot winner spring-hook --variant control --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if arm != "" && arm != string(stats.WinnerControl) && arm != string(stats.WinnerVariant) {
				return fmt.Errorf("invalid --variant %q: use control or variant", arm)
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				exp, err := s.GetExperiment(ctx, name)
				if err != nil {
					return notFound(name, err)
				}

				// Validate experiment is running
				if exp.State != store.StateRunning {
					return fmt.Errorf("experiment is not running (current state: %s)", exp.State)
				}

				a := stats.Analyze(exp)
				verdict := stats.WinnerInconclusive
				if a.Err == nil {
					verdict = a.Result.Winner
				}

				declared := arm
				switch {
				case arm == "" && verdict == stats.WinnerInconclusive:
					return fmt.Errorf("no significant winner yet; pass --variant and --force to declare one anyway")
				case arm == "":
					declared = string(verdict)
				case arm != string(verdict) && !force:
					return fmt.Errorf("significance check says %s; pass --force to declare %s", verdict, arm)
				}

				if err := s.DeclareWinner(ctx, name, declared); err != nil {
					if errors.Is(err, store.ErrCompleted) {
						return fmt.Errorf("experiment is not running (current state: %s)", store.StateCompleted)
					}
					return fmt.Errorf("failed to declare winner: %w", err)
				}

				label := exp.VariantLabel
				if declared == string(stats.WinnerControl) {
					label = exp.ControlLabel
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Declared winner for '%s': %s (\"%s\")\n", name, declared, label)
				fmt.Fprintln(out, "Experiment has been marked as completed.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&arm, "variant", "v", "", "winning arm: control or variant")
	cmd.Flags().BoolVar(&force, "force", false, "declare even when the significance check disagrees")

	return cmd
}
