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
	rootCmd.AddCommand(newRecordCmd())
}

func newRecordCmd() *cobra.Command {
	var (
		counts store.Counts
		add    bool
	)

	cmd := &cobra.Command{
		Use:   "record <name>",
		Short: "Record visitor and conversion counts for a test",
		Long: `Set the counts for a running experiment, or add to them with --add.

Examples:
  adpilot record spring-hook --control-visitors 1000 --control-conversions 50 \
                             --variant-visitors 1000 --variant-conversions 65
  adpilot record spring-hook --add --control-visitors 200 --variant-visitors 210 \
                             --variant-conversions 14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				var exp *store.Experiment
				var err error
				if add {
					exp, err = s.AddCounts(ctx, name, counts)
				} else {
					exp, err = s.SetCounts(ctx, name, counts)
				}
				if errors.Is(err, store.ErrCompleted) {
					return fmt.Errorf("experiment '%s' is completed; counts are frozen", name)
				}
				if err != nil {
					return notFound(name, err)
				}

				out := cmd.OutOrStdout()
				c := exp.Counts
				fmt.Fprintf(out, "Recorded counts for '%s':\n", exp.Name)
				fmt.Fprintf(out, "  %s: %s visitors, %s conversions\n", exp.ControlLabel, formatNumber(c.ControlVisitors), formatNumber(c.ControlConversions))
				fmt.Fprintf(out, "  %s: %s visitors, %s conversions\n", exp.VariantLabel, formatNumber(c.VariantVisitors), formatNumber(c.VariantConversions))

				a := stats.Analyze(exp)
				if a.Err == nil && a.Result.Significant() {
					fmt.Fprintf(out, "\nThis test is now significant. Run 'adpilot results %s' for details.\n", exp.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&counts.ControlVisitors, "control-visitors", 0, "visitors in the control group")
	cmd.Flags().IntVar(&counts.ControlConversions, "control-conversions", 0, "conversions in the control group")
	cmd.Flags().IntVar(&counts.VariantVisitors, "variant-visitors", 0, "visitors in the variant group")
	cmd.Flags().IntVar(&counts.VariantConversions, "variant-conversions", 0, "conversions in the variant group")
	cmd.Flags().BoolVar(&add, "add", false, "add to the stored counts instead of replacing them")

	return cmd
}
