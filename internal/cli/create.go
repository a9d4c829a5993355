package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/adpilot/adpilot/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	var (
		controlLabel string
		variantLabel string
		hypothesis   string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new A/B test",
		Long: `Create a new A/B test with a control and a variant. Counts start at zero;
add them with 'adpilot record'.

Examples:
  adpilot create spring-hook
  adpilot create ugc-vs-studio --control-label "Studio" --variant-label "UGC" \
      --hypothesis "UGC creative lowers CPA for cold audiences"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			return withStore(func(s *store.SQLiteStore) error {
				exp, err := s.CreateExperiment(context.Background(), name, controlLabel, variantLabel, hypothesis)
				if errors.Is(err, store.ErrExists) {
					return fmt.Errorf("experiment '%s' already exists", name)
				}
				if err != nil {
					return fmt.Errorf("failed to create experiment: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created experiment '%s':\n", exp.Name)
				fmt.Fprintf(out, "  control: %s\n", exp.ControlLabel)
				fmt.Fprintf(out, "  variant: %s\n", exp.VariantLabel)
				if exp.Hypothesis != "" {
					fmt.Fprintf(out, "  hypothesis: %s\n", exp.Hypothesis)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&controlLabel, "control-label", "Control", "display name of the control arm")
	cmd.Flags().StringVar(&variantLabel, "variant-label", "Variant", "display name of the variant arm")
	cmd.Flags().StringVar(&hypothesis, "hypothesis", "", "what the test is expected to show (optional)")

	return cmd
}
