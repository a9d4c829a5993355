package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/adpilot/adpilot/internal/stats"
	"github.com/adpilot/adpilot/internal/store"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results <name>",
	Short: "Show detailed results for a test",
	Long:  `Show conversion rates, confidence intervals, lift and significance for a test.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	name := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		exp, err := s.GetExperiment(context.Background(), name)
		if err != nil {
			return notFound(name, err)
		}

		a := stats.Analyze(exp)
		out := cmd.OutOrStdout()

		// Print header
		fmt.Fprintf(out, "EXPERIMENT: %s\n", exp.Name)
		fmt.Fprintf(out, "STATE: %s\n", exp.State)
		if exp.Hypothesis != "" {
			fmt.Fprintf(out, "HYPOTHESIS: %s\n", exp.Hypothesis)
		}
		if exp.Winner != nil {
			fmt.Fprintf(out, "DECLARED WINNER: %s\n", *exp.Winner)
		}
		fmt.Fprintf(out, "CREATED: %s\n", exp.CreatedAt.Format("2006-01-02"))
		fmt.Fprintln(out)

		// Print table header
		fmt.Fprintln(out, "ARM               VISITORS  CONVERSIONS  RATE     95% CI")
		fmt.Fprintln(out, strings.Repeat("─", 62))

		for _, arm := range []stats.ArmSummary{a.Control, a.Variant} {
			ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", arm.CILower*100, arm.CIUpper*100)
			if arm.Visitors == 0 {
				ciStr = "N/A"
			}

			fmt.Fprintf(out, "%-16s  %-8s  %-11s  %-7s  %s\n",
				truncate(arm.Label),
				formatNumber(arm.Visitors),
				formatNumber(arm.Conversions),
				formatPercent(arm.Rate),
				ciStr,
			)
		}

		fmt.Fprintln(out)

		if a.Err != nil {
			fmt.Fprintln(out, "Statistical significance: Not enough data to determine a winner")
			fmt.Fprintf(out, "(%v)\n", explainEvalError(a.Err))
			return nil
		}

		r := a.Result
		if r.LiftDefined {
			fmt.Fprintf(out, "Lift: %+.2f%%\n", r.Lift)
		}
		fmt.Fprintf(out, "Confidence: %d%% %s\n", r.Confidence, confidenceBar(r.Confidence))

		switch {
		case r.Winner == stats.WinnerVariant:
			fmt.Fprintf(out, "Statistical significance: %d%% confident \"%s\" beats \"%s\"\n", r.Confidence, exp.VariantLabel, exp.ControlLabel)
		case r.Winner == stats.WinnerControl:
			fmt.Fprintf(out, "Statistical significance: %d%% confident \"%s\" beats \"%s\"\n", r.Confidence, exp.ControlLabel, exp.VariantLabel)
		case r.Confidence >= 90:
			fmt.Fprintf(out, "Statistical significance: %d%% confident (not yet significant)\n", r.Confidence)
		default:
			fmt.Fprintln(out, "Statistical significance: Not enough data to determine a winner")
		}

		return nil
	})
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}
