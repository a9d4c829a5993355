package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/adpilot/adpilot/internal/stats"
	"github.com/adpilot/adpilot/internal/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tests",
	Long:  `List all A/B tests with their state, traffic and current verdict.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		experiments, err := s.ListExperiments(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(experiments) == 0 {
			fmt.Fprintln(out, "No experiments yet.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Create one with:")
			fmt.Fprintln(out, "  adpilot create <name>")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATE\tVISITORS\tCONVERSIONS\tCONFIDENCE\tVERDICT\tCREATED")

		for _, exp := range experiments {
			c := exp.Counts
			a := stats.Analyze(exp)

			confidence := "-"
			verdict := "no data"
			if a.Err == nil {
				confidence = fmt.Sprintf("%d%%", a.Result.Confidence)
				verdict = string(a.Result.Winner)
			}
			if exp.Winner != nil {
				verdict = *exp.Winner + " (declared)"
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				exp.Name,
				strings.ToUpper(string(exp.State)),
				formatNumber(c.ControlVisitors+c.VariantVisitors),
				formatNumber(c.ControlConversions+c.VariantConversions),
				confidence,
				verdict,
				exp.CreatedAt.Format("2006-01-02"),
			)
		}

		return w.Flush()
	})
}

// formatNumber groups digits in threes: 1234567 -> 1,234,567
func formatNumber(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
