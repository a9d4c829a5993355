package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/adpilot/adpilot/internal/stats"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

// promptCount asks for a single count. Replaced in tests.
var promptCount = func(label string) (int, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validateCount,
	}

	value, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return 0, err
	}

	return strconv.Atoi(strings.TrimSpace(value))
}

func validateCount(input string) error {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return errors.New("enter a whole number")
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newEvaluateCmd())
}

func newEvaluateCmd() *cobra.Command {
	var (
		in          stats.Input
		interactive bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Check an A/B result for statistical significance",
		Long: `Run a two-proportion z-test on control and variant counts without
storing anything.

Missing counts are prompted for interactively.

Examples:
  adpilot evaluate --control-visitors 1000 --control-conversions 50 \
                   --variant-visitors 1000 --variant-conversions 65
  adpilot evaluate --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := []struct {
				flag  string
				label string
				dest  *int
			}{
				{"control-visitors", "Control visitors", &in.ControlVisitors},
				{"control-conversions", "Control conversions", &in.ControlConversions},
				{"variant-visitors", "Variant visitors", &in.VariantVisitors},
				{"variant-conversions", "Variant conversions", &in.VariantConversions},
			}

			for _, f := range fields {
				if cmd.Flags().Changed(f.flag) && !interactive {
					continue
				}
				n, err := promptCount(f.label)
				if err != nil {
					return err
				}
				*f.dest = n
			}

			result, err := stats.Evaluate(in)
			if err != nil {
				return explainEvalError(err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}

			printResult(out, "Control", "Variant", result)
			return nil
		},
	}

	cmd.Flags().IntVar(&in.ControlVisitors, "control-visitors", 0, "visitors in the control group")
	cmd.Flags().IntVar(&in.ControlConversions, "control-conversions", 0, "conversions in the control group")
	cmd.Flags().IntVar(&in.VariantVisitors, "variant-visitors", 0, "visitors in the variant group")
	cmd.Flags().IntVar(&in.VariantConversions, "variant-conversions", 0, "conversions in the variant group")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for every count")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}

// explainEvalError turns engine errors into messages for the terminal.
func explainEvalError(err error) error {
	var verr *stats.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("invalid %s: %s", strings.ReplaceAll(verr.Field, "_", " "), verr.Reason)
	}
	if errors.Is(err, stats.ErrUndefinedResult) {
		return fmt.Errorf("enter at least one visitor per group (%w)", err)
	}
	return err
}

func printResult(out io.Writer, controlLabel, variantLabel string, r stats.Result) {
	fmt.Fprintf(out, "%-16s  %6.2f%%\n", truncate(controlLabel), r.ControlRate)
	fmt.Fprintf(out, "%-16s  %6.2f%%\n", truncate(variantLabel), r.VariantRate)
	fmt.Fprintln(out)

	if r.LiftDefined {
		fmt.Fprintf(out, "Lift:        %+.2f%%\n", r.Lift)
	} else {
		fmt.Fprintln(out, "Lift:        n/a (control has no conversions)")
	}
	fmt.Fprintf(out, "Confidence:  %d%% %s\n", r.Confidence, confidenceBar(r.Confidence))
	fmt.Fprintln(out)

	switch r.Winner {
	case stats.WinnerVariant:
		fmt.Fprintf(out, "Winner: %s (variant) at %d%% confidence\n", variantLabel, r.Confidence)
	case stats.WinnerControl:
		fmt.Fprintf(out, "Winner: %s (control) at %d%% confidence\n", controlLabel, r.Confidence)
	default:
		fmt.Fprintf(out, "Inconclusive: needs %d%% confidence, keep the test running\n", stats.SignificanceThreshold)
	}
}

func confidenceBar(confidence int) string {
	filled := confidence / 5
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 20-filled) + "]"
}

// Truncate name if too long, counting runes so labels stay valid UTF-8
func truncate(name string) string {
	runes := []rune(name)
	if len(runes) > 16 {
		return string(runes[:13]) + "..."
	}
	return name
}
