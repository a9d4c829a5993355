package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/adpilot/adpilot/internal/stats"
	"github.com/adpilot/adpilot/internal/store"
	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export experiments with their current results",
	Long: `Export every experiment's counts and significance result in CSV or JSON format.

Examples:
  adpilot export --format csv > experiments.csv
  adpilot export --format json > experiments.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

type exportRow struct {
	Name               string        `json:"name"`
	State              string        `json:"state"`
	DeclaredWinner     string        `json:"declared_winner,omitempty"`
	ControlLabel       string        `json:"control_label"`
	VariantLabel       string        `json:"variant_label"`
	ControlVisitors    int           `json:"control_visitors"`
	ControlConversions int           `json:"control_conversions"`
	VariantVisitors    int           `json:"variant_visitors"`
	VariantConversions int           `json:"variant_conversions"`
	Result             *stats.Result `json:"result"`
	UpdatedAt          int64         `json:"updated_at"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		experiments, err := s.ListExperiments(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}

		rows := make([]exportRow, len(experiments))
		for i, exp := range experiments {
			rows[i] = toExportRow(exp)
		}

		if exportFormat == "csv" {
			return exportCSV(cmd.OutOrStdout(), rows)
		}
		return exportJSON(cmd.OutOrStdout(), rows)
	})
}

func toExportRow(exp *store.Experiment) exportRow {
	c := exp.Counts
	row := exportRow{
		Name:               exp.Name,
		State:              string(exp.State),
		ControlLabel:       exp.ControlLabel,
		VariantLabel:       exp.VariantLabel,
		ControlVisitors:    c.ControlVisitors,
		ControlConversions: c.ControlConversions,
		VariantVisitors:    c.VariantVisitors,
		VariantConversions: c.VariantConversions,
		UpdatedAt:          exp.UpdatedAt.Unix(),
	}
	if exp.Winner != nil {
		row.DeclaredWinner = *exp.Winner
	}

	// Result stays nil when the counts cannot be evaluated yet
	if result, err := stats.Evaluate(stats.InputFor(exp)); err == nil {
		row.Result = &result
	}
	return row
}

func exportCSV(out io.Writer, rows []exportRow) error {
	w := csv.NewWriter(out)

	header := []string{
		"name", "state", "declared_winner",
		"control_visitors", "control_conversions", "variant_visitors", "variant_conversions",
		"control_rate", "variant_rate", "lift", "confidence", "winner", "updated_at",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.Name, r.State, r.DeclaredWinner,
			strconv.Itoa(r.ControlVisitors),
			strconv.Itoa(r.ControlConversions),
			strconv.Itoa(r.VariantVisitors),
			strconv.Itoa(r.VariantConversions),
			"", "", "", "", "",
			time.Unix(r.UpdatedAt, 0).UTC().Format(time.RFC3339),
		}
		if r.Result != nil {
			record[7] = strconv.FormatFloat(r.Result.ControlRate, 'f', 2, 64)
			record[8] = strconv.FormatFloat(r.Result.VariantRate, 'f', 2, 64)
			if r.Result.LiftDefined {
				record[9] = strconv.FormatFloat(r.Result.Lift, 'f', 2, 64)
			}
			record[10] = strconv.Itoa(r.Result.Confidence)
			record[11] = string(r.Result.Winner)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func exportJSON(out io.Writer, rows []exportRow) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Experiments []exportRow `json:"experiments"`
	}{Experiments: rows})
}
