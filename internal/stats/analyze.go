package stats

import (
	"github.com/adpilot/adpilot/internal/store"
)

// ArmSummary describes one arm of a stored experiment.
type ArmSummary struct {
	Label       string
	Visitors    int
	Conversions int
	Rate        float64 // 0-1
	CILower     float64
	CIUpper     float64
}

// Analysis combines per-arm summaries with the significance result.
// Err is set instead of Result when the counts cannot be evaluated yet.
type Analysis struct {
	Control ArmSummary
	Variant ArmSummary
	Result  Result
	Err     error
}

// InputFor extracts the engine input from a stored experiment.
func InputFor(exp *store.Experiment) Input {
	return Input{
		ControlVisitors:    exp.Counts.ControlVisitors,
		ControlConversions: exp.Counts.ControlConversions,
		VariantVisitors:    exp.Counts.VariantVisitors,
		VariantConversions: exp.Counts.VariantConversions,
	}
}

// Analyze summarizes both arms of an experiment and evaluates them.
func Analyze(exp *store.Experiment) *Analysis {
	c := exp.Counts
	a := &Analysis{
		Control: summarize(exp.ControlLabel, c.ControlVisitors, c.ControlConversions),
		Variant: summarize(exp.VariantLabel, c.VariantVisitors, c.VariantConversions),
	}

	a.Result, a.Err = Evaluate(InputFor(exp))
	return a
}

func summarize(label string, visitors, conversions int) ArmSummary {
	rate := 0.0
	if visitors > 0 {
		rate = float64(conversions) / float64(visitors)
	}

	lower, upper := WilsonInterval(conversions, visitors, 0.95)

	return ArmSummary{
		Label:       label,
		Visitors:    visitors,
		Conversions: conversions,
		Rate:        rate,
		CILower:     lower,
		CIUpper:     upper,
	}
}
