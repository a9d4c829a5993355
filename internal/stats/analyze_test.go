package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpilot/adpilot/internal/stats"
	"github.com/adpilot/adpilot/internal/store"
)

func TestAnalyze_BasicResults(t *testing.T) {
	exp := &store.Experiment{
		Name:         "hook-test",
		ControlLabel: "Question hook",
		VariantLabel: "Stat hook",
		State:        store.StateRunning,
		Counts: store.Counts{
			ControlVisitors: 1000, ControlConversions: 100,
			VariantVisitors: 1000, VariantConversions: 150,
		},
	}

	a := stats.Analyze(exp)
	require.NoError(t, a.Err)

	assert.Equal(t, "Question hook", a.Control.Label)
	assert.Equal(t, "Stat hook", a.Variant.Label)
	assert.InDelta(t, 0.10, a.Control.Rate, 1e-9)
	assert.InDelta(t, 0.15, a.Variant.Rate, 1e-9)
	assert.Equal(t, stats.WinnerVariant, a.Result.Winner)

	for _, arm := range []stats.ArmSummary{a.Control, a.Variant} {
		assert.Less(t, arm.CILower, arm.Rate)
		assert.Greater(t, arm.CIUpper, arm.Rate)
	}
}

func TestAnalyze_EmptyExperiment(t *testing.T) {
	exp := &store.Experiment{Name: "new", ControlLabel: "A", VariantLabel: "B"}

	a := stats.Analyze(exp)

	assert.ErrorIs(t, a.Err, stats.ErrInvalidInput)
	assert.Zero(t, a.Control.Rate)
	assert.Zero(t, a.Variant.CIUpper)
}

func TestAnalyze_OneArmWithoutTraffic(t *testing.T) {
	exp := &store.Experiment{
		Name:   "half",
		Counts: store.Counts{ControlVisitors: 100, ControlConversions: 5},
	}

	a := stats.Analyze(exp)

	assert.ErrorIs(t, a.Err, stats.ErrUndefinedResult)
	assert.InDelta(t, 0.05, a.Control.Rate, 1e-9)
}
