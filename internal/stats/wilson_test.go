package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adpilot/adpilot/internal/stats"
)

func TestWilsonInterval_50PercentConversion(t *testing.T) {
	lower, upper := stats.WilsonInterval(50, 100, 0.95)

	// Approximately [0.40, 0.60]
	assert.InDelta(t, 0.40, lower, 0.02)
	assert.InDelta(t, 0.60, upper, 0.02)
}

func TestWilsonInterval_LowConversion(t *testing.T) {
	// 5% conversion, roughly [0.02, 0.11]
	lower, upper := stats.WilsonInterval(5, 100, 0.95)

	assert.InDelta(t, 0.02, lower, 0.01)
	assert.InDelta(t, 0.11, upper, 0.02)
}

func TestWilsonInterval_ZeroTrials(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 0, 0.95)

	assert.Zero(t, lower)
	assert.Zero(t, upper)
}

func TestWilsonInterval_Bounds(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 100, 0.95)
	assert.InDelta(t, 0.0, lower, 1e-12)
	assert.InDelta(t, 0.03, upper, 0.02)

	lower, upper = stats.WilsonInterval(100, 100, 0.95)
	assert.InDelta(t, 0.97, lower, 0.02)
	assert.LessOrEqual(t, upper, 1.0)
}

func TestWilsonInterval_SmallSampleIsWide(t *testing.T) {
	lower, upper := stats.WilsonInterval(5, 10, 0.95)

	assert.Greater(t, upper-lower, 0.3)
}

func TestZScore(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   float64
	}{
		{0.80, 1.2816},
		{0.90, 1.6449},
		{0.95, 1.9600},
		{0.99, 2.5758},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, stats.ZScore(tt.confidence), 0.001, "confidence %v", tt.confidence)
	}

	assert.Zero(t, stats.ZScore(0))
	assert.Zero(t, stats.ZScore(1))
}
