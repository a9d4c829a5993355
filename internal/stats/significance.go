package stats

import (
	"math"
)

// SignificanceThreshold is the confidence (in percent) an arm needs
// before it is declared the winner. 95 corresponds to p < 0.05, two-tailed.
const SignificanceThreshold = 95

// Winner classifies the outcome of a two-arm test.
type Winner string

const (
	WinnerControl      Winner = "control"
	WinnerVariant      Winner = "variant"
	WinnerInconclusive Winner = "inconclusive"
)

// Input holds the observed counts for both arms of a test.
type Input struct {
	ControlVisitors    int `json:"control_visitors"`
	ControlConversions int `json:"control_conversions"`
	VariantVisitors    int `json:"variant_visitors"`
	VariantConversions int `json:"variant_conversions"`
}

// Result is the outcome of Evaluate. Rates and lift are percentages
// rounded to two decimals; Confidence is a whole percentage.
type Result struct {
	ControlRate float64 `json:"control_rate"`
	VariantRate float64 `json:"variant_rate"`
	Lift        float64 `json:"lift"`
	LiftDefined bool    `json:"lift_defined"` // false when the control rate is zero
	ZScore      float64 `json:"z_score"`
	Confidence  int     `json:"confidence"`
	Winner      Winner  `json:"winner"`
}

// Significant reports whether the result cleared the significance threshold.
func (r Result) Significant() bool {
	return r.Winner != WinnerInconclusive
}

// Evaluate runs a pooled two-proportion z-test on the input.
//
// It returns a *ValidationError for negative counts, conversions above
// visitors, or when neither arm has visitors, and an *UndefinedResultError
// when only one arm has visitors. A result below the significance
// threshold is not an error; its Winner is WinnerInconclusive.
func Evaluate(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	cv := float64(in.ControlVisitors)
	vv := float64(in.VariantVisitors)

	controlRate := float64(in.ControlConversions) / cv
	variantRate := float64(in.VariantConversions) / vv

	// Pooled proportion under the null hypothesis (rates are equal).
	// Summed as floats so counts near MaxInt cannot wrap.
	pooled := (float64(in.ControlConversions) + float64(in.VariantConversions)) / (cv + vv)
	variance := pooled * (1 - pooled) * (1/cv + 1/vv)

	result := Result{
		ControlRate: round2(controlRate * 100),
		VariantRate: round2(variantRate * 100),
		Winner:      WinnerInconclusive,
	}

	if controlRate > 0 {
		result.Lift = round2((variantRate - controlRate) / controlRate * 100)
		result.LiftDefined = true
	}

	// Both arms at 0% or both at 100%: no variance to test against.
	if variance <= 0 {
		return result, nil
	}

	z := (variantRate - controlRate) / math.Sqrt(variance)
	result.ZScore = z
	result.Confidence = confidencePercent(z)

	if result.Confidence >= SignificanceThreshold {
		switch {
		case z > 0:
			result.Winner = WinnerVariant
		case z < 0:
			result.Winner = WinnerControl
		}
	}

	return result, nil
}

// confidencePercent converts a z statistic to a two-tailed confidence,
// clamped to [0, 100] and rounded to the nearest integer.
func confidencePercent(z float64) int {
	c := NormalCDF(math.Abs(z))*2 - 1
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return int(math.Round(c * 100))
}

// NormalCDF approximates the cumulative distribution function
// of the standard normal distribution. Maximum absolute error is about 1.5e-7.
func NormalCDF(x float64) float64 {
	// Abramowitz and Stegun, Handbook of Mathematical Functions, formula 7.1.26
	a1 := 0.254829592
	a2 := -0.284496736
	a3 := 1.421413741
	a4 := -1.453152027
	a5 := 1.061405429
	p := 0.3275911

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt2

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
