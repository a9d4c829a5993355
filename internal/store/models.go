package store

import (
	"fmt"
	"time"
)

type ExperimentState string

const (
	StateRunning   ExperimentState = "running"
	StateCompleted ExperimentState = "completed"
)

// Counts are the observed visitors and conversions for both arms.
type Counts struct {
	ControlVisitors    int `json:"control_visitors"`
	ControlConversions int `json:"control_conversions"`
	VariantVisitors    int `json:"variant_visitors"`
	VariantConversions int `json:"variant_conversions"`
}

// Validate rejects counts that could never have been observed.
// Zero visitors is allowed: a new experiment starts empty.
func (c Counts) Validate() error {
	if c.ControlVisitors < 0 || c.ControlConversions < 0 || c.VariantVisitors < 0 || c.VariantConversions < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidCounts)
	}
	if c.ControlConversions > c.ControlVisitors {
		return fmt.Errorf("%w: control conversions (%d) exceed visitors (%d)", ErrInvalidCounts, c.ControlConversions, c.ControlVisitors)
	}
	if c.VariantConversions > c.VariantVisitors {
		return fmt.Errorf("%w: variant conversions (%d) exceed visitors (%d)", ErrInvalidCounts, c.VariantConversions, c.VariantVisitors)
	}
	return nil
}

// Add returns the element-wise sum of two counts.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		ControlVisitors:    c.ControlVisitors + o.ControlVisitors,
		ControlConversions: c.ControlConversions + o.ControlConversions,
		VariantVisitors:    c.VariantVisitors + o.VariantVisitors,
		VariantConversions: c.VariantConversions + o.VariantConversions,
	}
}

type Experiment struct {
	ID           int64
	Name         string
	ControlLabel string
	VariantLabel string
	Hypothesis   string // Optional
	Counts       Counts
	State        ExperimentState
	Winner       *string // "control" or "variant" once declared
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
