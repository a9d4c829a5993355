package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUndefinedResult matches every *UndefinedResultError.
	ErrUndefinedResult = errors.New("undefined result")
)

// ValidationError reports an input that can never produce a result.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// UndefinedResultError reports valid counts for which rates or lift
// cannot be computed, such as one arm with no visitors yet.
type UndefinedResultError struct {
	Reason string
}

func (e *UndefinedResultError) Error() string {
	return "result undefined: " + e.Reason
}

func (e *UndefinedResultError) Is(target error) bool {
	return target == ErrUndefinedResult
}

// Validate checks the counts of both arms.
func (in Input) Validate() error {
	checks := []struct {
		field string
		value int
	}{
		{"control_visitors", in.ControlVisitors},
		{"control_conversions", in.ControlConversions},
		{"variant_visitors", in.VariantVisitors},
		{"variant_conversions", in.VariantConversions},
	}
	for _, c := range checks {
		if c.value < 0 {
			return &ValidationError{Field: c.field, Reason: fmt.Sprintf("must not be negative (got %d)", c.value)}
		}
	}

	if in.ControlConversions > in.ControlVisitors {
		return &ValidationError{
			Field:  "control_conversions",
			Reason: fmt.Sprintf("%d exceeds control_visitors (%d)", in.ControlConversions, in.ControlVisitors),
		}
	}
	if in.VariantConversions > in.VariantVisitors {
		return &ValidationError{
			Field:  "variant_conversions",
			Reason: fmt.Sprintf("%d exceeds variant_visitors (%d)", in.VariantConversions, in.VariantVisitors),
		}
	}

	if in.ControlVisitors == 0 && in.VariantVisitors == 0 {
		return &ValidationError{Field: "visitors", Reason: "both groups have zero visitors"}
	}
	if in.ControlVisitors == 0 {
		return &UndefinedResultError{Reason: "control group has no visitors"}
	}
	if in.VariantVisitors == 0 {
		return &UndefinedResultError{Reason: "variant group has no visitors"}
	}

	return nil
}
