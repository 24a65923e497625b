package validation

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
)

// ErrInvalid is wrapped by every error this package returns.
var ErrInvalid = errors.New("invalid configuration")

// ConfigValidator provides a fluent interface for validating configuration values.
// It collects all validation errors rather than failing on the first one.
type ConfigValidator struct {
	errors []error
	name   string // config struct name for error messages
}

// NewConfigValidator creates a new config validator with the given config name.
func NewConfigValidator(configName string) *ConfigValidator {
	return &ConfigValidator{
		name:   configName,
		errors: make([]error, 0),
	}
}

func (cv *ConfigValidator) addf(field, format string, args ...any) {
	cv.errors = append(cv.errors, fmt.Errorf("%s.%s: "+format, append([]any{cv.name, field}, args...)...))
}

// Required validates that a string field is not empty.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		cv.addf(field, "required field is empty")
	}
	return cv
}

// Positive validates that an int field is positive (> 0).
func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value <= 0 {
		cv.addf(field, "value %d must be positive", value)
	}
	return cv
}

// NonNegative validates that an int field is non-negative (>= 0).
func (cv *ConfigValidator) NonNegative(field string, value int) *ConfigValidator {
	if value < 0 {
		cv.addf(field, "value %d must be non-negative", value)
	}
	return cv
}

// RangeInt validates that an int field is within [min, max].
func (cv *ConfigValidator) RangeInt(field string, value, min, max int) *ConfigValidator {
	if value < min || value > max {
		cv.addf(field, "value %d is outside range [%d, %d]", value, min, max)
	}
	return cv
}

// RangeFloat validates that a float field is within [min, max].
func (cv *ConfigValidator) RangeFloat(field string, value, min, max float64) *ConfigValidator {
	if math.IsNaN(value) || value < min || value > max {
		cv.addf(field, "value %g is outside range [%g, %g]", value, min, max)
	}
	return cv
}

// OneOf validates that a string field is one of the allowed values.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	cv.addf(field, "value %q must be one of %v", value, allowed)
	return cv
}

// SumApprox validates that values add up to want within tolerance.
func (cv *ConfigValidator) SumApprox(field string, values []float64, want, tolerance float64) *ConfigValidator {
	var sum float64
	for _, v := range values {
		sum += v
	}
	if math.Abs(sum-want) > tolerance {
		cv.addf(field, "values sum to %.4f, want %g ± %g", sum, want, tolerance)
	}
	return cv
}

// DisjointPrefixes validates that no two prefixes overlap. names label the
// prefixes in error messages and must be the same length.
func (cv *ConfigValidator) DisjointPrefixes(field string, names []string, prefixes []netip.Prefix) *ConfigValidator {
	for i := range prefixes {
		for j := i + 1; j < len(prefixes); j++ {
			if prefixes[i].Overlaps(prefixes[j]) {
				cv.addf(field, "%s (%s) overlaps %s (%s)", names[i], prefixes[i], names[j], prefixes[j])
			}
		}
	}
	return cv
}

// Unique validates that no value repeats.
func (cv *ConfigValidator) Unique(field string, values []string) *ConfigValidator {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			cv.addf(field, "duplicate value %q", v)
		}
		seen[v] = true
	}
	return cv
}

// Custom applies a custom validation function.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %w", cv.name, field, err))
	}
	return cv
}

// When conditionally applies validations if the condition is true.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// Validate returns a combined error wrapping ErrInvalid if any validations
// failed.
func (cv *ConfigValidator) Validate() error {
	switch len(cv.errors) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%w: %w", ErrInvalid, cv.errors[0])
	default:
		return fmt.Errorf("%w: %s validation failed with %d errors: %w",
			ErrInvalid, cv.name, len(cv.errors), errors.Join(cv.errors...))
	}
}

// DefaultOrInt returns the value if it's positive, otherwise returns the default.
func DefaultOrInt(value, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	}
	return value
}
