package market

import (
	"fmt"
	"time"
)

// DiscountCurve converts dates into discount factors under a short-rate model.
type DiscountCurve interface {
	Name() string
	ShortRate() float64
	DiscountFactor(from, to time.Time) float64
	DiscountFactors(ref time.Time, dates []time.Time) ([]float64, error)
}

// ConfigurationError reports an invalid input detected while constructing a component.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// Invalid builds a ConfigurationError with a formatted reason.
func Invalid(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// MissingKeyError is returned by the Environment getters when a key is absent.
type MissingKeyError struct {
	Environment string
	Kind        string // constant, list or curve
	Key         string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("market environment %q: missing %s %q", e.Environment, e.Kind, e.Key)
}
