// Package curve provides discount curves for simulation and valuation.
package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/utils"
)

// ConstantShortRate discounts with a single continuously compounded short rate.
type ConstantShortRate struct {
	name      string
	shortRate float64
	dayCount  float64
}

// NewConstantShortRate builds a flat curve. A negative rate is a configuration error.
func NewConstantShortRate(name string, shortRate float64) (*ConstantShortRate, error) {
	if shortRate < 0 || math.IsNaN(shortRate) {
		return nil, market.Invalid("short_rate", "short rate must be non-negative, got %v", shortRate)
	}
	return &ConstantShortRate{name: name, shortRate: shortRate, dayCount: utils.DaysPerYear}, nil
}

func (c *ConstantShortRate) Name() string       { return c.name }
func (c *ConstantShortRate) ShortRate() float64 { return c.shortRate }

// DiscountFactor returns the factor that moves a cash flow at `to` back to `from`.
func (c *ConstantShortRate) DiscountFactor(from, to time.Time) float64 {
	return math.Exp(-c.shortRate * utils.StepFraction(from, to, c.dayCount))
}

// DiscountFactors returns exp(-r * yf(ref, d)) for each date, so the factor at ref is 1 and
// factors decrease as dates move past ref.
func (c *ConstantShortRate) DiscountFactors(ref time.Time, dates []time.Time) ([]float64, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("DiscountFactors: reference date is required")
	}
	out := make([]float64, len(dates))
	for i, d := range dates {
		out[i] = c.DiscountFactor(ref, d)
	}
	return out, nil
}

// RelativeDiscountFactors normalises on the latest supplied date: the factor there is 1 and
// each earlier date gets exp(-r * yf(d, latest)). Output order follows the input.
func (c *ConstantShortRate) RelativeDiscountFactors(dates []time.Time) []float64 {
	out := make([]float64, len(dates))
	if len(dates) == 0 {
		return out
	}
	latest := dates[0]
	for _, d := range dates[1:] {
		if d.After(latest) {
			latest = d
		}
	}
	for i, d := range dates {
		out[i] = c.DiscountFactor(d, latest)
	}
	return out
}
