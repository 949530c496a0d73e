package valuation

import (
	"fmt"
	"math"

	"github.com/meenmo/mcval/config"
	"github.com/meenmo/mcval/utils"
)

// GreekOptions controls a finite-difference sensitivity. Zero values select the active
// configuration.
type GreekOptions struct {
	// Interval is the bump size. For delta it defaults to initial value / DeltaDivisor; for vega
	// it is floored at volatility / VegaDivisor and defaults to VegaBump.
	Interval float64
	// Accuracy is the number of decimals the result is rounded to.
	Accuracy int
}

// delta bumps the initial value of the underlying, revalues on the fixed seed and restores the
// original value. The result is clamped to [-1, 1].
func delta(e *engine, opts GreekOptions) (float64, error) {
	cfg := config.GetConfig()
	initial := e.underlying.InitialValue()
	interval := opts.Interval
	if interval <= 0 {
		interval = initial / cfg.DeltaDivisor
	}
	if interval == 0 {
		return 0, fmt.Errorf("Delta %s: zero bump for initial value %v", e.name, initial)
	}

	left, err := e.fixedSeedValue()
	if err != nil {
		return 0, fmt.Errorf("Delta %s: %w", e.name, err)
	}
	bumped := initial + interval
	if err := e.Update(Update{InitialValue: &bumped}); err != nil {
		return 0, err
	}
	right, _, err := e.value(PVOptions{FixedSeed: true})
	if resetErr := e.Update(Update{InitialValue: &initial}); resetErr != nil && err == nil {
		err = resetErr
	}
	if err != nil {
		return 0, fmt.Errorf("Delta %s: %w", e.name, err)
	}

	d := math.Max(-1, math.Min(1, (right-left)/interval))
	return utils.RoundTo(d, greekAccuracy(opts, cfg)), nil
}

// vega bumps the volatility of the underlying, revalues on the fixed seed and restores the
// original value.
func vega(e *engine, opts GreekOptions) (float64, error) {
	cfg := config.GetConfig()
	vol := e.underlying.Volatility()
	interval := opts.Interval
	if interval <= 0 {
		interval = cfg.VegaBump
	}
	interval = math.Max(interval, vol/cfg.VegaDivisor)

	left, err := e.fixedSeedValue()
	if err != nil {
		return 0, fmt.Errorf("Vega %s: %w", e.name, err)
	}
	bumped := vol + interval
	if err := e.Update(Update{Volatility: &bumped}); err != nil {
		return 0, err
	}
	right, _, err := e.value(PVOptions{FixedSeed: true})
	if resetErr := e.Update(Update{Volatility: &vol}); resetErr != nil && err == nil {
		err = resetErr
	}
	if err != nil {
		return 0, fmt.Errorf("Vega %s: %w", e.name, err)
	}

	return utils.RoundTo((right-left)/interval, greekAccuracy(opts, cfg)), nil
}

// fixedSeedValue values e on freshly generated fixed-seed paths, replacing any cached ones.
func (e *engine) fixedSeedValue() (float64, error) {
	if err := e.underlying.GeneratePaths(true); err != nil {
		return 0, err
	}
	v, _, err := e.value(PVOptions{FixedSeed: true})
	return v, err
}

func greekAccuracy(opts GreekOptions, cfg config.Config) uint32 {
	if opts.Accuracy > 0 {
		return uint32(opts.Accuracy)
	}
	return cfg.GreekAccuracy
}
