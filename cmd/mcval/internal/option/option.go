// Package option implements the european and american subcommands.
package option

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/meenmo/mcval/cmd/mcval/internal/input"
	"github.com/meenmo/mcval/report"
	"github.com/meenmo/mcval/sim"
	"github.com/meenmo/mcval/valuation"
)

// PricingInput defines the JSON input schema for a single option.
type PricingInput struct {
	PricingDate string       `json:"pricing_date"` // "2025-01-01"
	Name        string       `json:"name"`         // optional, defaults to the command name
	Underlying  input.Asset  `json:"underlying"`
	Option      input.Option `json:"option"`

	// FixedSeed defaults to true so repeated runs agree.
	FixedSeed *bool `json:"fixed_seed"`

	// InitialValues, when set, revalues the option at each initial value of the underlying.
	InitialValues []float64 `json:"initial_values"`
}

// Run values one option with the given exercise style (European or American).
func Run(exercise string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := strings.ToLower(exercise)
	flags := input.NewFlags(cmd, stderr)
	if err := flags.Set.Parse(args); err != nil {
		return 2
	}
	if *flags.Help {
		usage(stderr, cmd)
		return 0
	}
	format, err := report.ParseFormat(*flags.Format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var in PricingInput
	ok, err := input.Load(stdin, *flags.Input, &in)
	if !ok {
		usage(stderr, cmd)
		return 2
	}
	if err != nil {
		return input.WriteError(stdout, err.Error())
	}

	engine, fixedSeed, err := build(exercise, in)
	if err != nil {
		return input.WriteError(stdout, err.Error())
	}

	if len(in.InitialValues) > 0 {
		stats, err := report.OptionStats(engine, in.InitialValues, valuation.GreekOptions{})
		if err != nil {
			return input.WriteError(stdout, err.Error())
		}
		if err := report.WriteOptionStats(stdout, format, stats); err != nil {
			return input.WriteError(stdout, err.Error())
		}
		return 0
	}

	res, err := valuation.Summarize(engine, valuation.PVOptions{FixedSeed: fixedSeed}, valuation.GreekOptions{})
	if err != nil {
		return input.WriteError(stdout, err.Error())
	}
	if err := report.WriteResults(stdout, format, []valuation.Result{res}); err != nil {
		return input.WriteError(stdout, err.Error())
	}
	return 0
}

func usage(w io.Writer, cmd string) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  mcval %s < input.json\n", cmd)
	fmt.Fprintf(w, "  mcval %s -input /path/to/input.json [-format json|table|msgpack]\n", cmd)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Read JSON input, value a %s option by Monte Carlo, output present value, delta and vega.\n", cmd)
}

func build(exercise string, in PricingInput) (valuation.Engine, bool, error) {
	pricingDate, err := input.Date("pricing_date", in.PricingDate)
	if err != nil {
		return nil, false, err
	}
	if in.Underlying.ShortRate == nil {
		return nil, false, fmt.Errorf("underlying.short_rate is required")
	}
	if in.Underlying.FinalDate == "" {
		in.Underlying.FinalDate = in.Option.Maturity
	}
	if in.Underlying.Currency == "" {
		in.Underlying.Currency = in.Option.Currency
	}
	if in.Option.Currency == "" {
		in.Option.Currency = in.Underlying.Currency
	}
	name := in.Name
	if name == "" {
		name = strings.ToLower(exercise)
	}
	model := in.Underlying.Model
	if model == "" {
		model = sim.ModelGBM
	}

	underlyingEnv, err := in.Underlying.Environment("underlying", pricingDate)
	if err != nil {
		return nil, false, err
	}
	optionEnv, err := in.Option.Environment(name, pricingDate)
	if err != nil {
		return nil, false, err
	}
	p, err := in.Option.BuildPayoff()
	if err != nil {
		return nil, false, err
	}

	logger := log.With().Str("component", "option").Str("instrument", name).Logger()
	underlying, err := sim.New(model, "underlying", underlyingEnv, nil, sim.WithLogger(logger))
	if err != nil {
		return nil, false, err
	}
	engine, err := valuation.New(exercise, name, underlying, optionEnv, p, valuation.WithLogger(logger))
	if err != nil {
		return nil, false, err
	}

	fixedSeed := true
	if in.FixedSeed != nil {
		fixedSeed = *in.FixedSeed
	}
	return engine, fixedSeed, nil
}
