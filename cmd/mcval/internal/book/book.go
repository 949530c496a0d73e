// Package book implements the portfolio subcommand.
package book

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/meenmo/mcval/cmd/mcval/internal/input"
	"github.com/meenmo/mcval/curve"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/portfolio"
	"github.com/meenmo/mcval/report"
	"github.com/meenmo/mcval/sim"
)

// PortfolioInput defines the JSON input schema for a portfolio.
type PortfolioInput struct {
	Name        string  `json:"name"`
	PricingDate string  `json:"pricing_date"`
	FinalDate   string  `json:"final_date"`
	Frequency   string  `json:"frequency"`
	Paths       int     `json:"paths"`
	Currency    string  `json:"currency"`
	ShortRate   float64 `json:"short_rate"`
	FixedSeed   *bool   `json:"fixed_seed"`

	Assets       map[string]input.Asset `json:"assets"`
	Correlations []Correlation          `json:"correlations"`
	Positions    map[string]Position    `json:"positions"`
}

// Correlation is one pair of risk factors.
type Correlation struct {
	A   string  `json:"a"`
	B   string  `json:"b"`
	Rho float64 `json:"rho"`
}

// Position is one holding.
type Position struct {
	input.Option
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Underlying string  `json:"underlying"`
	Exercise   string  `json:"exercise"` // European or American
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := input.NewFlags("portfolio", stderr)
	if err := flags.Set.Parse(args); err != nil {
		return 2
	}
	if *flags.Help {
		usage(stderr)
		return 0
	}
	format, err := report.ParseFormat(*flags.Format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	var in PortfolioInput
	ok, err := input.Load(stdin, *flags.Input, &in)
	if !ok {
		usage(stderr)
		return 2
	}
	if err != nil {
		return input.WriteError(stdout, err.Error())
	}

	p, fixedSeed, err := build(in)
	if err != nil {
		return input.WriteError(stdout, err.Error())
	}
	stats, err := p.Statistics(fixedSeed)
	if err != nil {
		return input.WriteError(stdout, err.Error())
	}
	if err := report.WriteStatistics(stdout, format, stats); err != nil {
		return input.WriteError(stdout, err.Error())
	}
	for _, s := range stats {
		if s.Err != nil {
			return 1
		}
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  mcval portfolio < input.json")
	fmt.Fprintln(w, "  mcval portfolio -input /path/to/input.json [-format json|table|msgpack]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read JSON input, value every position on a shared simulation, output per-position statistics.")
}

func build(in PortfolioInput) (*portfolio.Portfolio, bool, error) {
	pricingDate, err := input.Date("pricing_date", in.PricingDate)
	if err != nil {
		return nil, false, err
	}
	if len(in.Positions) == 0 {
		return nil, false, fmt.Errorf("positions is required")
	}
	if in.Currency == "" {
		return nil, false, fmt.Errorf("currency is required")
	}

	csr, err := curve.NewConstantShortRate("csr", in.ShortRate)
	if err != nil {
		return nil, false, err
	}
	valEnv := market.NewEnvironment("general", pricingDate).
		AddConstant(market.KeyCurrency, in.Currency).
		AddCurve(market.KeyDiscountCurve, csr)
	if in.FinalDate != "" {
		d, err := input.Date("final_date", in.FinalDate)
		if err != nil {
			return nil, false, err
		}
		valEnv.AddConstant(market.KeyFinalDate, d)
	}
	if in.Frequency != "" {
		valEnv.AddConstant(market.KeyFrequency, in.Frequency)
	}
	if in.Paths > 0 {
		valEnv.AddConstant(market.KeyPaths, in.Paths)
	}

	assets := make(map[string]portfolio.Asset, len(in.Assets))
	for name, a := range in.Assets {
		env, err := a.Environment(name, pricingDate)
		if err != nil {
			return nil, false, fmt.Errorf("asset %s: %w", name, err)
		}
		model := a.Model
		if model == "" {
			model = sim.ModelGBM
		}
		assets[name] = portfolio.Asset{Model: model, Environment: env}
	}

	positions := make(map[string]portfolio.Position, len(in.Positions))
	for id, pos := range in.Positions {
		name := pos.Name
		if name == "" {
			name = id
		}
		env, err := pos.Environment(name, pricingDate)
		if err != nil {
			return nil, false, fmt.Errorf("position %s: %w", id, err)
		}
		p, err := pos.BuildPayoff()
		if err != nil {
			return nil, false, fmt.Errorf("position %s: %w", id, err)
		}
		positions[id] = portfolio.Position{
			Name:        name,
			Quantity:    pos.Quantity,
			Underlying:  pos.Underlying,
			Environment: env,
			Exercise:    pos.Exercise,
			Payoff:      p,
		}
	}

	pairs := make([]sim.Pair, len(in.Correlations))
	for i, c := range in.Correlations {
		pairs[i] = sim.Pair{A: c.A, B: c.B, Rho: c.Rho}
	}

	fixedSeed := true
	if in.FixedSeed != nil {
		fixedSeed = *in.FixedSeed
	}
	logger := log.Logger
	name := in.Name
	if name == "" {
		name = "portfolio"
	}
	p, err := portfolio.New(name, positions, valEnv, assets, pairs, portfolio.Options{FixedSeed: fixedSeed, Logger: &logger})
	if err != nil {
		return nil, false, err
	}
	return p, fixedSeed, nil
}
