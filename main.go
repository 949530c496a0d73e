package main

import (
	"fmt"
	"os"
	"time"

	"github.com/meenmo/mcval/curve"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/payoff"
	"github.com/meenmo/mcval/portfolio"
	"github.com/meenmo/mcval/report"
	"github.com/meenmo/mcval/sim"
	"github.com/meenmo/mcval/valuation"
)

func main() {
	pricingDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	maturity := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	csr, err := curve.NewConstantShortRate("csr", 0.06)
	check(err)

	gbmEnv := market.NewEnvironment("gbm", pricingDate).
		AddConstant(market.KeyInitialValue, 36.0).
		AddConstant(market.KeyVolatility, 0.2).
		AddConstant(market.KeyFinalDate, maturity).
		AddConstant(market.KeyCurrency, "EUR").
		AddConstant(market.KeyFrequency, "M").
		AddConstant(market.KeyPaths, 10000).
		AddCurve(market.KeyDiscountCurve, csr)
	gbm, err := sim.NewGBM("gbm", gbmEnv, nil)
	check(err)

	optEnv := market.NewEnvironment("put", pricingDate).
		AddConstant(market.KeyMaturity, maturity).
		AddConstant(market.KeyStrike, 40.0).
		AddConstant(market.KeyCurrency, "EUR")

	eur, err := valuation.NewEuropean("eur_put", gbm, optEnv, payoff.Put{})
	check(err)
	am, err := valuation.NewAmerican("am_put", gbm, optEnv, payoff.Put{})
	check(err)

	var results []valuation.Result
	for _, e := range []valuation.Engine{eur, am} {
		r, err := valuation.Summarize(e, valuation.PVOptions{FixedSeed: true}, valuation.GreekOptions{})
		check(err)
		results = append(results, r)
	}
	check(report.WriteResults(os.Stdout, report.FormatTable, results))
	fmt.Println()

	jdEnv := market.NewEnvironment("jd", pricingDate).
		AddConstant(market.KeyInitialValue, 36.0).
		AddConstant(market.KeyVolatility, 0.1).
		AddConstant(market.KeyLambda, 0.3).
		AddConstant(market.KeyMu, -0.75).
		AddConstant(market.KeyDelta, 0.1)
	valEnv := market.NewEnvironment("general", pricingDate).
		AddConstant(market.KeyFinalDate, maturity).
		AddConstant(market.KeyCurrency, "EUR").
		AddConstant(market.KeyFrequency, "W").
		AddConstant(market.KeyPaths, 5000).
		AddCurve(market.KeyDiscountCurve, csr)

	book, err := portfolio.New("demo",
		map[string]portfolio.Position{
			"eur_put": {Name: "eur_put", Quantity: 10, Underlying: "gbm", Environment: optEnv, Exercise: valuation.European, Payoff: payoff.Put{}},
			"am_put":  {Name: "am_put", Quantity: 5, Underlying: "jd", Environment: optEnv, Exercise: valuation.American, Payoff: payoff.Put{}},
		},
		valEnv,
		map[string]portfolio.Asset{
			"gbm": {Model: sim.ModelGBM, Environment: gbmEnv},
			"jd":  {Model: sim.ModelJD, Environment: jdEnv},
		},
		[]sim.Pair{{A: "gbm", B: "jd", Rho: 0.9}},
		portfolio.Options{FixedSeed: true},
	)
	check(err)
	stats, err := book.Statistics(true)
	check(err)
	check(report.WriteStatistics(os.Stdout, report.FormatTable, stats))
}

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
