package portfolio

import (
	"fmt"
	"strings"

	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/payoff"
)

// Position is a quantity of one derivative on one risk factor.
type Position struct {
	Name     string
	Quantity float64
	// Underlying names the risk factor in the portfolio's assets.
	Underlying string
	// Environment holds maturity, optional strike and currency of the derivative.
	Environment *market.Environment
	// Exercise is European or American.
	Exercise string
	Payoff   payoff.Payoff
}

// Info renders the position.
func (p Position) Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "NAME\n%s\n\n", p.Name)
	fmt.Fprintf(&b, "QUANTITY\n%v\n\n", p.Quantity)
	fmt.Fprintf(&b, "UNDERLYING\n%s\n\n", p.Underlying)
	b.WriteString("MARKET ENVIRONMENT\n")
	if p.Environment != nil {
		b.WriteString(p.Environment.Info())
	}
	fmt.Fprintf(&b, "\nOPTION TYPE\n%s\n\n", p.Exercise)
	b.WriteString("PAYOFF FUNCTION\n")
	if p.Payoff != nil {
		b.WriteString(p.Payoff.String())
	}
	b.WriteString("\n")
	return b.String()
}
