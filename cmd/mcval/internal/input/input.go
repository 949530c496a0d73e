// Package input holds the JSON schema and I/O helpers shared by the mcval subcommands.
package input

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/meenmo/mcval/curve"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/payoff"
)

// Asset describes a risk factor.
//
// Conventions:
// - dates are YYYY-MM-DD
// - rates and volatilities are decimals (0.05 means 5%)
type Asset struct {
	Model        string   `json:"model"` // gbm, jd or srd
	InitialValue float64  `json:"initial_value"`
	Volatility   float64  `json:"volatility"`
	FinalDate    string   `json:"final_date"`
	Currency     string   `json:"currency"`
	Frequency    string   `json:"frequency"`
	Paths        int      `json:"paths"`
	ShortRate    *float64 `json:"short_rate"`

	// jump diffusion
	Lambda *float64 `json:"lambda"`
	Mu     *float64 `json:"mu"`
	Delta  *float64 `json:"delta"`

	// square-root diffusion
	Kappa *float64 `json:"kappa"`
	Theta *float64 `json:"theta"`
}

// Option describes a derivative.
type Option struct {
	Maturity   string   `json:"maturity"`
	Strike     *float64 `json:"strike"`
	Currency   string   `json:"currency"`
	Payoff     string   `json:"payoff"`     // call, put, asian_call, ... or expression
	Expression string   `json:"expression"` // expr rule when payoff is expression
}

// Environment converts the asset into a market environment. Empty fields are left out so
// that portfolio-level values can fill them.
func (a Asset) Environment(name string, pricingDate time.Time) (*market.Environment, error) {
	env := market.NewEnvironment(name, pricingDate).
		AddConstant(market.KeyInitialValue, a.InitialValue).
		AddConstant(market.KeyVolatility, a.Volatility)
	if strings.TrimSpace(a.FinalDate) != "" {
		d, err := Date("final_date", a.FinalDate)
		if err != nil {
			return nil, err
		}
		env.AddConstant(market.KeyFinalDate, d)
	}
	if a.Currency != "" {
		env.AddConstant(market.KeyCurrency, a.Currency)
	}
	if a.Frequency != "" {
		env.AddConstant(market.KeyFrequency, a.Frequency)
	}
	if a.Paths > 0 {
		env.AddConstant(market.KeyPaths, a.Paths)
	}
	if a.ShortRate != nil {
		csr, err := curve.NewConstantShortRate("csr", *a.ShortRate)
		if err != nil {
			return nil, err
		}
		env.AddCurve(market.KeyDiscountCurve, csr)
	}
	for key, v := range map[string]*float64{
		market.KeyLambda: a.Lambda,
		market.KeyMu:     a.Mu,
		market.KeyDelta:  a.Delta,
		market.KeyKappa:  a.Kappa,
		market.KeyTheta:  a.Theta,
	} {
		if v != nil {
			env.AddConstant(key, *v)
		}
	}
	return env, nil
}

// Environment converts the option terms into a market environment.
func (o Option) Environment(name string, pricingDate time.Time) (*market.Environment, error) {
	maturity, err := Date("maturity", o.Maturity)
	if err != nil {
		return nil, err
	}
	env := market.NewEnvironment(name, pricingDate).AddConstant(market.KeyMaturity, maturity)
	if o.Strike != nil {
		env.AddConstant(market.KeyStrike, *o.Strike)
	}
	if o.Currency != "" {
		env.AddConstant(market.KeyCurrency, o.Currency)
	}
	return env, nil
}

// BuildPayoff parses the payoff kind and rule.
func (o Option) BuildPayoff() (payoff.Payoff, error) {
	return payoff.Parse(o.Payoff, o.Expression)
}

// Date parses a required YYYY-MM-DD field.
func Date(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %v", field, err)
	}
	return t, nil
}

// Flags is the flag set every subcommand shares.
type Flags struct {
	Set    *flag.FlagSet
	Input  *string
	Format *string
	Help   *bool
}

// NewFlags registers -input, -format and -h/-help.
func NewFlags(name string, stderr io.Writer) Flags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := Flags{
		Set:    fs,
		Input:  fs.String("input", "", "JSON input path (optional; if set, ignores stdin)"),
		Format: fs.String("format", "json", "Output format: json, table or msgpack"),
		Help:   fs.Bool("h", false, "Show help"),
	}
	fs.BoolVar(f.Help, "help", false, "Show help")
	return f
}

// Load reads and decodes the JSON input. ok is false when stdin is an interactive terminal
// and no -input was given.
func Load(stdin io.Reader, path string, v any) (ok bool, err error) {
	path = strings.TrimSpace(path)
	if path == "" {
		if f, isFile := stdin.(*os.File); isFile {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				return false, nil
			}
		}
	}

	var data []byte
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return true, fmt.Errorf("failed to read input: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to parse JSON input: %v", err)
	}
	return true, nil
}

// WriteError prints {"error": msg} and returns exit code 1.
func WriteError(stdout io.Writer, msg string) int {
	out, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{msg})
	fmt.Fprintln(stdout, string(out))
	return 1
}
