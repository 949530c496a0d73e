// Package payoff defines option payoffs evaluated on simulated paths.
package payoff

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// State is what a payoff sees on one path. For European valuation it describes the path up to
// maturity; for early-exercise intrinsic values it describes the path up to the exercise date,
// which then plays the role of maturity.
type State struct {
	MaturityValue    float64 `expr:"maturityValue"`
	PathMean         float64 `expr:"pathMean"`
	PathMax          float64 `expr:"pathMax"`
	PathMin          float64 `expr:"pathMin"`
	InstrumentValues float64 `expr:"instrumentValues"`
	Strike           float64 `expr:"strike"`
}

// Payoff maps a path state to a cash flow.
type Payoff interface {
	Value(s State) (float64, error)
	String() string
}

// EvaluationError reports a payoff that could not be evaluated.
type EvaluationError struct {
	Rule string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("payoff %q: %v", e.Rule, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Kinds accepted by Parse.
const (
	KindCall         = "call"
	KindPut          = "put"
	KindAsianCall    = "asian_call"
	KindAsianPut     = "asian_put"
	KindLookbackCall = "lookback_call"
	KindLookbackPut  = "lookback_put"
	KindExpression   = "expression"
)

// Call pays max(S_T - K, 0).
type Call struct{}

func (Call) Value(s State) (float64, error) { return math.Max(s.MaturityValue-s.Strike, 0), nil }
func (Call) String() string                 { return "max(maturityValue - strike, 0)" }

// Put pays max(K - S_T, 0).
type Put struct{}

func (Put) Value(s State) (float64, error) { return math.Max(s.Strike-s.MaturityValue, 0), nil }
func (Put) String() string                 { return "max(strike - maturityValue, 0)" }

// AsianCall pays max(mean(S) - K, 0), the mean taken over the path up to maturity.
type AsianCall struct{}

func (AsianCall) Value(s State) (float64, error) { return math.Max(s.PathMean-s.Strike, 0), nil }
func (AsianCall) String() string                 { return "max(pathMean - strike, 0)" }

// AsianPut pays max(K - mean(S), 0).
type AsianPut struct{}

func (AsianPut) Value(s State) (float64, error) { return math.Max(s.Strike-s.PathMean, 0), nil }
func (AsianPut) String() string                 { return "max(strike - pathMean, 0)" }

// LookbackCall pays max(max(S) - K, 0).
type LookbackCall struct{}

func (LookbackCall) Value(s State) (float64, error) { return math.Max(s.PathMax-s.Strike, 0), nil }
func (LookbackCall) String() string                 { return "max(pathMax - strike, 0)" }

// LookbackPut pays max(K - min(S), 0).
type LookbackPut struct{}

func (LookbackPut) Value(s State) (float64, error) { return math.Max(s.Strike-s.PathMin, 0), nil }
func (LookbackPut) String() string                 { return "max(strike - pathMin, 0)" }

// Parse builds a payoff from its kind. rule is only read for the expression kind.
func Parse(kind, rule string) (Payoff, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindCall:
		return Call{}, nil
	case KindPut:
		return Put{}, nil
	case KindAsianCall:
		return AsianCall{}, nil
	case KindAsianPut:
		return AsianPut{}, nil
	case KindLookbackCall:
		return LookbackCall{}, nil
	case KindLookbackPut:
		return LookbackPut{}, nil
	case KindExpression, "":
		if strings.TrimSpace(rule) == "" {
			return nil, &EvaluationError{Rule: rule, Err: fmt.Errorf("empty payoff expression")}
		}
		return Compile(rule)
	default:
		return nil, &EvaluationError{Rule: kind, Err: fmt.Errorf("unknown payoff kind")}
	}
}

// AtMaturity evaluates p on every path (column) of paths using rows [0, maturity].
func AtMaturity(p Payoff, paths *mat.Dense, maturity int, strike float64) ([]float64, error) {
	rows, cols := paths.Dims()
	if maturity < 0 || maturity >= rows {
		return nil, fmt.Errorf("AtMaturity: row %d outside %d simulated dates", maturity, rows)
	}
	sum := make([]float64, cols)
	hi := make([]float64, cols)
	lo := make([]float64, cols)
	copy(hi, paths.RawRowView(0))
	copy(lo, paths.RawRowView(0))
	for t := 0; t <= maturity; t++ {
		for j, v := range paths.RawRowView(t) {
			sum[j] += v
			hi[j] = math.Max(hi[j], v)
			lo[j] = math.Min(lo[j], v)
		}
	}

	out := make([]float64, cols)
	last := paths.RawRowView(maturity)
	n := float64(maturity + 1)
	for j := range out {
		v, err := value(p, State{
			MaturityValue:    last[j],
			PathMean:         sum[j] / n,
			PathMax:          hi[j],
			PathMin:          lo[j],
			InstrumentValues: last[j],
			Strike:           strike,
		})
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}

// Intrinsic evaluates p as if exercised at each row of paths, returning a matrix of the same
// shape. Path statistics at row t run over rows [0, t].
func Intrinsic(p Payoff, paths *mat.Dense, strike float64) (*mat.Dense, error) {
	rows, cols := paths.Dims()
	out := mat.NewDense(rows, cols, nil)
	sum := make([]float64, cols)
	hi := make([]float64, cols)
	lo := make([]float64, cols)
	copy(hi, paths.RawRowView(0))
	copy(lo, paths.RawRowView(0))
	for t := 0; t < rows; t++ {
		row, dst := paths.RawRowView(t), out.RawRowView(t)
		n := float64(t + 1)
		for j, v := range row {
			sum[j] += v
			hi[j] = math.Max(hi[j], v)
			lo[j] = math.Min(lo[j], v)
			x, err := value(p, State{
				MaturityValue:    v,
				PathMean:         sum[j] / n,
				PathMax:          hi[j],
				PathMin:          lo[j],
				InstrumentValues: v,
				Strike:           strike,
			})
			if err != nil {
				return nil, err
			}
			dst[j] = x
		}
	}
	return out, nil
}

func value(p Payoff, s State) (float64, error) {
	v, err := p.Value(s)
	if err != nil {
		var evalErr *EvaluationError
		if errors.As(err, &evalErr) {
			return 0, evalErr
		}
		return 0, &EvaluationError{Rule: p.String(), Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &EvaluationError{Rule: p.String(), Err: fmt.Errorf("non-finite cash flow %v", v)}
	}
	return v, nil
}
