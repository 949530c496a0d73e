package payoff

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expression is a payoff rule written in the expr language over the State vocabulary:
// maturityValue, pathMean, pathMax, pathMin, instrumentValues and strike, plus exp, log and
// sqrt and the max, min and abs builtins. For example
//
//	max(maturityValue - strike, 0)
//
// Any other identifier is rejected by Compile. An Expression is not safe for concurrent use.
type Expression struct {
	rule    string
	program *vm.Program
	machine vm.VM
}

// Compile type-checks rule against State.
func Compile(rule string) (*Expression, error) {
	program, err := expr.Compile(rule,
		expr.Env(State{}),
		expr.AsFloat64(),
		mathFunc("exp", math.Exp),
		mathFunc("log", math.Log),
		mathFunc("sqrt", math.Sqrt),
	)
	if err != nil {
		return nil, &EvaluationError{Rule: rule, Err: err}
	}
	return &Expression{rule: rule, program: program}, nil
}

// Value runs the compiled rule on s.
func (e *Expression) Value(s State) (float64, error) {
	out, err := e.machine.Run(e.program, s)
	if err != nil {
		return 0, &EvaluationError{Rule: e.rule, Err: err}
	}
	v, ok := out.(float64)
	if !ok {
		return 0, &EvaluationError{Rule: e.rule, Err: fmt.Errorf("result %T is not a number", out)}
	}
	return v, nil
}

func (e *Expression) String() string { return e.rule }

func mathFunc(name string, fn func(float64) float64) expr.Option {
	return expr.Function(name, func(params ...any) (any, error) {
		x, err := toFloat(params[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return fn(x), nil
	}, new(func(float64) float64))
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
