package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Well-known environment keys.
const (
	KeyInitialValue  = "initial_value"
	KeyVolatility    = "volatility"
	KeyFinalDate     = "final_date"
	KeyStartingDate  = "starting_date"
	KeyCurrency      = "currency"
	KeyFrequency     = "frequency"
	KeyPaths         = "paths"
	KeyModel         = "model"
	KeyStrike        = "strike"
	KeyMaturity      = "maturity"
	KeyLambda        = "lambda"
	KeyMu            = "mu"
	KeyDelta         = "delta"
	KeyKappa         = "kappa"
	KeyTheta         = "theta"
	KeyTimeGrid      = "time_grid"
	KeySpecialDates  = "special_dates"
	KeyDiscountCurve = "discount_curve"
)

// Environment is a named collection of constants, lists and curves as of a pricing date.
//
// Add* methods populate an environment while it is being built. Components read the values
// they need when they are constructed, so later changes are not observed by them.
type Environment struct {
	Name        string
	PricingDate time.Time

	constants map[string]any
	lists     map[string]any
	curves    map[string]DiscountCurve
}

// NewEnvironment returns an empty environment.
func NewEnvironment(name string, pricingDate time.Time) *Environment {
	return &Environment{
		Name:        name,
		PricingDate: pricingDate,
		constants:   make(map[string]any),
		lists:       make(map[string]any),
		curves:      make(map[string]DiscountCurve),
	}
}

// AddConstant stores a scalar (float, int, string or date).
func (e *Environment) AddConstant(key string, value any) *Environment {
	e.constants[key] = value
	return e
}

// AddList stores a sequence ([]time.Time or []float64).
func (e *Environment) AddList(key string, value any) *Environment {
	e.lists[key] = value
	return e
}

// AddCurve stores a discount curve.
func (e *Environment) AddCurve(key string, c DiscountCurve) *Environment {
	e.curves[key] = c
	return e
}

// HasConstant reports whether key is set.
func (e *Environment) HasConstant(key string) bool {
	_, ok := e.constants[key]
	return ok
}

// HasList reports whether key is set.
func (e *Environment) HasList(key string) bool {
	_, ok := e.lists[key]
	return ok
}

// Constant returns the raw constant stored under key.
func (e *Environment) Constant(key string) (any, error) {
	v, ok := e.constants[key]
	if !ok {
		return nil, &MissingKeyError{Environment: e.Name, Kind: "constant", Key: key}
	}
	return v, nil
}

// Float returns a numeric constant as float64.
func (e *Environment) Float(key string) (float64, error) {
	v, err := e.Constant(key)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, Invalid(key, "expected number, got %T", v)
	}
}

// Int returns an integral constant.
func (e *Environment) Int(key string) (int, error) {
	v, err := e.Constant(key)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return 0, Invalid(key, "expected integer, got %v", x)
		}
		return int(x), nil
	default:
		return 0, Invalid(key, "expected integer, got %T", v)
	}
}

// String returns a string constant.
func (e *Environment) String(key string) (string, error) {
	v, err := e.Constant(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", Invalid(key, "expected string, got %T", v)
	}
	return s, nil
}

// Date returns a date constant.
func (e *Environment) Date(key string) (time.Time, error) {
	v, err := e.Constant(key)
	if err != nil {
		return time.Time{}, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, Invalid(key, "expected date, got %T", v)
	}
	return t, nil
}

// List returns the raw list stored under key.
func (e *Environment) List(key string) (any, error) {
	v, ok := e.lists[key]
	if !ok {
		return nil, &MissingKeyError{Environment: e.Name, Kind: "list", Key: key}
	}
	return v, nil
}

// Dates returns a copy of a date list.
func (e *Environment) Dates(key string) ([]time.Time, error) {
	v, err := e.List(key)
	if err != nil {
		return nil, err
	}
	d, ok := v.([]time.Time)
	if !ok {
		return nil, Invalid(key, "expected date list, got %T", v)
	}
	return append([]time.Time(nil), d...), nil
}

// Floats returns a copy of a numeric list.
func (e *Environment) Floats(key string) ([]float64, error) {
	v, err := e.List(key)
	if err != nil {
		return nil, err
	}
	f, ok := v.([]float64)
	if !ok {
		return nil, Invalid(key, "expected float list, got %T", v)
	}
	return append([]float64(nil), f...), nil
}

// Curve returns the curve stored under key.
func (e *Environment) Curve(key string) (DiscountCurve, error) {
	c, ok := e.curves[key]
	if !ok {
		return nil, &MissingKeyError{Environment: e.Name, Kind: "curve", Key: key}
	}
	return c, nil
}

// AddEnvironment merges other into e in place, overwriting colliding keys.
func (e *Environment) AddEnvironment(other *Environment) {
	if other == nil {
		return
	}
	for k, v := range other.constants {
		e.constants[k] = v
	}
	for k, v := range other.lists {
		e.lists[k] = copyList(v)
	}
	for k, v := range other.curves {
		e.curves[k] = v
	}
}

// Merge returns a new environment holding e's entries overwritten by other's.
// Neither input is modified. The result keeps e's name and pricing date.
func (e *Environment) Merge(other *Environment) *Environment {
	out := e.Clone()
	out.AddEnvironment(other)
	return out
}

// Clone copies the maps and list slices of e. Curves are shared.
func (e *Environment) Clone() *Environment {
	out := NewEnvironment(e.Name, e.PricingDate)
	out.AddEnvironment(e)
	return out
}

// Info renders the environment contents in key order.
func (e *Environment) Info() string {
	var b strings.Builder
	fmt.Fprintln(&b, "**Constants**")
	for _, k := range sortedKeys(e.constants) {
		fmt.Fprintf(&b, "%s %s\n", k, formatValue(e.constants[k]))
	}
	fmt.Fprintln(&b, "\n**Lists**")
	for _, k := range sortedKeys(e.lists) {
		fmt.Fprintf(&b, "%s %s\n", k, formatValue(e.lists[k]))
	}
	fmt.Fprintln(&b, "\n**Curves**")
	for _, k := range sortedKeys(e.curves) {
		fmt.Fprintf(&b, "%s %s\n", k, e.curves[k].Name())
	}
	return b.String()
}

func copyList(v any) any {
	switch x := v.(type) {
	case []time.Time:
		return append([]time.Time(nil), x...)
	case []float64:
		return append([]float64(nil), x...)
	default:
		return v
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case time.Time:
		return x.Format("2006-01-02")
	case []time.Time:
		parts := make([]string, len(x))
		for i, d := range x {
			parts[i] = d.Format("2006-01-02")
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprint(v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
