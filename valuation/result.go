package valuation

// Result is the valuation summary of one engine.
type Result struct {
	Name         string  `json:"name" msgpack:"name"`
	Underlying   string  `json:"underlying" msgpack:"underlying"`
	Currency     string  `json:"currency" msgpack:"currency"`
	PresentValue float64 `json:"present_value" msgpack:"present_value"`
	Delta        float64 `json:"delta" msgpack:"delta"`
	Vega         float64 `json:"vega" msgpack:"vega"`
}

// Summarize computes present value, delta and vega of e.
func Summarize(e Engine, pv PVOptions, greeks GreekOptions) (Result, error) {
	value, err := e.PresentValue(pv)
	if err != nil {
		return Result{}, err
	}
	d, err := e.Delta(greeks)
	if err != nil {
		return Result{}, err
	}
	v, err := e.Vega(greeks)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Name:         e.Name(),
		Underlying:   e.Underlying().Name(),
		Currency:     e.Currency(),
		PresentValue: value,
		Delta:        d,
		Vega:         v,
	}, nil
}
