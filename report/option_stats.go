package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/meenmo/mcval/valuation"
)

// OptionStat is the value and sensitivities of an option at one initial value of its
// underlying.
type OptionStat struct {
	InitialValue float64 `json:"initial_value" msgpack:"initial_value"`
	PresentValue float64 `json:"present_value" msgpack:"present_value"`
	Delta        float64 `json:"delta" msgpack:"delta"`
	Vega         float64 `json:"vega" msgpack:"vega"`
}

// OptionStats revalues e at each initial value on the fixed seed. The underlying's initial
// value is restored afterwards.
func OptionStats(e valuation.Engine, initialValues []float64, greeks valuation.GreekOptions) ([]OptionStat, error) {
	original := e.Underlying().InitialValue()
	defer func() {
		_ = e.Update(valuation.Update{InitialValue: &original})
	}()

	out := make([]OptionStat, 0, len(initialValues))
	for _, s := range initialValues {
		if err := e.Update(valuation.Update{InitialValue: &s}); err != nil {
			return nil, fmt.Errorf("OptionStats: %w", err)
		}
		res, err := valuation.Summarize(e, valuation.PVOptions{FixedSeed: true}, greeks)
		if err != nil {
			return nil, fmt.Errorf("OptionStats at %v: %w", s, err)
		}
		out = append(out, OptionStat{InitialValue: s, PresentValue: res.PresentValue, Delta: res.Delta, Vega: res.Vega})
	}
	return out, nil
}

// WriteOptionStats renders an OptionStats series.
func WriteOptionStats(w io.Writer, format Format, stats []OptionStat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, stats)
	case FormatMsgpack:
		return writeMsgpack(w, stats)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "initial_value\tpresent_value\tdelta\tvega\t")
	for _, s := range stats {
		fmt.Fprintf(tw, "%v\t%s\t%s\t%s\t\n", s.InitialValue,
			fixed(s.PresentValue, ValuePlaces), fixed(s.Delta, GreekPlaces), fixed(s.Vega, GreekPlaces))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("WriteOptionStats: %w", err)
	}
	return nil
}
