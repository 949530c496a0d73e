// Package report renders valuation results and portfolio statistics.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/meenmo/mcval/portfolio"
	"github.com/meenmo/mcval/valuation"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable   Format = "table"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat validates a format name. The empty string selects the table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatMsgpack:
		return f, nil
	default:
		return "", fmt.Errorf("ParseFormat: unknown format %q", s)
	}
}

// Decimal places used for monetary values and sensitivities.
const (
	ValuePlaces int32 = 6
	GreekPlaces int32 = 4
)

// StatisticRow is the rendered form of a portfolio.Statistic.
type StatisticRow struct {
	RunID    string  `json:"run_id" msgpack:"run_id"`
	Name     string  `json:"name" msgpack:"name"`
	Quantity float64 `json:"quantity" msgpack:"quantity"`
	Value    float64 `json:"value" msgpack:"value"`
	Currency string  `json:"currency" msgpack:"currency"`
	PosValue float64 `json:"pos_value" msgpack:"pos_value"`
	PosDelta float64 `json:"pos_delta" msgpack:"pos_delta"`
	PosVega  float64 `json:"pos_vega" msgpack:"pos_vega"`
	Error    string  `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Rows rounds statistics for output.
func Rows(stats []portfolio.Statistic) []StatisticRow {
	out := make([]StatisticRow, len(stats))
	for i, s := range stats {
		out[i] = StatisticRow{
			RunID:    s.RunID,
			Name:     s.Name,
			Quantity: s.Quantity,
			Value:    Round(s.Value, ValuePlaces),
			Currency: s.Currency,
			PosValue: Round(s.PosValue, ValuePlaces),
			PosDelta: Round(s.PosDelta, GreekPlaces),
			PosVega:  Round(s.PosVega, GreekPlaces),
		}
		if s.Err != nil {
			out[i].Error = s.Err.Error()
		}
	}
	return out
}

// Round rounds half away from zero in decimal arithmetic.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// WriteStatistics renders portfolio statistics. The table closes with one total line per
// currency over the positions that were valued.
func WriteStatistics(w io.Writer, format Format, stats []portfolio.Statistic) error {
	rows := Rows(stats)
	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatMsgpack:
		return writeMsgpack(w, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "name\tquantity\tvalue\tcurrency\tpos_value\tpos_delta\tpos_vega\t")

	type total struct{ value, delta, vega decimal.Decimal }
	totals := map[string]*total{}
	var currencies []string
	for i, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\t%v\t-\t%s\t-\t-\t-\t\n", r.Name, r.Quantity, r.Currency)
			continue
		}
		fmt.Fprintf(tw, "%s\t%v\t%s\t%s\t%s\t%s\t%s\t\n", r.Name, r.Quantity,
			fixed(r.Value, ValuePlaces), r.Currency, fixed(r.PosValue, ValuePlaces),
			fixed(r.PosDelta, GreekPlaces), fixed(r.PosVega, GreekPlaces))

		t, ok := totals[r.Currency]
		if !ok {
			t = &total{}
			totals[r.Currency] = t
			currencies = append(currencies, r.Currency)
		}
		s := stats[i]
		t.value = t.value.Add(decimal.NewFromFloat(s.PosValue))
		t.delta = t.delta.Add(decimal.NewFromFloat(s.PosDelta))
		t.vega = t.vega.Add(decimal.NewFromFloat(s.PosVega))
	}
	for _, c := range currencies {
		t := totals[c]
		fmt.Fprintf(tw, "total\t\t\t%s\t%s\t%s\t%s\t\n", c,
			t.value.StringFixed(ValuePlaces), t.delta.StringFixed(GreekPlaces), t.vega.StringFixed(GreekPlaces))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("WriteStatistics: %w", err)
	}

	for _, r := range rows {
		if r.Error != "" {
			fmt.Fprintf(w, "%s: %s\n", r.Name, r.Error)
		}
	}
	return nil
}

// WriteResults renders single-engine valuation results.
func WriteResults(w io.Writer, format Format, results []valuation.Result) error {
	rounded := make([]valuation.Result, len(results))
	for i, r := range results {
		r.PresentValue = Round(r.PresentValue, ValuePlaces)
		r.Delta = Round(r.Delta, GreekPlaces)
		r.Vega = Round(r.Vega, GreekPlaces)
		rounded[i] = r
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, rounded)
	case FormatMsgpack:
		return writeMsgpack(w, rounded)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "name\tunderlying\tcurrency\tpresent_value\tdelta\tvega\t")
	for _, r := range rounded {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n", r.Name, r.Underlying, r.Currency,
			fixed(r.PresentValue, ValuePlaces), fixed(r.Delta, GreekPlaces), fixed(r.Vega, GreekPlaces))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("WriteResults: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writeJSON: %w", err)
	}
	return nil
}

func writeMsgpack(w io.Writer, v any) error {
	if err := msgpack.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("writeMsgpack: %w", err)
	}
	return nil
}
