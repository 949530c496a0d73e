// Package schedule implements the grid subcommand.
package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/meenmo/mcval/calendar"
	"github.com/meenmo/mcval/cmd/mcval/internal/input"
	"github.com/meenmo/mcval/grid"
)

// GridInput defines the JSON input schema for a time grid.
type GridInput struct {
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Frequency    string   `json:"frequency"` // D, B, W, M, BM, Q, A
	SpecialDates []string `json:"special_dates"`
	Calendar     string   `json:"calendar"` // used by B and BM
	Holidays     []string `json:"holidays"` // added to Calendar
}

type GridOutput struct {
	Dates []string `json:"dates"`
	Count int      `json:"count"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := input.NewFlags("grid", stderr)
	if err := flags.Set.Parse(args); err != nil {
		return 2
	}
	if *flags.Help {
		usage(stderr)
		return 0
	}

	var in GridInput
	ok, err := input.Load(stdin, *flags.Input, &in)
	if !ok {
		usage(stderr)
		return 2
	}
	if err != nil {
		return input.WriteError(stdout, err.Error())
	}

	out, err := build(in)
	if err != nil {
		return input.WriteError(stdout, err.Error())
	}
	outputBytes, _ := json.Marshal(out)
	fmt.Fprintln(stdout, string(outputBytes))
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  mcval grid < input.json")
	fmt.Fprintln(w, "  mcval grid -input /path/to/input.json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read JSON input, build the simulation date grid, output JSON to stdout.")
}

func build(in GridInput) (*GridOutput, error) {
	start, err := input.Date("start", in.Start)
	if err != nil {
		return nil, err
	}
	end, err := input.Date("end", in.End)
	if err != nil {
		return nil, err
	}
	special, err := dates("special_dates", in.SpecialDates)
	if err != nil {
		return nil, err
	}
	holidays, err := dates("holidays", in.Holidays)
	if err != nil {
		return nil, err
	}
	cal := calendar.CalendarID(in.Calendar)
	if len(holidays) > 0 {
		calendar.AddHolidays(cal, holidays...)
	}

	g, err := grid.Build(grid.Spec{Start: start, End: end, Frequency: in.Frequency, SpecialDates: special, Calendar: cal})
	if err != nil {
		return nil, err
	}
	out := &GridOutput{Dates: make([]string, len(g)), Count: len(g)}
	for i, d := range g {
		out.Dates[i] = d.Format("2006-01-02")
	}
	return out, nil
}

func dates(field string, values []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := input.Date(field, v)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
