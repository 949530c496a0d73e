// Package grid builds the simulation date grid shared by simulators and valuation engines.
package grid

import (
	"strings"
	"time"

	"github.com/meenmo/mcval/calendar"
	"github.com/meenmo/mcval/market"
	"github.com/meenmo/mcval/utils"
)

// Sampling frequencies.
const (
	Daily         = "D"
	BusinessDaily = "B"
	Weekly        = "W" // anchored on Sunday
	MonthEnd      = "M"
	BusinessMonth = "BM"
	QuarterEnd    = "Q"
	YearEnd       = "A"
)

// Spec describes a grid.
type Spec struct {
	Start        time.Time
	End          time.Time
	Frequency    string
	SpecialDates []time.Time
	Calendar     calendar.CalendarID
}

// Build returns the sorted, deduplicated grid of dates sampled at Frequency between Start and
// End inclusive, with Start, End and every special date inserted.
func Build(spec Spec) ([]time.Time, error) {
	if spec.Start.IsZero() || spec.End.IsZero() {
		return nil, market.Invalid("time_grid", "start and end dates are required")
	}
	start, end := utils.Truncate(spec.Start), utils.Truncate(spec.End)
	if end.Before(start) {
		return nil, market.Invalid("time_grid", "end %s before start %s",
			end.Format(utils.DateLayout), start.Format(utils.DateLayout))
	}

	dates, err := sample(start, end, spec.Frequency, spec.Calendar)
	if err != nil {
		return nil, err
	}

	dates = append(dates, start, end)
	dates = append(dates, spec.SpecialDates...)
	return utils.UniqueSortedDates(dates), nil
}

// FromEnvironment builds a grid from the pricing date, final_date and frequency of env,
// adding env's special_dates list (if any) and extra.
func FromEnvironment(env *market.Environment, extra ...time.Time) ([]time.Time, error) {
	end, err := env.Date(market.KeyFinalDate)
	if err != nil {
		return nil, err
	}
	freq, err := env.String(market.KeyFrequency)
	if err != nil {
		return nil, err
	}
	special := append([]time.Time(nil), extra...)
	if env.HasList(market.KeySpecialDates) {
		d, err := env.Dates(market.KeySpecialDates)
		if err != nil {
			return nil, err
		}
		special = append(special, d...)
	}
	return Build(Spec{Start: env.PricingDate, End: end, Frequency: freq, SpecialDates: special})
}

// IndexOf locates date in grid.
func IndexOf(grid []time.Time, date time.Time) (int, bool) {
	return utils.IndexOfDate(grid, date)
}

func sample(start, end time.Time, freq string, cal calendar.CalendarID) ([]time.Time, error) {
	var out []time.Time
	switch strings.ToUpper(strings.TrimSpace(freq)) {
	case Daily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			out = append(out, d)
		}
	case BusinessDaily:
		out = calendar.BusinessDays(cal, start, end)
	case Weekly, "W-SUN":
		d := start.AddDate(0, 0, (7-int(start.Weekday()))%7)
		for ; !d.After(end); d = d.AddDate(0, 0, 7) {
			out = append(out, d)
		}
	case MonthEnd:
		out = periodEnds(start, end, 1, func(t time.Time) time.Time { return t })
	case BusinessMonth:
		out = periodEnds(start, end, 1, func(t time.Time) time.Time {
			return calendar.LastBusinessDayOfMonth(cal, t)
		})
	case QuarterEnd:
		out = periodEnds(start, end, 3, func(t time.Time) time.Time { return t })
	case YearEnd, "Y":
		out = periodEnds(start, end, 12, func(t time.Time) time.Time { return t })
	default:
		return nil, market.Invalid(market.KeyFrequency, "unsupported frequency %q", freq)
	}
	return out, nil
}

// periodEnds lists month ends whose month is a multiple of stepMonths (Mar/Jun/Sep/Dec for 3,
// Dec for 12) within [start, end], passed through adjust.
func periodEnds(start, end time.Time, stepMonths int, adjust func(time.Time) time.Time) []time.Time {
	var out []time.Time
	m := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !m.After(end) {
		if int(m.Month())%stepMonths == 0 {
			d := adjust(utils.MonthEnd(m))
			if !d.Before(start) && !d.After(end) {
				out = append(out, d)
			}
		}
		m = m.AddDate(0, 1, 0)
	}
	return out
}
