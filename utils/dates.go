package utils

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DateLayout is the canonical YYYY-MM-DD layout used for inputs and reports.
const DateLayout = "2006-01-02"

// SortDates sorts a slice of time.Time in ascending order.
func SortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
}

// UniqueSortedDates returns a sorted copy of dates with duplicates removed.
// Dates are compared at day precision.
func UniqueSortedDates(dates []time.Time) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		out = append(out, Truncate(d))
	}
	SortDates(out)

	n := 0
	for i, d := range out {
		if i > 0 && d.Equal(out[n-1]) {
			continue
		}
		out[n] = d
		n++
	}
	return out[:n]
}

// Truncate drops the clock part of t and normalises it to UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IndexOfDate returns the position of target in dates, comparing at day precision.
func IndexOfDate(dates []time.Time, target time.Time) (int, bool) {
	target = Truncate(target)
	for i, d := range dates {
		if Truncate(d).Equal(target) {
			return i, true
		}
	}
	return -1, false
}

// ParseDate converts YYYY-MM-DD to time.Time.
func ParseDate(strDate string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	return t, nil
}

// Days returns the day count fraction in days between two dates.
func Days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// WholeDays returns the number of calendar days between two dates, ignoring clock time.
func WholeDays(start, end time.Time) int {
	return int(math.Round(Truncate(end).Sub(Truncate(start)).Hours() / 24))
}

// MonthEnd returns the last calendar day of the month containing t.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// RoundTo rounds a float to the specified decimal places.
func RoundTo(val float64, decimals uint32) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
