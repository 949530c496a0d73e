package utils

import (
	"time"
)

// DaysPerYear is the day-count basis used for simulation time steps (ACT/365F).
const DaysPerYear = 365.0

// YearFraction computes year fraction between two dates using the specified day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case "ACT/360":
		return Days(start, end) / 360.0
	case "ACT/365F":
		return Days(start, end) / DaysPerYear
	case "30E/360", "30/360":
		// D1 and D2 are capped at 30
		d1 := min(start.Day(), 30)
		d2 := min(end.Day(), 30)
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / DaysPerYear
	}
}

// StepFraction is the year fraction between two grid dates in whole calendar days
// divided by dayCount. A non-positive dayCount falls back to DaysPerYear.
func StepFraction(start, end time.Time, dayCount float64) float64 {
	if dayCount <= 0 {
		dayCount = DaysPerYear
	}
	return float64(WholeDays(start, end)) / dayCount
}

// YearDeltas converts a date vector into year fractions measured from its first element.
func YearDeltas(dates []time.Time, dayCount float64) []float64 {
	out := make([]float64, len(dates))
	if len(dates) == 0 {
		return out
	}
	start := dates[0]
	for i, d := range dates {
		out[i] = StepFraction(start, d, dayCount)
	}
	return out
}
