package calendar

import (
	"sync"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// WeekendsOnly treats every Monday-Friday as a business day.
	WeekendsOnly CalendarID = ""
	TARGET       CalendarID = "TARGET"
	JPN          CalendarID = "JPN"
	USD          CalendarID = "USD"
	KRW          CalendarID = "KRW"
)

var (
	mu       sync.RWMutex
	holidays = map[CalendarID]map[string]struct{}{}
)

// AddHolidays registers holiday dates for a calendar. Dates are stored at day precision.
func AddHolidays(cal CalendarID, dates ...time.Time) {
	mu.Lock()
	defer mu.Unlock()
	set, ok := holidays[cal]
	if !ok {
		set = make(map[string]struct{}, len(dates))
		holidays[cal] = set
	}
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := holidays[cal][t.Format("2006-01-02")]
	return ok
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// BusinessDays lists every business day in [start, end].
func BusinessDays(cal CalendarID, start, end time.Time) []time.Time {
	var out []time.Time
	for d := AdjustFollowing(cal, start); !d.After(end); d = AddBusinessDays(cal, d, 1) {
		out = append(out, d)
	}
	return out
}
