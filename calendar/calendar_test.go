package calendar_test

import (
	"testing"
	"time"

	"github.com/meenmo/mcval/calendar"
)

func TestBusinessDays_SkipsWeekendsAndHolidays(t *testing.T) {
	t.Parallel()

	const cal calendar.CalendarID = "TEST-BD"
	holiday := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC) // Wednesday
	calendar.AddHolidays(cal, holiday)

	start := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC) // Saturday
	end := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)  // Sunday

	days := calendar.BusinessDays(cal, start, end)
	if len(days) != 4 {
		t.Fatalf("expected 4 business days, got %d: %v", len(days), days)
	}
	for _, d := range days {
		if !calendar.IsBusinessDay(cal, d) {
			t.Fatalf("%s is not a business day", d.Format("2006-01-02"))
		}
		if d.Equal(holiday) {
			t.Fatalf("holiday %s included", d.Format("2006-01-02"))
		}
	}
}

func TestLastBusinessDayOfMonth(t *testing.T) {
	t.Parallel()

	// 2025-05-31 is a Saturday.
	got := calendar.LastBusinessDayOfMonth(calendar.WeekendsOnly, time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC))
	want := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("LastBusinessDayOfMonth = %s want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}
