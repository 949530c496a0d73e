package utils_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/mcval/utils"
)

func TestUniqueSortedDates(t *testing.T) {
	t.Parallel()

	d1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2025, 2, 1, 15, 30, 0, 0, time.UTC)

	got := utils.UniqueSortedDates([]time.Time{d2, d1, d3, d2, d1})
	if len(got) != 3 {
		t.Fatalf("expected 3 dates, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Before(got[i]) {
			t.Fatalf("dates not strictly ascending at %d: %v", i, got)
		}
	}
	if got[1].Hour() != 0 {
		t.Fatalf("expected clock part to be dropped, got %s", got[1])
	}
}

func TestYearDeltas(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{start, start.AddDate(0, 0, 73), start.AddDate(0, 0, 365)}

	got := utils.YearDeltas(dates, 365)
	want := []float64{0, 0.2, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("YearDeltas[%d] = %.12f want %.12f", i, got[i], want[i])
		}
	}
}

func TestRoundTo(t *testing.T) {
	t.Parallel()

	if got := utils.RoundTo(0.123456789, 4); got != 0.1235 {
		t.Fatalf("RoundTo mismatch: got %v", got)
	}
}

func TestIndexOfDate(t *testing.T) {
	t.Parallel()

	dates := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	if i, ok := utils.IndexOfDate(dates, time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)); !ok || i != 1 {
		t.Fatalf("IndexOfDate = (%d, %v), want (1, true)", i, ok)
	}
	if _, ok := utils.IndexOfDate(dates, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Fatalf("expected missing date to be reported")
	}
}
