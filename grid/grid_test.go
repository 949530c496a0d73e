package grid_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/mcval/grid"
	"github.com/meenmo/mcval/market"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertValidGrid(t *testing.T, g []time.Time, required ...time.Time) {
	t.Helper()
	for i := 1; i < len(g); i++ {
		require.True(t, g[i-1].Before(g[i]), "grid not strictly ascending at %d", i)
	}
	for _, r := range required {
		_, ok := grid.IndexOf(g, r)
		assert.True(t, ok, "grid misses %s", r.Format("2006-01-02"))
	}
}

func TestBuild_ContainsStartEndAndSpecialDates(t *testing.T) {
	t.Parallel()

	start := date(2025, 1, 1) // Wednesday
	end := date(2025, 12, 31)
	special := []time.Time{date(2025, 6, 18), date(2025, 6, 18), date(2025, 3, 2)}

	for _, freq := range []string{"D", "B", "W", "M", "BM", "Q", "A"} {
		g, err := grid.Build(grid.Spec{Start: start, End: end, Frequency: freq, SpecialDates: special})
		require.NoError(t, err, freq)
		assertValidGrid(t, g, append([]time.Time{start, end}, special...)...)
		assert.True(t, g[0].Equal(start), freq)
		assert.True(t, g[len(g)-1].Equal(end), freq)
	}
}

func TestBuild_MonthEndFrequency(t *testing.T) {
	t.Parallel()

	g, err := grid.Build(grid.Spec{Start: date(2025, 1, 15), End: date(2025, 4, 10), Frequency: "M"})
	require.NoError(t, err)

	want := []time.Time{date(2025, 1, 15), date(2025, 1, 31), date(2025, 2, 28), date(2025, 3, 31), date(2025, 4, 10)}
	require.Len(t, g, len(want))
	for i := range want {
		assert.True(t, g[i].Equal(want[i]), "index %d: got %s", i, g[i].Format("2006-01-02"))
	}
}

func TestBuild_WeeklyAnchorsOnSunday(t *testing.T) {
	t.Parallel()

	g, err := grid.Build(grid.Spec{Start: date(2025, 1, 1), End: date(2025, 1, 31), Frequency: "W"})
	require.NoError(t, err)
	for _, d := range g[1 : len(g)-1] {
		assert.Equal(t, time.Sunday, d.Weekday())
	}
	assert.Len(t, g, 6) // start + four Sundays + end
}

func TestBuild_Idempotent(t *testing.T) {
	t.Parallel()

	spec := grid.Spec{
		Start:        date(2025, 1, 1),
		End:          date(2026, 1, 1),
		Frequency:    "W",
		SpecialDates: []time.Time{date(2025, 7, 4), date(2025, 9, 9)},
	}
	a, err := grid.Build(spec)
	require.NoError(t, err)
	b, err := grid.Build(spec)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	spec.SpecialDates = a
	c, err := grid.Build(spec)
	require.NoError(t, err)
	assert.Equal(t, a, c, "feeding a grid back in yields the same grid")
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	var cfgErr *market.ConfigurationError

	_, err := grid.Build(grid.Spec{Start: date(2025, 2, 1), End: date(2025, 1, 1), Frequency: "M"})
	assert.True(t, errors.As(err, &cfgErr))

	_, err = grid.Build(grid.Spec{Start: date(2025, 1, 1), End: date(2025, 2, 1), Frequency: "H"})
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, market.KeyFrequency, cfgErr.Field)
}

func TestFromEnvironment(t *testing.T) {
	t.Parallel()

	env := market.NewEnvironment("env", date(2025, 1, 1)).
		AddConstant(market.KeyFinalDate, date(2025, 12, 31)).
		AddConstant(market.KeyFrequency, "M").
		AddList(market.KeySpecialDates, []time.Time{date(2025, 5, 5)})

	g, err := grid.FromEnvironment(env, date(2025, 8, 8))
	require.NoError(t, err)
	assertValidGrid(t, g, date(2025, 1, 1), date(2025, 12, 31), date(2025, 5, 5), date(2025, 8, 8))
	assert.Len(t, g, 15) // start, 12 month ends (Dec 31 is also end), 2 special dates
}
