package proration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "locatio/pkg/domain-errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsLeapYear(t *testing.T) {
	cases := map[int]bool{
		2024: true,
		2023: false,
		2000: true,
		1900: false,
		2400: true,
		2100: false,
	}
	for year, want := range cases {
		assert.Equal(t, want, IsLeapYear(year), "year %d", year)
	}
}

func TestDaysInYear(t *testing.T) {
	assert.Equal(t, 366, DaysInYear(2024))
	assert.Equal(t, 365, DaysInYear(2023))
}

func TestDaysBetween(t *testing.T) {
	t.Run("same day counts as one", func(t *testing.T) {
		d := date(2024, time.June, 15)
		assert.Equal(t, 1, DaysBetween(d, d))
	})

	t.Run("inclusive of both endpoints", func(t *testing.T) {
		assert.Equal(t, 31, DaysBetween(date(2024, time.January, 1), date(2024, time.January, 31)))
	})

	t.Run("spans february of a leap year", func(t *testing.T) {
		assert.Equal(t, 29, DaysBetween(date(2024, time.February, 1), date(2024, time.February, 29)))
	})

	t.Run("ignores time of day", func(t *testing.T) {
		a := time.Date(2024, time.March, 1, 23, 59, 0, 0, time.UTC)
		b := time.Date(2024, time.March, 2, 0, 1, 0, 0, time.UTC)
		assert.Equal(t, 2, DaysBetween(a, b))
	})
}

func TestEffectiveOccupationPeriod(t *testing.T) {
	t.Run("full year for lease spanning it", func(t *testing.T) {
		p := EffectiveOccupationPeriod(date(2020, time.January, 1), nil, 2024)
		assert.Equal(t, date(2024, time.January, 1), p.Start)
		assert.Equal(t, date(2024, time.December, 31), p.End)
		assert.Equal(t, 366, p.Days())
	})

	t.Run("clips start within year", func(t *testing.T) {
		p := EffectiveOccupationPeriod(date(2024, time.July, 1), nil, 2024)
		assert.Equal(t, date(2024, time.July, 1), p.Start)
		assert.Equal(t, 184, p.Days())
	})

	t.Run("clips end within year", func(t *testing.T) {
		end := date(2024, time.March, 31)
		p := EffectiveOccupationPeriod(date(2022, time.May, 1), &end, 2024)
		assert.Equal(t, date(2024, time.January, 1), p.Start)
		assert.Equal(t, end, p.End)
		assert.Equal(t, 91, p.Days()) // Jan 1 - Mar 31, leap year
	})

	t.Run("empty intersection collapses to zero length", func(t *testing.T) {
		end := date(2022, time.June, 30)
		p := EffectiveOccupationPeriod(date(2021, time.January, 1), &end, 2024)
		assert.True(t, p.IsEmpty())
		assert.Equal(t, 0, p.Days())
	})

	t.Run("lease starting after the year has zero days", func(t *testing.T) {
		p := EffectiveOccupationPeriod(date(2025, time.February, 1), nil, 2024)
		assert.Equal(t, 0, p.Days())
	})
}

func TestExactProrata(t *testing.T) {
	t.Run("full year occupancy", func(t *testing.T) {
		p, err := ExactProrata(date(2020, time.January, 1), nil, 2024)
		require.NoError(t, err)
		assert.Equal(t, 366, p.TotalDays)
		assert.Equal(t, 366, p.OccupationDays)
		assert.InDelta(t, 100, p.Percentage, 1e-9)
		assert.InDelta(t, 12, p.ExactMonths, 1e-9)
	})

	t.Run("partial occupancy on a leap year", func(t *testing.T) {
		p, err := ExactProrata(date(2024, time.July, 1), nil, 2024)
		require.NoError(t, err)
		assert.Equal(t, 366, p.TotalDays)
		assert.Equal(t, 184, p.OccupationDays)
		assert.InDelta(t, 184.0/366.0*100, p.Percentage, 1e-9)
		assert.InDelta(t, 184.0/(366.0/12.0), p.ExactMonths, 1e-9)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		end := date(2023, time.December, 31)
		_, err := ExactProrata(date(2024, time.January, 1), &end, 2024)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidDateRange))
	})
}

func TestProratedAmount(t *testing.T) {
	p, err := ExactProrata(date(2024, time.July, 1), nil, 2024)
	require.NoError(t, err)

	// 1200 annual over 184/366 days, full precision
	assert.InDelta(t, 1200*184.0/366.0, ProratedAmount(1200, p), 1e-9)
	assert.Equal(t, 0.0, ProratedAmount(1200, Prorata{}))
}
