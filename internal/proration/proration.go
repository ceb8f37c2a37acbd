// Package proration implements the calendar and day-count primitives the
// financial calculators build on: leap years, inclusive day counts, and the
// exact occupation share of a lease within a civil year.
//
// Everything here is pure and keeps full precision; rounding happens only
// where a figure enters a persisted record or an API response.
package proration

import (
	"time"

	dErrors "locatio/pkg/domain-errors"
)

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// DaysBetween counts the days from a to b inclusive of both endpoints.
// Both dates are truncated to midnight UTC before counting, so callers can
// pass timestamps without worrying about time-of-day drift.
func DaysBetween(a, b time.Time) int {
	a, b = Midnight(a), Midnight(b)
	return int(b.Sub(a).Hours()/24) + 1
}

// Midnight truncates t to midnight UTC. All date arithmetic in this package
// works on UTC midnights so a day is always exactly 24 hours.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Period is a closed date interval.
type Period struct {
	Start time.Time
	End   time.Time
}

// Days returns the inclusive length of the period, zero when empty.
func (p Period) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End)
}

// IsEmpty reports whether the period has collapsed to zero length.
func (p Period) IsEmpty() bool {
	return p.End.Before(p.Start)
}

// EffectiveOccupationPeriod clips [leaseStart, leaseEnd] (open-ended when
// leaseEnd is nil) against the civil year targetYear. When the intersection is
// empty both bounds collapse to the later of the two starts, giving a
// zero-length period.
func EffectiveOccupationPeriod(leaseStart time.Time, leaseEnd *time.Time, targetYear int) Period {
	yearStart := time.Date(targetYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(targetYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	start := Midnight(leaseStart)
	if start.Before(yearStart) {
		start = yearStart
	}

	end := yearEnd
	if leaseEnd != nil && Midnight(*leaseEnd).Before(yearEnd) {
		end = Midnight(*leaseEnd)
	}

	if end.Before(start) {
		end = start.AddDate(0, 0, -1) // zero-length: Days() == 0
	}
	return Period{Start: start, End: end}
}

// Prorata is the exact occupation share of a lease within a civil year.
type Prorata struct {
	TotalDays      int
	OccupationDays int
	Percentage     float64
	ExactMonths    float64
}

// ExactProrata computes the occupation share of [leaseStart, leaseEnd] within
// targetYear. leaseEnd nil means the lease is open-ended.
// Returns CodeInvalidDateRange when leaseEnd precedes leaseStart.
func ExactProrata(leaseStart time.Time, leaseEnd *time.Time, targetYear int) (Prorata, error) {
	if leaseEnd != nil && Midnight(*leaseEnd).Before(Midnight(leaseStart)) {
		return Prorata{}, dErrors.New(dErrors.CodeInvalidDateRange, "lease end date precedes start date")
	}

	totalDays := DaysInYear(targetYear)
	period := EffectiveOccupationPeriod(leaseStart, leaseEnd, targetYear)
	occupationDays := period.Days()

	return Prorata{
		TotalDays:      totalDays,
		OccupationDays: occupationDays,
		Percentage:     float64(occupationDays) / float64(totalDays) * 100,
		ExactMonths:    float64(occupationDays) / (float64(totalDays) / 12),
	}, nil
}

// ProratedAmount scales an annual amount by the occupation share, in full
// precision.
func ProratedAmount(annualAmount float64, p Prorata) float64 {
	if p.TotalDays == 0 {
		return 0
	}
	return annualAmount * float64(p.OccupationDays) / float64(p.TotalDays)
}
