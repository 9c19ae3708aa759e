// Package daycount computes year fractions under standard bond market
// day count conventions.
package daycount

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDateRange is returned when a span ends before it starts.
var ErrInvalidDateRange = errors.New("invalid date range: end before start")

// Convention enumerates the supported day count conventions.
type Convention string

const (
	// ActAct partitions the span at calendar-year boundaries and divides each
	// sub-span by its own year basis (366 in leap years).
	ActAct Convention = "ACT/ACT"
	// ActActISDA is the ISDA-labelled variant of ActAct. Both partition the
	// same way; the label is kept so feeds that distinguish them round-trip.
	ActActISDA Convention = "ACT/ACT-ISDA"
	Act360     Convention = "ACT/360"
	Act365F    Convention = "ACT/365F"
	Dc30360    Convention = "30/360"
)

// Parse validates a convention label, making unsupported conventions a
// construction-time error instead of a silent fallback.
func Parse(s string) (Convention, error) {
	switch Convention(s) {
	case ActAct, ActActISDA, Act360, Act365F, Dc30360:
		return Convention(s), nil
	case "ACT/365":
		// Common feed alias for ACT/365 Fixed.
		return Act365F, nil
	default:
		return "", fmt.Errorf("daycount.Parse: unsupported convention %q", s)
	}
}

// YearFraction computes the year fraction from start to end under conv.
//
// For the ACT/ACT family the span is partitioned at January 1 anchors: each
// sub-span runs from its start to January 1 of the following year, and its
// actual day count is divided by 366 if the sub-span's year is a leap year,
// else 365. Anchoring at January 1 (not December 31) keeps the boundary day
// counted exactly once, so [Jan 1, Dec 31] plus [Dec 31, Jan 1] sums to a
// full year.
func YearFraction(start, end time.Time, conv Convention) (float64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("daycount.YearFraction: %s > %s: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), ErrInvalidDateRange)
	}
	switch conv {
	case Act360:
		return days(start, end) / 360.0, nil
	case Act365F:
		return days(start, end) / 365.0, nil
	case Dc30360:
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 && d1 == 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0, nil
	case ActAct, ActActISDA:
		return actActFraction(start, end), nil
	default:
		return 0, fmt.Errorf("daycount.YearFraction: unsupported convention %q", conv)
	}
}

// AccruedFraction returns the elapsed share of the coupon period
// [prevCoupon, nextCoupon] as of settlement, under conv. The result is the
// ratio of elapsed to full-period year fractions, so a settlement on
// prevCoupon yields 0 and one on nextCoupon yields 1.
func AccruedFraction(prevCoupon, nextCoupon, settlement time.Time, conv Convention) (float64, error) {
	if nextCoupon.Before(prevCoupon) || settlement.Before(prevCoupon) || nextCoupon.Before(settlement) {
		return 0, fmt.Errorf("daycount.AccruedFraction: settlement %s outside period [%s, %s]: %w",
			settlement.Format("2006-01-02"), prevCoupon.Format("2006-01-02"),
			nextCoupon.Format("2006-01-02"), ErrInvalidDateRange)
	}
	full, err := YearFraction(prevCoupon, nextCoupon, conv)
	if err != nil {
		return 0, err
	}
	if full == 0 {
		return 0, nil
	}
	elapsed, err := YearFraction(prevCoupon, settlement, conv)
	if err != nil {
		return 0, err
	}
	return elapsed / full, nil
}

func actActFraction(start, end time.Time) float64 {
	total := 0.0
	cursor := start
	for cursor.Before(end) {
		// Anchor: January 1 of the year after cursor.
		anchor := time.Date(cursor.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		spanEnd := anchor
		if end.Before(anchor) {
			spanEnd = end
		}
		total += days(cursor, spanEnd) / yearBasis(cursor.Year())
		cursor = spanEnd
	}
	return total
}

func yearBasis(year int) float64 {
	if isLeapYear(year) {
		return 366.0
	}
	return 365.0
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// days returns the actual calendar day count from start to end.
func days(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24.0
}
