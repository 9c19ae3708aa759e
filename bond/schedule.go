package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/Cluckhead/Bang-sub002/calendar"
	"github.com/Cluckhead/Bang-sub002/curve"
	"github.com/Cluckhead/Bang-sub002/daycount"
)

// BuildSchedule generates the cashflow schedule for a security as of a
// valuation date. Coupon dates step forward from the issue date at the stated
// frequency up to maturity (or the 100-year horizon for perpetuals), each
// adjusted to a business day under cfg.BusinessDayRule.
//
// Floating periods (pure floaters, and the variable leg of fixed-to-variable
// bonds) are projected off proj: the period coupon is the curve-implied
// simple forward over the accrual period plus the quoted spread. Call dates
// are adjusted and carried as candidate terminal events without altering the
// coupon stream.
func BuildSchedule(terms Terms, settlement time.Time, proj *curve.Interpolator, cal *calendar.Calendar, cfg Config) (*Schedule, error) {
	if err := terms.Validate(); err != nil {
		return nil, fmt.Errorf("bond.BuildSchedule: %w", err)
	}
	cfg = cfg.withDefaults()
	conv := terms.DayCount
	if cfg.DayCountOverride != "" {
		conv = cfg.DayCountOverride
	}

	hasFloatingLeg := terms.Floating != nil
	if hasFloatingLeg && proj == nil {
		return nil, fmt.Errorf("bond.BuildSchedule: projection curve is required for floating legs: %w", ErrIncompleteSchedule)
	}

	months := 12 / terms.Frequency
	horizon := terms.Horizon()

	// Unadjusted coupon grid, EDATE-stepped from issue to avoid month-end
	// drift from cumulative AddDate calls.
	grid := []time.Time{terms.IssueDate}
	for i := 1; ; i++ {
		d := addMonths(terms.IssueDate, months*i)
		if d.Before(horizon) {
			grid = append(grid, d)
			continue
		}
		grid = append(grid, horizon)
		break
	}

	if !terms.FixedToFloatDate.IsZero() && !onGrid(grid, terms.FixedToFloatDate) {
		return nil, fmt.Errorf("bond.BuildSchedule: fixed-to-float date %s not on the coupon cycle: %w",
			terms.FixedToFloatDate.Format("2006-01-02"), ErrIncompleteSchedule)
	}

	events := make([]CashflowEvent, 0, len(grid)-1)
	for i := 1; i < len(grid); i++ {
		start := cal.Apply(cfg.BusinessDayRule, grid[i-1])
		end := cal.Apply(cfg.BusinessDayRule, grid[i])
		if !end.After(start) {
			continue
		}
		frac, err := daycount.YearFraction(start, end, conv)
		if err != nil {
			return nil, fmt.Errorf("bond.BuildSchedule: %w", err)
		}

		// A period is irregular when its accrual deviates from the
		// theoretical 1/frequency by more than the relative tolerance.
		irregular := math.Abs(frac*float64(terms.Frequency)-1.0) > cfg.StubTolerance

		floating := hasFloatingLeg && (terms.IsFloater() || !grid[i-1].Before(terms.FixedToFloatDate))

		var coupon float64
		switch {
		case floating:
			coupon, err = projectedCoupon(proj, settlement, start, end, frac, terms.Floating.Spread, cfg.Compounding)
			if err != nil {
				return nil, fmt.Errorf("bond.BuildSchedule: %w", err)
			}
		case irregular:
			coupon = terms.CouponRate * frac * Face
		default:
			coupon = terms.CouponRate / float64(terms.Frequency) * Face
		}

		events = append(events, CashflowEvent{
			PayDate:         end,
			AccrualStart:    start,
			AccrualEnd:      end,
			AccrualFraction: frac,
			Coupon:          coupon,
			Irregular:       irregular,
		})
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("bond.BuildSchedule: empty schedule: %w", ErrIncompleteSchedule)
	}
	events[len(events)-1].Principal = Face

	calls := make([]CallOption, 0, len(terms.Calls))
	for _, c := range terms.Calls {
		calls = append(calls, CallOption{
			Date:  cal.Apply(cfg.BusinessDayRule, c.Date),
			Price: c.Price,
		})
	}

	return &Schedule{
		Events:     events,
		Calls:      calls,
		convention: conv,
		frequency:  terms.Frequency,
	}, nil
}

// projectedCoupon computes the floating-period coupon amount from the
// curve-implied forward plus the quoted spread. The forward is derived from
// discount factors so that projecting and discounting off the same curve
// reproduces par for a zero-spread floater.
func projectedCoupon(proj *curve.Interpolator, settlement, start, end time.Time, frac, spread float64, comp Compounding) (float64, error) {
	t1 := yearsBetween(settlement, start)
	if t1 < 0 {
		t1 = 0
	}
	t2 := yearsBetween(settlement, end)
	if t2 <= t1 || frac <= 0 {
		return 0, nil
	}
	df1, err := curveDF(proj, t1, 0, comp)
	if err != nil {
		return 0, err
	}
	df2, err := curveDF(proj, t2, 0, comp)
	if err != nil {
		return 0, err
	}
	forward := (df1/df2 - 1.0) / frac
	return (forward + spread) * frac * Face, nil
}

// AccruedInterest returns the coupon accrued from the last coupon date to
// settlement, in per-100 terms, tracking the true previous/next coupon dates
// of the built schedule.
func (s *Schedule) AccruedInterest(settlement time.Time) (float64, error) {
	for _, ev := range s.Events {
		if settlement.Before(ev.AccrualStart) {
			return 0, nil
		}
		if settlement.Before(ev.AccrualEnd) {
			af, err := daycount.AccruedFraction(ev.AccrualStart, ev.AccrualEnd, settlement, s.convention)
			if err != nil {
				return 0, fmt.Errorf("bond.AccruedInterest: %w", err)
			}
			return ev.Coupon * af, nil
		}
	}
	return 0, nil
}

// Truncate builds the cashflow stream for exercise at the given call: coupons
// up to the call date, a stub coupon accrued from the interrupted period, and
// redemption at the call price. A call landing exactly on a coupon date keeps
// that coupon in full.
func (s *Schedule) Truncate(call CallOption) ([]CashflowEvent, error) {
	if call.Date.After(s.Events[len(s.Events)-1].PayDate) {
		return nil, fmt.Errorf("bond.Truncate: call date %s after final payment: %w",
			call.Date.Format("2006-01-02"), ErrIncompleteSchedule)
	}

	out := make([]CashflowEvent, 0, len(s.Events))
	for _, ev := range s.Events {
		if ev.PayDate.Before(call.Date) {
			kept := ev
			kept.Principal = 0
			out = append(out, kept)
			continue
		}
		if ev.PayDate.Equal(call.Date) {
			terminal := ev
			terminal.Principal = call.Price
			terminal.Call = true
			out = append(out, terminal)
			return out, nil
		}
		// Call interrupts this period: pay the accrued stub with redemption.
		af, err := daycount.AccruedFraction(ev.AccrualStart, ev.AccrualEnd, call.Date, s.convention)
		if err != nil {
			return nil, fmt.Errorf("bond.Truncate: %w", err)
		}
		frac, err := daycount.YearFraction(ev.AccrualStart, call.Date, s.convention)
		if err != nil {
			return nil, fmt.Errorf("bond.Truncate: %w", err)
		}
		out = append(out, CashflowEvent{
			PayDate:         call.Date,
			AccrualStart:    ev.AccrualStart,
			AccrualEnd:      call.Date,
			AccrualFraction: frac,
			Coupon:          ev.Coupon * af,
			Principal:       call.Price,
			Irregular:       true,
			Call:            true,
		})
		return out, nil
	}
	return out, nil
}

// addMonths behaves like Excel's EDATE: adding months to a month-end date
// lands on the target month's end instead of normalizing into the next month.
func addMonths(t time.Time, months int) time.Time {
	d := t.AddDate(0, months, 0)
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if d.Month() == firstOfTarget.Month() {
		return d
	}
	// Normalization overflowed into the following month; roll back to the
	// last day of the target month.
	origMonth := d.Month()
	for d.Month() == origMonth {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func onGrid(grid []time.Time, d time.Time) bool {
	for _, g := range grid {
		if g.Equal(d) {
			return true
		}
	}
	return false
}
