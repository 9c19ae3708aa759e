// Package bond is the quantitative analytics engine for fixed-income
// securities: schedule generation, pricing, yield/spread inversion,
// duration/convexity risk and option-adjusted spreads.
//
// Every computation is a pure function of its inputs. The engine retains no
// state between calls, so curves, calendars and terms may be shared across
// concurrent valuations.
package bond

import (
	"fmt"
	"time"

	"github.com/Cluckhead/Bang-sub002/daycount"
)

// Face is the notional all prices and cashflows are quoted against.
const Face = 100.0

// PerpetualHorizonYears caps the synthetic maturity used for perpetuals.
const PerpetualHorizonYears = 100

// Compounding enumerates discounting conventions.
type Compounding string

const (
	Simple     Compounding = "SIMPLE"
	Annual     Compounding = "ANNUAL"
	Semiannual Compounding = "SEMIANNUAL"
	Quarterly  Compounding = "QUARTERLY"
	Continuous Compounding = "CONTINUOUS"
)

// CallOption is a single (date, price) entry of a call schedule. Price is in
// per-100 terms (e.g. 101.5).
type CallOption struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// FloatingTerms describes the floating leg of a floater or the variable leg
// of a fixed-to-variable bond.
type FloatingTerms struct {
	// Index names the reference index (informational; projection uses the
	// valuation curve's implied forwards).
	Index string
	// Spread is the quoted spread over the index, as a decimal.
	Spread float64
	// ResetFrequency is resets per year. Zero means same as the coupon
	// frequency.
	ResetFrequency int
}

// Terms is the static description of a security.
type Terms struct {
	// CouponRate is the annual coupon as a decimal (5% = 0.05). For pure
	// floaters it is ignored in favour of projected forwards.
	CouponRate float64
	// Frequency is coupons per year: 1, 2, 4 or 12.
	Frequency int
	DayCount  daycount.Convention
	IssueDate time.Time
	// MaturityDate is zero for perpetuals.
	MaturityDate time.Time
	Perpetual    bool
	// FixedToFloatDate, when set, splits the schedule into a fixed leg up to
	// the date and a floating leg after it. Must land on a coupon boundary.
	FixedToFloatDate time.Time
	// Floating is required when FixedToFloatDate is set, and marks a pure
	// floater when set without FixedToFloatDate.
	Floating *FloatingTerms
	// Calls is the optional call schedule, dates strictly increasing.
	Calls []CallOption
}

// IsFloater reports whether the bond pays floating coupons from issue.
func (t Terms) IsFloater() bool {
	return t.Floating != nil && t.FixedToFloatDate.IsZero()
}

// Horizon returns the maturity date, or the synthetic 100-year horizon for
// perpetuals.
func (t Terms) Horizon() time.Time {
	if t.Perpetual || t.MaturityDate.IsZero() {
		return t.IssueDate.AddDate(PerpetualHorizonYears, 0, 0)
	}
	return t.MaturityDate
}

// Validate checks structural consistency of the terms.
func (t Terms) Validate() error {
	switch t.Frequency {
	case 1, 2, 4, 12:
	default:
		return fmt.Errorf("bond: frequency %d not in {1,2,4,12}: %w", t.Frequency, ErrIncompleteSchedule)
	}
	if _, err := daycount.Parse(string(t.DayCount)); err != nil {
		return fmt.Errorf("bond: %v: %w", err, ErrIncompleteSchedule)
	}
	if t.IssueDate.IsZero() {
		return fmt.Errorf("bond: issue date is required: %w", ErrIncompleteSchedule)
	}
	if !t.Perpetual && t.MaturityDate.IsZero() {
		return fmt.Errorf("bond: maturity date is required for non-perpetuals: %w", ErrIncompleteSchedule)
	}
	if !t.MaturityDate.IsZero() && !t.MaturityDate.After(t.IssueDate) {
		return fmt.Errorf("bond: maturity %s not after issue %s: %w",
			t.MaturityDate.Format("2006-01-02"), t.IssueDate.Format("2006-01-02"), ErrIncompleteSchedule)
	}
	if !t.FixedToFloatDate.IsZero() {
		if t.Floating == nil {
			return fmt.Errorf("bond: fixed-to-float date set without floating terms: %w", ErrIncompleteSchedule)
		}
		if !t.FixedToFloatDate.After(t.IssueDate) || !t.Horizon().After(t.FixedToFloatDate) {
			return fmt.Errorf("bond: fixed-to-float date %s outside (issue, maturity): %w",
				t.FixedToFloatDate.Format("2006-01-02"), ErrIncompleteSchedule)
		}
	}
	horizon := t.Horizon()
	for i, c := range t.Calls {
		if c.Price <= 0 {
			return fmt.Errorf("bond: call %d price %.4f must be positive: %w", i, c.Price, ErrIncompleteSchedule)
		}
		if c.Date.After(horizon) {
			return fmt.Errorf("bond: call date %s after maturity: %w", c.Date.Format("2006-01-02"), ErrIncompleteSchedule)
		}
		if i > 0 && !c.Date.After(t.Calls[i-1].Date) {
			return fmt.Errorf("bond: call dates must be strictly increasing at index %d: %w", i, ErrIncompleteSchedule)
		}
	}
	return nil
}

// CashflowEvent is a single dated payment of a built schedule. Events are
// immutable once built; amounts are per-100 of face.
type CashflowEvent struct {
	PayDate      time.Time
	AccrualStart time.Time
	AccrualEnd   time.Time
	// AccrualFraction is the period's year fraction under the bond's day
	// count convention.
	AccrualFraction float64
	Coupon          float64
	// Principal is nonzero only at redemption or call.
	Principal float64
	// Irregular marks a stub period whose accrual deviates from 1/frequency
	// by more than the configured tolerance.
	Irregular bool
	// Call marks a call-exercise terminal event on a truncated stream.
	Call bool
}

// Amount is the total cash paid at the event.
func (e CashflowEvent) Amount() float64 {
	return e.Coupon + e.Principal
}

// Schedule is the full cashflow schedule for one (security, valuation date)
// pair, plus the business-day-adjusted call candidates.
type Schedule struct {
	Events []CashflowEvent
	// Calls are candidate terminal events; they do not alter Events.
	Calls []CallOption

	convention daycount.Convention
	frequency  int
}

// Convention returns the day count convention the schedule was built with.
func (s *Schedule) Convention() daycount.Convention { return s.convention }

// Frequency returns coupons per year.
func (s *Schedule) Frequency() int { return s.frequency }

// KeyRateDuration is the sensitivity to a single curve node, others fixed.
type KeyRateDuration struct {
	Tenor    float64 `json:"tenor"`
	Duration float64 `json:"duration"`
}
