package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/Cluckhead/Bang-sub002/curve"
)

// DiscountFactor converts a rate and a time-to-payment (years) into a
// discount factor under the given compounding convention. Times at or before
// zero discount to 1.
func DiscountFactor(rate, t float64, comp Compounding) float64 {
	if t <= 0 {
		return 1.0
	}
	switch comp {
	case Simple:
		return 1.0 / (1.0 + rate*t)
	case Semiannual:
		return math.Pow(1.0+rate/2.0, -2.0*t)
	case Quarterly:
		return math.Pow(1.0+rate/4.0, -4.0*t)
	case Continuous:
		return math.Exp(-rate * t)
	default: // Annual
		return math.Pow(1.0+rate, -t)
	}
}

// discountFactorDeriv is d(DiscountFactor)/d(rate), used by the Newton
// solvers.
func discountFactorDeriv(rate, t float64, comp Compounding) float64 {
	if t <= 0 {
		return 0
	}
	switch comp {
	case Simple:
		d := 1.0 + rate*t
		return -t / (d * d)
	case Semiannual:
		return -t * math.Pow(1.0+rate/2.0, -2.0*t-1.0)
	case Quarterly:
		return -t * math.Pow(1.0+rate/4.0, -4.0*t-1.0)
	case Continuous:
		return -t * math.Exp(-rate*t)
	default:
		return -t * math.Pow(1.0+rate, -t-1.0)
	}
}

// compoundingPeriods returns periods per year for discrete conventions, and
// 0 for Continuous (no finite m).
func compoundingPeriods(comp Compounding) int {
	switch comp {
	case Semiannual:
		return 2
	case Quarterly:
		return 4
	case Simple, Annual:
		return 1
	default:
		return 0
	}
}

// yearsBetween measures curve time on the ACT/365F axis, the standard basis
// for discount curve interpolation.
func yearsBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24.0 / 365.0
}

// curveDF reads the zero rate at tenor t off the interpolator, adds spread,
// and converts to a discount factor.
func curveDF(ip *curve.Interpolator, t, spread float64, comp Compounding) (float64, error) {
	if t <= 0 {
		return 1.0, nil
	}
	rate, err := ip.RateAt(t)
	if err != nil {
		return 0, err
	}
	return DiscountFactor(rate+spread, t, comp), nil
}

// PresentValue discounts every event paying strictly after settlement
// against the curve plus a constant spread. The result is a dirty present
// value in per-100 terms.
func PresentValue(events []CashflowEvent, ip *curve.Interpolator, settlement time.Time, spread float64, comp Compounding) (float64, error) {
	if ip == nil {
		return 0, fmt.Errorf("bond.PresentValue: interpolator is required")
	}
	pv := 0.0
	for _, ev := range events {
		if !ev.PayDate.After(settlement) {
			continue
		}
		t := yearsBetween(settlement, ev.PayDate)
		df, err := curveDF(ip, t, spread, comp)
		if err != nil {
			return 0, fmt.Errorf("bond.PresentValue: %w", err)
		}
		pv += ev.Amount() * df
	}
	return pv, nil
}

// priceAtYield prices the stream at a flat yield, returning the dirty price
// and its analytic derivative with respect to the yield.
//
// Yield exponents follow ACT/ACT ICMA period counting, not calendar days:
// each regular coupon period is exactly one period, the first period counts
// only its unelapsed share (actual days remaining over actual days in the
// period), and irregular stubs count their accrual fraction scaled by the
// frequency. Exponents are then divided by the frequency to land in years.
// On a coupon date a par stream therefore prices to exactly par at the
// coupon rate, leap days notwithstanding.
func priceAtYield(events []CashflowEvent, settlement time.Time, freq int, y float64, comp Compounding) (price, deriv float64) {
	t := 0.0
	first := true
	for _, ev := range events {
		if !ev.PayDate.After(settlement) {
			continue
		}
		units := 1.0
		if ev.Irregular {
			units = ev.AccrualFraction * float64(freq)
		}
		if first {
			if settlement.After(ev.AccrualStart) {
				full := ev.AccrualEnd.Sub(ev.AccrualStart)
				if full > 0 {
					units *= float64(ev.AccrualEnd.Sub(settlement)) / float64(full)
				}
			}
			first = false
		}
		t += units / float64(freq)
		amt := ev.Amount()
		price += amt * DiscountFactor(y, t, comp)
		deriv += amt * discountFactorDeriv(y, t, comp)
	}
	return price, deriv
}
