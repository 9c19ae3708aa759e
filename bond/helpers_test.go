package bond_test

import (
	"testing"
	"time"

	"github.com/Cluckhead/Bang-sub002/bond"
	"github.com/Cluckhead/Bang-sub002/curve"
	"github.com/Cluckhead/Bang-sub002/daycount"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// flatCurve builds an interpolator over a flat zero curve.
func flatCurve(t *testing.T, rate float64, tenors ...float64) *curve.Interpolator {
	t.Helper()
	pts := make([]curve.Point, 0, len(tenors))
	for _, tn := range tenors {
		pts = append(pts, curve.Point{Tenor: tn, Rate: rate})
	}
	c, err := curve.New(pts)
	if err != nil {
		t.Fatalf("curve.New error: %v", err)
	}
	ip, err := curve.NewInterpolator(c, curve.Linear)
	if err != nil {
		t.Fatalf("curve.NewInterpolator error: %v", err)
	}
	return ip
}

// bulletTerms is a 10y 5% annual bullet issued 2020-01-15.
func bulletTerms() bond.Terms {
	return bond.Terms{
		CouponRate:   0.05,
		Frequency:    1,
		DayCount:     daycount.ActAct,
		IssueDate:    date(2020, time.January, 15),
		MaturityDate: date(2030, time.January, 15),
	}
}

func mustBuild(t *testing.T, terms bond.Terms, settlement time.Time, proj *curve.Interpolator, cfg bond.Config) *bond.Schedule {
	t.Helper()
	sched, err := bond.BuildSchedule(terms, settlement, proj, nil, cfg)
	if err != nil {
		t.Fatalf("BuildSchedule error: %v", err)
	}
	return sched
}

// dirtyAtYield reprices a stream at a flat yield on the ACT/ACT ICMA period
// axis: regular coupon periods count as exactly one period, the first period
// counts its unelapsed day share, stubs count their accrual fraction.
func dirtyAtYield(events []bond.CashflowEvent, settlement time.Time, freq int, y float64, comp bond.Compounding) float64 {
	pv := 0.0
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
		pv += ev.Amount() * bond.DiscountFactor(y, t, comp)
	}
	return pv
}
