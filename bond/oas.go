package bond

import (
	"fmt"
	"time"

	"github.com/Cluckhead/Bang-sub002/curve"
)

// SolveOAS computes the option-adjusted spread along the deterministic path.
//
// The exercise rule walks the call schedule in date order and assumes the
// issuer calls at the first date where calling is cheaper than continuing:
// the continuation value of the remaining cashflows as of the call date
// (forward-discounted at curve plus the bond's Z-spread) exceeds the call
// price plus accrued. The exercised stream is then re-solved for the constant
// spread that reprices it to market. Each call date is judged against its own
// continuation independently, not by backward induction across later calls.
//
// For a non-callable bond the adjustment is a no-op and the result equals the
// Z-spread.
func SolveOAS(sched *Schedule, ip *curve.Interpolator, settlement time.Time, dirtyPrice float64, comp Compounding) (float64, error) {
	zs, err := SolveZSpread(sched.Events, ip, settlement, dirtyPrice, comp)
	if err != nil {
		return 0, fmt.Errorf("bond.SolveOAS: %w", err)
	}
	if len(sched.Calls) == 0 {
		return zs, nil
	}

	exercised, err := deterministicExercise(sched, ip, settlement, zs, comp)
	if err != nil {
		return 0, err
	}
	if exercised == nil {
		return zs, nil
	}

	oas, err := SolveZSpread(exercised, ip, settlement, dirtyPrice, comp)
	if err != nil {
		return 0, fmt.Errorf("bond.SolveOAS: adjusted stream: %w", err)
	}
	return oas, nil
}

// deterministicExercise returns the called cashflow stream, or nil when no
// call is exercised.
func deterministicExercise(sched *Schedule, ip *curve.Interpolator, settlement time.Time, spread float64, comp Compounding) ([]CashflowEvent, error) {
	for _, call := range sched.Calls {
		if !call.Date.After(settlement) {
			continue
		}
		cont, err := continuationValue(sched.Events, ip, settlement, call.Date, spread, comp)
		if err != nil {
			return nil, fmt.Errorf("bond.SolveOAS: %w", err)
		}
		accrued, err := sched.AccruedInterest(call.Date)
		if err != nil {
			return nil, fmt.Errorf("bond.SolveOAS: %w", err)
		}
		if cont > call.Price+accrued {
			return sched.Truncate(call)
		}
	}
	return nil, nil
}

// continuationValue is the forward dirty value at a call date of the
// cashflows paying after it: PV at settlement divided by the spread-adjusted
// discount factor to the call date.
func continuationValue(events []CashflowEvent, ip *curve.Interpolator, settlement, callDate time.Time, spread float64, comp Compounding) (float64, error) {
	pv := 0.0
	for _, ev := range events {
		if !ev.PayDate.After(callDate) {
			continue
		}
		t := yearsBetween(settlement, ev.PayDate)
		df, err := curveDF(ip, t, spread, comp)
		if err != nil {
			return 0, err
		}
		pv += ev.Amount() * df
	}
	tc := yearsBetween(settlement, callDate)
	dfc, err := curveDF(ip, tc, spread, comp)
	if err != nil {
		return 0, err
	}
	if dfc == 0 {
		return 0, fmt.Errorf("bond: zero discount factor at call date")
	}
	return pv / dfc, nil
}
