package bond

import (
	"fmt"
	"time"
)

// YTWResult is the worst yield across all candidate exercise dates, with the
// chosen date retained for traceability.
type YTWResult struct {
	Yield float64
	// ExerciseDate is the call date that produced the worst yield, or the
	// final maturity/perpetual-horizon date.
	ExerciseDate time.Time
	// IsCall reports whether the worst yield comes from a call candidate.
	IsCall bool
}

// SelectYTW evaluates yield-to-call for every call date after settlement plus
// the yield to final maturity (or the perpetual horizon) and returns the
// minimum — the worst outcome for the holder.
//
// Each candidate's truncated stream redeems at the call price (face at
// maturity) and is solved against the same dirty price; accrued interest is
// the schedule's own, so call stubs track the true previous/next coupon
// dates. Call dates arrive already business-day adjusted by the schedule
// builder, so every candidate gets identical date treatment.
func SelectYTW(sched *Schedule, settlement time.Time, dirtyPrice float64, comp Compounding, seed float64) (YTWResult, error) {
	maturityYield, err := SolveYield(sched.Events, settlement, sched.Frequency(), dirtyPrice, comp, seed)
	if err != nil {
		return YTWResult{}, fmt.Errorf("bond.SelectYTW: maturity leg: %w", err)
	}
	best := YTWResult{
		Yield:        maturityYield,
		ExerciseDate: sched.Events[len(sched.Events)-1].PayDate,
	}

	for _, call := range sched.Calls {
		if !call.Date.After(settlement) {
			continue
		}
		stream, err := sched.Truncate(call)
		if err != nil {
			return YTWResult{}, fmt.Errorf("bond.SelectYTW: call %s: %w", call.Date.Format("2006-01-02"), err)
		}
		y, err := SolveYield(stream, settlement, sched.Frequency(), dirtyPrice, comp, seed)
		if err != nil {
			return YTWResult{}, fmt.Errorf("bond.SelectYTW: call %s: %w", call.Date.Format("2006-01-02"), err)
		}
		if y < best.Yield {
			best = YTWResult{Yield: y, ExerciseDate: call.Date, IsCall: true}
		}
	}
	return best, nil
}
