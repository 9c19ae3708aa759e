package bond

import (
	"fmt"
	"math"
	"time"

	"github.com/Cluckhead/Bang-sub002/curve"
)

const (
	spreadMaxIter = 100
	spreadFloor   = -0.10
	spreadCeiling = 1.00
	spreadDerivH  = 1e-6
)

// SolveZSpread finds the constant spread s such that discounting every
// cashflow at curve_rate(t)+s reproduces the dirty price.
//
// The solver is Newton-Raphson with a numerical derivative and an adaptive
// step: whenever a full Newton step fails to reduce the residual the step is
// halved, which damps the oscillation deep-discount and deep-premium bonds
// otherwise provoke. Bisection on [spreadFloor, spreadCeiling] is the
// fallback.
func SolveZSpread(events []CashflowEvent, ip *curve.Interpolator, settlement time.Time, dirtyPrice float64, comp Compounding) (float64, error) {
	return solveSpread("bond.SolveZSpread", events, ip, settlement, dirtyPrice, comp)
}

// SolveDiscountMargin computes the floating-rate analogue of a Z-spread: the
// constant margin over the projection curve that reprices the floater to
// market. The events must already carry projected floating coupons, so the
// solve itself is identical in shape to the Z-spread solve.
func SolveDiscountMargin(events []CashflowEvent, ip *curve.Interpolator, settlement time.Time, dirtyPrice float64, comp Compounding) (float64, error) {
	return solveSpread("bond.SolveDiscountMargin", events, ip, settlement, dirtyPrice, comp)
}

func solveSpread(op string, events []CashflowEvent, ip *curve.Interpolator, settlement time.Time, dirtyPrice float64, comp Compounding) (float64, error) {
	if len(events) == 0 {
		return 0, fmt.Errorf("%s: cashflows are required", op)
	}
	residual := func(s float64) (float64, error) {
		pv, err := PresentValue(events, ip, settlement, s, comp)
		if err != nil {
			return 0, err
		}
		return pv - dirtyPrice, nil
	}

	s := 0.0
	f, err := residual(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	for iter := 0; iter < spreadMaxIter; iter++ {
		if math.Abs(f) < priceTolerance {
			return s, nil
		}
		fUp, err := residual(s + spreadDerivH)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		deriv := (fUp - f) / spreadDerivH
		if math.Abs(deriv) < 1e-14 || math.IsNaN(deriv) {
			break
		}

		step := -f / deriv
		// Adaptive damping: halve the step until the residual improves.
		improved := false
		for halvings := 0; halvings < 8; halvings++ {
			next := clamp(s+step, spreadFloor, spreadCeiling)
			fNext, err := residual(next)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", op, err)
			}
			if math.Abs(fNext) < math.Abs(f) {
				s, f = next, fNext
				improved = true
				break
			}
			step /= 2.0
		}
		if !improved {
			break
		}
	}

	return bisectSpread(op, residual, f, s)
}

func bisectSpread(op string, residual func(float64) (float64, error), fCurrent, sCurrent float64) (float64, error) {
	if math.Abs(fCurrent) < priceTolerance {
		return sCurrent, nil
	}
	lo, hi := spreadFloor, spreadCeiling
	fLo, err := residual(lo)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	fHi, err := residual(hi)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if fLo*fHi > 0 {
		return 0, &ConvergenceError{Op: op, Iterations: spreadMaxIter}
	}
	for iter := 0; iter < bisectMaxIter; iter++ {
		mid := (lo + hi) / 2.0
		fMid, err := residual(mid)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		if math.Abs(fMid) < priceTolerance {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi, fHi = mid, fMid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return 0, &ConvergenceError{Op: op, Iterations: spreadMaxIter + bisectMaxIter}
}

// GSpread is the spread of the bond's yield over the benchmark curve rate
// interpolated at the bond's maturity tenor.
//
// Both rates are converted to continuous compounding before subtracting;
// rates of differing compounding bases are never subtracted directly. The
// result is re-expressed in the bond's native compounding convention.
func GSpread(ytm float64, bondComp Compounding, benchmark *curve.Interpolator, maturityYears float64, benchComp Compounding) (float64, error) {
	if benchmark == nil {
		return 0, fmt.Errorf("bond.GSpread: benchmark interpolator is required")
	}
	g, err := benchmark.RateAt(maturityYears)
	if err != nil {
		return 0, fmt.Errorf("bond.GSpread: %w", err)
	}
	sCont := toContinuous(ytm, bondComp, maturityYears) - toContinuous(g, benchComp, maturityYears)
	return fromContinuous(sCont, bondComp, maturityYears), nil
}

// toContinuous converts a rate observed over term t to its continuously-
// compounded equivalent. Simple rates have no term-free equivalent
// (1+rt vs (1+r/m)^mt), so the term participates in their conversion.
func toContinuous(rate float64, comp Compounding, t float64) float64 {
	if comp == Simple {
		if t <= 0 {
			return rate
		}
		return math.Log(1.0+rate*t) / t
	}
	m := compoundingPeriods(comp)
	if m == 0 {
		return rate
	}
	return float64(m) * math.Log(1.0+rate/float64(m))
}

// fromContinuous re-expresses a continuously-compounded rate over term t
// in comp.
func fromContinuous(rate float64, comp Compounding, t float64) float64 {
	if comp == Simple {
		if t <= 0 {
			return rate
		}
		return (math.Exp(rate*t) - 1.0) / t
	}
	m := compoundingPeriods(comp)
	if m == 0 {
		return rate
	}
	return float64(m) * (math.Exp(rate/float64(m)) - 1.0)
}
