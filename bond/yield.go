package bond

import (
	"fmt"
	"math"
	"time"
)

const (
	priceTolerance = 1e-8
	yieldMaxIter   = 100
	bisectMaxIter  = 200
	yieldFloor     = -0.05
	yieldCeiling   = 0.50
)

// SolveYield inverts the price-yield function: it finds y such that the
// stream's dirty price at y equals dirtyPrice, with exponents on the ACT/ACT
// ICMA period axis at the given coupon frequency. Newton-Raphson runs first,
// seeded at seed (conventionally the coupon rate); if it stalls, diverges or
// the derivative vanishes, a bisection on [yieldFloor, yieldCeiling] takes
// over. Convergence is to priceTolerance in price units within a bounded
// iteration count; on exhaustion a *ConvergenceError is returned and no
// partial value is ever handed back.
func SolveYield(events []CashflowEvent, settlement time.Time, freq int, dirtyPrice float64, comp Compounding, seed float64) (float64, error) {
	if len(events) == 0 {
		return 0, fmt.Errorf("bond.SolveYield: cashflows are required")
	}
	if freq <= 0 {
		return 0, fmt.Errorf("bond.SolveYield: frequency %d must be positive", freq)
	}
	if dirtyPrice <= 0 {
		return 0, fmt.Errorf("bond.SolveYield: dirty price %.6f must be positive", dirtyPrice)
	}

	y := clamp(seed, yieldFloor, yieldCeiling)
	for iter := 0; iter < yieldMaxIter; iter++ {
		price, deriv := priceAtYield(events, settlement, freq, y, comp)
		f := price - dirtyPrice
		if math.Abs(f) < priceTolerance {
			return y, nil
		}
		if math.Abs(deriv) < 1e-14 || math.IsNaN(f) {
			break
		}
		next := y - f/deriv
		if math.IsNaN(next) || next < yieldFloor || next > yieldCeiling {
			break
		}
		y = next
	}

	return bisectYield(events, settlement, freq, dirtyPrice, comp)
}

// bisectYield brackets the root on [yieldFloor, yieldCeiling]. Price is
// strictly decreasing in yield, so a sign change over the bracket is the
// solvability condition.
func bisectYield(events []CashflowEvent, settlement time.Time, freq int, dirtyPrice float64, comp Compounding) (float64, error) {
	lo, hi := yieldFloor, yieldCeiling
	fLo, _ := priceAtYield(events, settlement, freq, lo, comp)
	fHi, _ := priceAtYield(events, settlement, freq, hi, comp)
	fLo -= dirtyPrice
	fHi -= dirtyPrice
	if fLo*fHi > 0 {
		return 0, &ConvergenceError{Op: "bond.SolveYield", Iterations: yieldMaxIter}
	}

	for iter := 0; iter < bisectMaxIter; iter++ {
		mid := (lo + hi) / 2.0
		fMid, _ := priceAtYield(events, settlement, freq, mid, comp)
		fMid -= dirtyPrice
		if math.Abs(fMid) < priceTolerance {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi = mid
			fHi = fMid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return 0, &ConvergenceError{Op: "bond.SolveYield", Iterations: yieldMaxIter + bisectMaxIter}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
