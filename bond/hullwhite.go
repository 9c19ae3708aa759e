package bond

import (
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Cluckhead/Bang-sub002/curve"
)

// HullWhiteParams configures the stochastic OAS path: a one-factor
// mean-reverting Gaussian short-rate model calibrated to the input curve.
type HullWhiteParams struct {
	// MeanReversion is the pull-back speed a in dr = a(theta - r)dt + sigma dW.
	MeanReversion float64 `json:"mean_reversion"`
	// Volatility is the absolute short-rate volatility sigma.
	Volatility float64 `json:"volatility"`
	// Paths is the Monte Carlo path count.
	Paths int `json:"paths"`
	// Seed fixes the random streams; paths use independent PCG streams
	// derived from it.
	Seed uint64 `json:"seed"`
}

func (p HullWhiteParams) withDefaults() HullWhiteParams {
	if p.MeanReversion <= 0 {
		p.MeanReversion = 0.03
	}
	if p.Volatility <= 0 {
		p.Volatility = 0.01
	}
	if p.Paths <= 0 {
		p.Paths = 2048
	}
	if p.Seed == 0 {
		p.Seed = 1
	}
	return p
}

// SolveOASMonteCarlo computes the option-adjusted spread under Hull-White
// short-rate simulation. It is an explicitly-selected mode: results are not
// bit-comparable with the deterministic path and the engine never substitutes
// one for the other.
//
// Per path, the short rate is simulated with the exact Gaussian
// discretization on the event-date grid; the exercise decision at each call
// date compares the call price plus accrued against the continuation value
// implied by the model's affine bond formula at the simulated short rate
// (no foresight of the realized path). Pathwise discounted cashflows are
// averaged and the constant spread that reprices the average to market is
// solved by bisection; the spread layer is discounted under the caller's
// compounding convention, so the result is quoted on the same basis as the
// deterministic OAS and the Z-spread. One normal-draw set is generated per
// valuation and reused across spread iterations, so the root finder sees a
// deterministic price function.
func SolveOASMonteCarlo(sched *Schedule, ip *curve.Interpolator, settlement time.Time, dirtyPrice float64, comp Compounding, params HullWhiteParams) (float64, error) {
	if len(sched.Calls) == 0 {
		// No optionality: OAS degenerates to the Z-spread.
		return SolveZSpread(sched.Events, ip, settlement, dirtyPrice, comp)
	}
	params = params.withDefaults()

	model, err := newHullWhiteModel(sched, ip, settlement, comp, params)
	if err != nil {
		return 0, fmt.Errorf("bond.SolveOASMonteCarlo: %w", err)
	}
	if err := model.simulate(); err != nil {
		return 0, fmt.Errorf("bond.SolveOASMonteCarlo: %w", err)
	}

	residual := func(s float64) float64 { return model.price(s) - dirtyPrice }
	lo, hi := spreadFloor, spreadCeiling
	fLo, fHi := residual(lo), residual(hi)
	if fLo*fHi > 0 {
		return 0, &ConvergenceError{Op: "bond.SolveOASMonteCarlo", Iterations: 0}
	}
	for iter := 0; iter < bisectMaxIter; iter++ {
		mid := (lo + hi) / 2.0
		fMid := residual(mid)
		if math.Abs(fMid) < priceTolerance || hi-lo < 1e-12 {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi, fHi = mid, fMid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return 0, &ConvergenceError{Op: "bond.SolveOASMonteCarlo", Iterations: bisectMaxIter}
}

// hwEvent is a schedule event mapped onto the simulation grid.
type hwEvent struct {
	gridIdx int
	t       float64
	coupon  float64
	amount  float64
}

// hwCall is a call candidate with the continuation-value terms precomputed:
// continuation(r, s) = sum_j k[j] * exp(-b[j]*r) * exp(-s*dt[j]).
type hwCall struct {
	gridIdx int
	t       float64
	strike  float64 // call price plus accrued at the call date
	k       []float64
	b       []float64
	dt      []float64
}

type hullWhiteModel struct {
	params HullWhiteParams
	comp   Compounding
	grid   []float64 // simulation times, grid[0] == 0
	events []hwEvent
	calls  []hwCall
	alpha  []float64 // drift-fitting term per grid point

	// pathDF[p][i] is the pathwise discount factor to grid[i];
	// pathRate[p][c] is the short rate at call c's grid point.
	pathDF   [][]float64
	pathRate [][]float64
}

func newHullWhiteModel(sched *Schedule, ip *curve.Interpolator, settlement time.Time, comp Compounding, params HullWhiteParams) (*hullWhiteModel, error) {
	// Continuous zero curve and instantaneous forwards off the interpolator.
	zero := func(t float64) (float64, error) {
		r, err := ip.RateAt(t)
		if err != nil {
			return 0, err
		}
		return toContinuous(r, comp, t), nil
	}
	logP0 := func(t float64) (float64, error) {
		z, err := zero(t)
		if err != nil {
			return 0, err
		}
		return -z * t, nil
	}
	const h = 1e-4
	fwd := func(t float64) (float64, error) {
		lo := t - h
		if lo < 0 {
			lo = 0
		}
		pLo, err := logP0(lo)
		if err != nil {
			return 0, err
		}
		pHi, err := logP0(t + h)
		if err != nil {
			return 0, err
		}
		return -(pHi - pLo) / (t + h - lo), nil
	}

	a, sigma := params.MeanReversion, params.Volatility

	// Time grid: valuation time plus every future event and call time.
	times := []float64{0}
	for _, ev := range sched.Events {
		if ev.PayDate.After(settlement) {
			times = append(times, yearsBetween(settlement, ev.PayDate))
		}
	}
	for _, c := range sched.Calls {
		if c.Date.After(settlement) {
			times = append(times, yearsBetween(settlement, c.Date))
		}
	}
	sort.Float64s(times)
	grid := []float64{times[0]}
	for _, t := range times[1:] {
		if t-grid[len(grid)-1] > 1e-9 {
			grid = append(grid, t)
		}
	}
	if len(grid) < 2 {
		return nil, fmt.Errorf("no future cashflows: %w", ErrIncompleteSchedule)
	}
	gridIdx := func(t float64) int {
		for i, g := range grid {
			if math.Abs(g-t) <= 1e-9 {
				return i
			}
		}
		return -1
	}

	m := &hullWhiteModel{params: params, comp: comp, grid: grid}

	// alpha(t) = f(0,t) + sigma^2/(2a^2) (1 - e^{-at})^2.
	m.alpha = make([]float64, len(grid))
	for i, t := range grid {
		f0, err := fwd(t)
		if err != nil {
			return nil, err
		}
		e := 1.0 - math.Exp(-a*t)
		m.alpha[i] = f0 + sigma*sigma/(2*a*a)*e*e
	}

	for _, ev := range sched.Events {
		if !ev.PayDate.After(settlement) {
			continue
		}
		t := yearsBetween(settlement, ev.PayDate)
		m.events = append(m.events, hwEvent{
			gridIdx: gridIdx(t),
			t:       t,
			coupon:  ev.Coupon,
			amount:  ev.Amount(),
		})
	}

	for _, c := range sched.Calls {
		if !c.Date.After(settlement) {
			continue
		}
		tc := yearsBetween(settlement, c.Date)
		accrued, err := sched.AccruedInterest(c.Date)
		if err != nil {
			return nil, err
		}
		call := hwCall{gridIdx: gridIdx(tc), t: tc, strike: c.Price + accrued}

		fc, err := fwd(tc)
		if err != nil {
			return nil, err
		}
		lpC, err := logP0(tc)
		if err != nil {
			return nil, err
		}
		for _, ev := range m.events {
			if ev.t <= tc+1e-9 {
				continue
			}
			// Affine zero-coupon price P(tc, tj; r) = A exp(-B r).
			b := (1.0 - math.Exp(-a*(ev.t-tc))) / a
			lpJ, err := logP0(ev.t)
			if err != nil {
				return nil, err
			}
			lnA := lpJ - lpC + b*fc - sigma*sigma/(4*a)*(1.0-math.Exp(-2*a*tc))*b*b
			call.k = append(call.k, ev.amount*math.Exp(lnA))
			call.b = append(call.b, b)
			call.dt = append(call.dt, ev.t-tc)
		}
		m.calls = append(m.calls, call)
	}

	return m, nil
}

// simulate draws every path once; exercise and spread discounting are applied
// later per spread iteration. Paths are independent, so the fan-out is
// lock-free: each worker owns a disjoint block of the preallocated slices.
func (m *hullWhiteModel) simulate() error {
	a, sigma := m.params.MeanReversion, m.params.Volatility
	paths := m.params.Paths
	n := len(m.grid)

	m.pathDF = make([][]float64, paths)
	m.pathRate = make([][]float64, paths)

	workers := runtime.GOMAXPROCS(0)
	if paths < 64 {
		workers = 1
	}
	chunk := (paths + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > paths {
			hi = paths
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for p := lo; p < hi; p++ {
				rng := rand.New(rand.NewPCG(m.params.Seed, uint64(p)))
				df := make([]float64, n)
				rates := make([]float64, len(m.calls))
				df[0] = 1.0
				x := 0.0
				rPrev := m.alpha[0]
				for i := 1; i < n; i++ {
					dt := m.grid[i] - m.grid[i-1]
					decay := math.Exp(-a * dt)
					stdev := sigma * math.Sqrt((1.0-decay*decay)/(2.0*a))
					x = x*decay + stdev*rng.NormFloat64()
					r := x + m.alpha[i]
					df[i] = df[i-1] * math.Exp(-0.5*(rPrev+r)*dt)
					rPrev = r
					for c := range m.calls {
						if m.calls[c].gridIdx == i {
							rates[c] = r
						}
					}
				}
				m.pathDF[p] = df
				m.pathRate[p] = rates
			}
			return nil
		})
	}
	return g.Wait()
}

// price averages the pathwise spread-discounted value of the exercised
// cashflow stream across all paths.
func (m *hullWhiteModel) price(s float64) float64 {
	total := 0.0
	for p := 0; p < m.params.Paths; p++ {
		total += m.pathValue(p, s)
	}
	return total / float64(m.params.Paths)
}

func (m *hullWhiteModel) pathValue(p int, s float64) float64 {
	// First call date where calling is cheaper than continuing, judged at
	// the simulated short rate.
	exercised := -1
	for c, call := range m.calls {
		r := m.pathRate[p][c]
		cont := 0.0
		for j := range call.k {
			cont += call.k[j] * math.Exp(-call.b[j]*r) * DiscountFactor(s, call.dt[j], m.comp)
		}
		if cont > call.strike {
			exercised = c
			break
		}
	}

	df := m.pathDF[p]
	if exercised < 0 {
		pv := 0.0
		for _, ev := range m.events {
			pv += ev.amount * df[ev.gridIdx] * DiscountFactor(s, ev.t, m.comp)
		}
		return pv
	}

	call := m.calls[exercised]
	pv := 0.0
	for _, ev := range m.events {
		if ev.t > call.t+1e-9 {
			break
		}
		// Coupons through the call date; redemption comes from the call.
		pv += ev.coupon * df[ev.gridIdx] * DiscountFactor(s, ev.t, m.comp)
	}
	pv += call.strike * df[call.gridIdx] * DiscountFactor(s, call.t, m.comp)
	return pv
}
