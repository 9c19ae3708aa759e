package bond

import (
	"fmt"
	"time"

	"github.com/Cluckhead/Bang-sub002/calendar"
	"github.com/Cluckhead/Bang-sub002/curve"
	"github.com/Cluckhead/Bang-sub002/daycount"
)

const (
	defaultYieldBump     = 1e-4 // 1bp
	defaultStubTolerance = 0.01
)

// OASMode selects how (and whether) the option-adjusted spread is computed.
type OASMode string

const (
	// OASDeterministic is the default: optimal-exercise comparison against
	// each call date.
	OASDeterministic OASMode = "DETERMINISTIC"
	// OASMonteCarlo runs the Hull-White short-rate simulation.
	OASMonteCarlo OASMode = "MONTE_CARLO"
	// OASDisabled skips the OAS computation; the result field stays nil.
	OASDisabled OASMode = "DISABLED"
)

// Config is the caller-facing configuration surface. The zero value gives
// the documented defaults.
type Config struct {
	// DayCountOverride replaces the terms' day count when set.
	DayCountOverride daycount.Convention
	// Interpolation defaults to Linear; MonotoneCubic is opt-in.
	Interpolation curve.Method
	// Compounding defaults to Annual.
	Compounding Compounding
	// BusinessDayRule defaults to ModifiedFollowing.
	BusinessDayRule calendar.Rule
	// OASMode defaults to OASDeterministic.
	OASMode   OASMode
	HullWhite HullWhiteParams
	// YieldBump is the duration/convexity bump size; defaults to 1bp.
	YieldBump float64
	// StubTolerance is the relative deviation from 1/frequency beyond which
	// a period is treated as an irregular stub. Defaults to 1%.
	StubTolerance float64
	// DisableExtrapolation makes out-of-range curve lookups fail with
	// curve.ErrCurveRange instead of flat-extrapolating.
	DisableExtrapolation bool
}

func (c Config) withDefaults() Config {
	if c.Interpolation == "" {
		c.Interpolation = curve.Linear
	}
	if c.Compounding == "" {
		c.Compounding = Annual
	}
	if c.BusinessDayRule == "" {
		c.BusinessDayRule = calendar.ModifiedFollowing
	}
	if c.OASMode == "" {
		c.OASMode = OASDeterministic
	}
	if c.YieldBump <= 0 {
		c.YieldBump = defaultYieldBump
	}
	if c.StubTolerance <= 0 {
		c.StubTolerance = defaultStubTolerance
	}
	return c
}

// ValuationInput drives one engine invocation. The engine never retains
// references to it across calls; curves and terms are read-only and safe to
// share across concurrent valuations.
type ValuationInput struct {
	Terms      Terms
	Settlement time.Time
	// CleanPrice is the observed clean price in per-100 terms.
	CleanPrice float64
	// Curve is the discount curve for the security's currency as of the
	// settlement date.
	Curve *curve.Curve
	// Benchmark is the government/benchmark curve used for the G-spread.
	// When nil, Curve doubles as the benchmark.
	Benchmark *curve.Curve
	// Holidays is the currency's holiday calendar.
	Holidays []time.Time
	Config   Config
}

// AnalyticsResult is the per-(security, valuation date) output. Rates and
// spreads are decimals (5% = 0.05); durations are in years. OAS and
// DiscountMargin are nil when not applicable.
type AnalyticsResult struct {
	AccruedInterest   float64           `json:"accrued_interest"`
	YTM               float64           `json:"ytm"`
	YTW               float64           `json:"ytw"`
	YTWExerciseDate   time.Time         `json:"ytw_exercise_date"`
	YTWIsCall         bool              `json:"ytw_is_call"`
	ZSpread           float64           `json:"z_spread"`
	GSpread           float64           `json:"g_spread"`
	OAS               *float64          `json:"oas,omitempty"`
	EffectiveDuration float64           `json:"effective_duration"`
	ModifiedDuration  float64           `json:"modified_duration"`
	Convexity         float64           `json:"convexity"`
	SpreadDuration    float64           `json:"spread_duration"`
	KeyRateDurations  []KeyRateDuration `json:"key_rate_durations"`
	DiscountMargin    *float64          `json:"discount_margin,omitempty"`
}

// Valuate runs the full analytics chain for one security on one valuation
// date. It is a pure function of its input: no shared mutable state, no I/O,
// and a failure here never affects any other valuation in a batch.
func Valuate(in ValuationInput) (AnalyticsResult, error) {
	if in.Settlement.IsZero() {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: settlement date is required")
	}
	if in.CleanPrice <= 0 {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: clean price %.6f must be positive", in.CleanPrice)
	}
	if in.Curve == nil {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: discount curve is required")
	}
	if !in.Terms.Horizon().After(in.Settlement) {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: security matured before settlement: %w", ErrIncompleteSchedule)
	}
	cfg := in.Config.withDefaults()

	ip, err := curve.NewInterpolator(in.Curve, cfg.Interpolation)
	if err != nil {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: %w", err)
	}
	ip.DisableExtrapolation = cfg.DisableExtrapolation

	benchIP := ip
	if in.Benchmark != nil {
		benchIP, err = curve.NewInterpolator(in.Benchmark, cfg.Interpolation)
		if err != nil {
			return AnalyticsResult{}, fmt.Errorf("bond.Valuate: benchmark: %w", err)
		}
		benchIP.DisableExtrapolation = cfg.DisableExtrapolation
	}

	cal := calendar.New(in.Holidays)
	sched, err := BuildSchedule(in.Terms, in.Settlement, ip, cal, cfg)
	if err != nil {
		return AnalyticsResult{}, err
	}

	accrued, err := sched.AccruedInterest(in.Settlement)
	if err != nil {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: %w", err)
	}
	dirty := in.CleanPrice + accrued

	seed := in.Terms.CouponRate
	ytm, err := SolveYield(sched.Events, in.Settlement, sched.Frequency(), dirty, cfg.Compounding, seed)
	if err != nil {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: %w", err)
	}

	ytw, err := SelectYTW(sched, in.Settlement, dirty, cfg.Compounding, seed)
	if err != nil {
		return AnalyticsResult{}, err
	}

	zSpread, err := SolveZSpread(sched.Events, ip, in.Settlement, dirty, cfg.Compounding)
	if err != nil {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: %w", err)
	}

	maturityTenor := yearsBetween(in.Settlement, in.Terms.Horizon())
	gSpread, err := GSpread(ytm, cfg.Compounding, benchIP, maturityTenor, cfg.Compounding)
	if err != nil {
		return AnalyticsResult{}, fmt.Errorf("bond.Valuate: %w", err)
	}

	result := AnalyticsResult{
		AccruedInterest: accrued,
		YTM:             ytm,
		YTW:             ytw.Yield,
		YTWExerciseDate: ytw.ExerciseDate,
		YTWIsCall:       ytw.IsCall,
		ZSpread:         zSpread,
		GSpread:         gSpread,
	}

	if in.Terms.Floating != nil {
		dm, err := SolveDiscountMargin(sched.Events, ip, in.Settlement, dirty, cfg.Compounding)
		if err != nil {
			return AnalyticsResult{}, fmt.Errorf("bond.Valuate: %w", err)
		}
		result.DiscountMargin = &dm
	}

	oas, err := computeOAS(in.Terms, sched, ip, in.Settlement, dirty, cfg)
	if err != nil {
		return AnalyticsResult{}, err
	}
	result.OAS = oas

	spreadForRisk := zSpread
	if result.OAS != nil {
		spreadForRisk = *result.OAS
	}
	risk, err := ComputeRisk(sched, ip, in.Settlement, ytm, spreadForRisk, cfg.Compounding, cfg.Interpolation, cfg.YieldBump)
	if err != nil {
		return AnalyticsResult{}, err
	}
	result.EffectiveDuration = risk.EffectiveDuration
	result.ModifiedDuration = risk.ModifiedDuration
	result.Convexity = risk.Convexity
	result.SpreadDuration = risk.SpreadDuration
	result.KeyRateDurations = risk.KeyRateDurations

	return result, nil
}

// computeOAS dispatches on the configured mode. A failed solve surfaces as an
// error, never as a zero OAS.
func computeOAS(terms Terms, sched *Schedule, ip *curve.Interpolator, settlement time.Time, dirty float64, cfg Config) (*float64, error) {
	if cfg.OASMode == OASDisabled {
		return nil, nil
	}
	if terms.Floating != nil {
		if cfg.OASMode == OASMonteCarlo {
			return nil, fmt.Errorf("bond.Valuate: stochastic OAS on floating structures: %w", ErrUnsupportedStructure)
		}
		// Floaters report discount margin instead of OAS.
		return nil, nil
	}

	var (
		oas float64
		err error
	)
	switch cfg.OASMode {
	case OASMonteCarlo:
		oas, err = SolveOASMonteCarlo(sched, ip, settlement, dirty, cfg.Compounding, cfg.HullWhite)
	default:
		oas, err = SolveOAS(sched, ip, settlement, dirty, cfg.Compounding)
	}
	if err != nil {
		return nil, err
	}
	return &oas, nil
}
