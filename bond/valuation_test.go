package bond_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Cluckhead/Bang-sub002/bond"
	"github.com/Cluckhead/Bang-sub002/calendar"
	"github.com/Cluckhead/Bang-sub002/curve"
)

func flatPoints(rate float64, tenors ...float64) *curve.Curve {
	pts := make([]curve.Point, 0, len(tenors))
	for _, t := range tenors {
		pts = append(pts, curve.Point{Tenor: t, Rate: rate})
	}
	c, err := curve.New(pts)
	if err != nil {
		panic(err)
	}
	return c
}

func TestValuate_Bullet(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	in := bond.ValuationInput{
		Terms:      terms,
		Settlement: terms.IssueDate,
		CleanPrice: 100.0,
		Curve:      flatPoints(0.05, 1, 2, 3, 5, 7, 10),
		Config:     bond.Config{BusinessDayRule: calendar.Unadjusted},
	}

	res, err := bond.Valuate(in)
	require.NoError(t, err)

	require.Equal(t, 0.0, res.AccruedInterest, "no accrual at issue")
	// At par on issue the yield is the coupon rate exactly, leap days in the
	// schedule notwithstanding; the Z-spread off the matching flat curve is
	// near zero.
	require.InDelta(t, 0.05, res.YTM, 1e-6)
	require.InDelta(t, 0.0, res.ZSpread, 5e-3)
	require.False(t, res.YTWIsCall)
	require.Equal(t, res.YTM, res.YTW, "no calls: worst yield is the maturity yield")
	require.True(t, res.YTWExerciseDate.Equal(terms.MaturityDate))

	require.NotNil(t, res.OAS, "non-callable fixed bond still reports OAS")
	require.InDelta(t, res.ZSpread, *res.OAS, 1e-12)
	require.Nil(t, res.DiscountMargin, "fixed bond has no discount margin")

	require.Greater(t, res.EffectiveDuration, 0.0)
	require.GreaterOrEqual(t, res.Convexity, 0.0)
	require.Len(t, res.KeyRateDurations, 6)
}

func TestValuate_MidPeriodSettlement(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	in := bond.ValuationInput{
		Terms:      terms,
		Settlement: date(2020, time.July, 15),
		CleanPrice: 100.0,
		Curve:      flatPoints(0.05, 1, 5, 10),
		Config:     bond.Config{BusinessDayRule: calendar.Unadjusted},
	}

	res, err := bond.Valuate(in)
	require.NoError(t, err)

	// Half a year into a 5% annual period.
	require.Greater(t, res.AccruedInterest, 2.0)
	require.Less(t, res.AccruedInterest, 3.0)
}

func TestValuate_Callable(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	terms.Calls = []bond.CallOption{{Date: date(2025, time.January, 15), Price: 100.0}}
	in := bond.ValuationInput{
		Terms:      terms,
		Settlement: terms.IssueDate,
		CleanPrice: 105.0,
		Curve:      flatPoints(0.04, 1, 2, 5, 10),
		Config:     bond.Config{BusinessDayRule: calendar.Unadjusted},
	}

	res, err := bond.Valuate(in)
	require.NoError(t, err)

	require.True(t, res.YTWIsCall)
	require.Less(t, res.YTW, res.YTM)
	require.NotNil(t, res.OAS)
	require.Less(t, *res.OAS, res.ZSpread, "exercised call pulls OAS under the Z-spread")
}

func TestValuate_OASDisabled(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	in := bond.ValuationInput{
		Terms:      terms,
		Settlement: terms.IssueDate,
		CleanPrice: 100.0,
		Curve:      flatPoints(0.05, 1, 10),
		Config: bond.Config{
			BusinessDayRule: calendar.Unadjusted,
			OASMode:         bond.OASDisabled,
		},
	}

	res, err := bond.Valuate(in)
	require.NoError(t, err)
	require.Nil(t, res.OAS)
}

func TestValuate_ParFloater(t *testing.T) {
	t.Parallel()

	terms := floaterTerms()
	in := bond.ValuationInput{
		Terms:      terms,
		Settlement: terms.IssueDate,
		CleanPrice: 100.0,
		Curve:      flatPoints(0.04, 0.25, 1, 3, 6),
		Config:     bond.Config{BusinessDayRule: calendar.Unadjusted},
	}

	res, err := bond.Valuate(in)
	require.NoError(t, err)

	require.NotNil(t, res.DiscountMargin)
	require.InDelta(t, 0.0, *res.DiscountMargin, 1e-5, "zero-spread floater at par")
	require.Nil(t, res.OAS, "floaters report discount margin, not OAS")
}

func TestValuate_FloaterStochasticOASUnsupported(t *testing.T) {
	t.Parallel()

	terms := floaterTerms()
	in := bond.ValuationInput{
		Terms:      terms,
		Settlement: terms.IssueDate,
		CleanPrice: 100.0,
		Curve:      flatPoints(0.04, 0.25, 1, 3, 6),
		Config: bond.Config{
			BusinessDayRule: calendar.Unadjusted,
			OASMode:         bond.OASMonteCarlo,
		},
	}

	_, err := bond.Valuate(in)
	require.ErrorIs(t, err, bond.ErrUnsupportedStructure)
}

func TestValuate_SeparateBenchmark(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	in := bond.ValuationInput{
		Terms:      terms,
		Settlement: terms.IssueDate,
		CleanPrice: 100.0,
		Curve:      flatPoints(0.05, 1, 10),
		Benchmark:  flatPoints(0.045, 1, 10),
		Config:     bond.Config{BusinessDayRule: calendar.Unadjusted},
	}

	res, err := bond.Valuate(in)
	require.NoError(t, err)

	// YTM near 5% against a 4.5% benchmark: G-spread around 50bp.
	require.Greater(t, res.GSpread, 0.003)
	require.Less(t, res.GSpread, 0.007)
}

func TestValuate_InputValidation(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	base := bond.ValuationInput{
		Terms:      terms,
		Settlement: terms.IssueDate,
		CleanPrice: 100.0,
		Curve:      flatPoints(0.05, 1, 10),
	}

	in := base
	in.Settlement = time.Time{}
	_, err := bond.Valuate(in)
	require.Error(t, err)

	in = base
	in.CleanPrice = 0
	_, err = bond.Valuate(in)
	require.Error(t, err)

	in = base
	in.Curve = nil
	_, err = bond.Valuate(in)
	require.Error(t, err)

	in = base
	in.Settlement = date(2031, time.June, 1)
	_, err = bond.Valuate(in)
	require.ErrorIs(t, err, bond.ErrIncompleteSchedule, "matured security")
}
