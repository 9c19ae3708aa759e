package bond_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/Cluckhead/Bang-sub002/bond"
	"github.com/Cluckhead/Bang-sub002/calendar"
	"github.com/Cluckhead/Bang-sub002/daycount"
)

func TestBuildSchedule_Bullet(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	cfg := bond.Config{BusinessDayRule: calendar.Unadjusted}
	sched := mustBuild(t, terms, terms.IssueDate, nil, cfg)

	require.Len(t, sched.Events, 10)
	for i, ev := range sched.Events {
		require.False(t, ev.Irregular, "event %d marked irregular", i)
		require.InDelta(t, 5.0, ev.Coupon, 1e-12, "event %d coupon", i)
		require.InDelta(t, 1.0, ev.AccrualFraction, 0.01, "event %d accrual", i)
	}
	require.Equal(t, 0.0, sched.Events[8].Principal)
	require.Equal(t, bond.Face, sched.Events[9].Principal)
	require.True(t, sched.Events[9].PayDate.Equal(terms.MaturityDate))
}

func TestBuildSchedule_ShortFinalStub(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	terms.MaturityDate = date(2029, time.July, 15)
	cfg := bond.Config{BusinessDayRule: calendar.Unadjusted}
	sched := mustBuild(t, terms, terms.IssueDate, nil, cfg)

	require.Len(t, sched.Events, 10)
	last := sched.Events[9]
	require.True(t, last.Irregular, "half-year stub must be flagged")
	require.True(t, last.PayDate.Equal(terms.MaturityDate))

	// A stub pays coupon pro-rated by the actual accrual fraction, not the
	// full periodic amount.
	frac, err := daycount.YearFraction(date(2029, time.January, 15), terms.MaturityDate, daycount.ActAct)
	require.NoError(t, err)
	require.InDelta(t, 0.05*frac*bond.Face, last.Coupon, 1e-12)

	for _, ev := range sched.Events[:9] {
		require.False(t, ev.Irregular)
		require.InDelta(t, 5.0, ev.Coupon, 1e-12)
	}
}

func TestBuildSchedule_Perpetual(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	terms.MaturityDate = time.Time{}
	terms.Perpetual = true
	cfg := bond.Config{BusinessDayRule: calendar.Unadjusted}
	sched := mustBuild(t, terms, terms.IssueDate, nil, cfg)

	require.Len(t, sched.Events, bond.PerpetualHorizonYears)
	last := sched.Events[len(sched.Events)-1]
	require.Equal(t, bond.Face, last.Principal)
	require.True(t, last.PayDate.Equal(date(2120, time.January, 15)))
}

func TestBuildSchedule_FixedToFloatSplit(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	terms.FixedToFloatDate = date(2025, time.January, 15)
	terms.Floating = &bond.FloatingTerms{Index: "SOFR", Spread: 0.002}
	ip := flatCurve(t, 0.04, 1, 2, 5, 10)
	cfg := bond.Config{BusinessDayRule: calendar.Unadjusted}
	sched := mustBuild(t, terms, terms.IssueDate, ip, cfg)

	require.Len(t, sched.Events, 10)

	// Fixed leg through the conversion date keeps the deterministic coupon.
	for i, ev := range sched.Events[:5] {
		require.InDelta(t, 5.0, ev.Coupon, 1e-12, "fixed-leg event %d", i)
	}
	require.True(t, sched.Events[4].PayDate.Equal(terms.FixedToFloatDate))

	// Post-conversion coupons are the curve-implied forward plus the quoted
	// spread: about 4.2 per 100 off a flat 4% curve with a 20bp spread.
	for i, ev := range sched.Events[5:] {
		require.InDelta(t, 4.2, ev.Coupon, 0.15, "floating-leg event %d", i)
		require.Less(t, ev.Coupon, 5.0, "floating-leg event %d must not keep the fixed coupon", i)
	}
	require.Equal(t, bond.Face, sched.Events[9].Principal)
}

func TestBuildSchedule_OffCycleFixedToFloat(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	terms.FixedToFloatDate = date(2024, time.June, 1)
	terms.Floating = &bond.FloatingTerms{Index: "SOFR", Spread: 0.002}
	ip := flatCurve(t, 0.04, 1, 10)

	_, err := bond.BuildSchedule(terms, terms.IssueDate, ip, nil, bond.Config{BusinessDayRule: calendar.Unadjusted})
	require.ErrorIs(t, err, bond.ErrIncompleteSchedule)
}

func TestBuildSchedule_FloaterRequiresProjection(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	terms.Floating = &bond.FloatingTerms{Index: "SOFR"}

	_, err := bond.BuildSchedule(terms, terms.IssueDate, nil, nil, bond.Config{})
	require.ErrorIs(t, err, bond.ErrIncompleteSchedule)
}

func TestBuildSchedule_CallDatesAdjusted(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	// 2025-06-15 is a Sunday.
	terms.Calls = []bond.CallOption{
		{Date: date(2025, time.June, 15), Price: 101.0},
		{Date: date(2026, time.January, 15), Price: 100.5},
	}
	cfg := bond.Config{BusinessDayRule: calendar.ModifiedFollowing}
	sched := mustBuild(t, terms, terms.IssueDate, nil, cfg)

	want := []bond.CallOption{
		{Date: date(2025, time.June, 16), Price: 101.0},
		{Date: date(2026, time.January, 15), Price: 100.5},
	}
	if diff := cmp.Diff(want, sched.Calls); diff != "" {
		t.Fatalf("adjusted calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAccruedInterest(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	cfg := bond.Config{BusinessDayRule: calendar.Unadjusted}
	sched := mustBuild(t, terms, terms.IssueDate, nil, cfg)

	// No accrual at issue or on a coupon date.
	got, err := sched.AccruedInterest(terms.IssueDate)
	require.NoError(t, err)
	require.Equal(t, 0.0, got)
	got, err = sched.AccruedInterest(date(2025, time.January, 15))
	require.NoError(t, err)
	require.Equal(t, 0.0, got)

	// Mid-period accrual pro-rates the period coupon.
	settle := date(2020, time.July, 15)
	af, err := daycount.AccruedFraction(date(2020, time.January, 15), date(2021, time.January, 15), settle, daycount.ActAct)
	require.NoError(t, err)
	got, err = sched.AccruedInterest(settle)
	require.NoError(t, err)
	require.InDelta(t, 5.0*af, got, 1e-12)
}

func TestTruncate_OnCouponDate(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	cfg := bond.Config{BusinessDayRule: calendar.Unadjusted}
	sched := mustBuild(t, terms, terms.IssueDate, nil, cfg)

	stream, err := sched.Truncate(bond.CallOption{Date: date(2025, time.January, 15), Price: 101.0})
	require.NoError(t, err)
	require.Len(t, stream, 5)

	last := stream[len(stream)-1]
	require.True(t, last.Call)
	require.InDelta(t, 5.0, last.Coupon, 1e-12, "on-cycle call keeps the full coupon")
	require.Equal(t, 101.0, last.Principal)
	for _, ev := range stream[:len(stream)-1] {
		require.Equal(t, 0.0, ev.Principal, "no redemption before the call")
	}
}

func TestTruncate_MidPeriod(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	cfg := bond.Config{BusinessDayRule: calendar.Unadjusted}
	sched := mustBuild(t, terms, terms.IssueDate, nil, cfg)

	callDate := date(2025, time.July, 15)
	stream, err := sched.Truncate(bond.CallOption{Date: callDate, Price: 100.5})
	require.NoError(t, err)
	require.Len(t, stream, 6)

	last := stream[len(stream)-1]
	require.True(t, last.Call)
	require.True(t, last.Irregular)
	require.True(t, last.PayDate.Equal(callDate))
	require.Equal(t, 100.5, last.Principal)

	af, err := daycount.AccruedFraction(date(2025, time.January, 15), date(2026, time.January, 15), callDate, daycount.ActAct)
	require.NoError(t, err)
	require.InDelta(t, 5.0*af, last.Coupon, 1e-12, "stub coupon accrues to the call date")
}

func TestTruncate_AfterFinalPayment(t *testing.T) {
	t.Parallel()

	terms := bulletTerms()
	sched := mustBuild(t, terms, terms.IssueDate, nil, bond.Config{BusinessDayRule: calendar.Unadjusted})

	_, err := sched.Truncate(bond.CallOption{Date: date(2031, time.January, 15), Price: 100})
	require.ErrorIs(t, err, bond.ErrIncompleteSchedule)
}

func TestTerms_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*bond.Terms)
	}{
		{"bad frequency", func(tm *bond.Terms) { tm.Frequency = 3 }},
		{"missing issue", func(tm *bond.Terms) { tm.IssueDate = time.Time{} }},
		{"missing maturity", func(tm *bond.Terms) { tm.MaturityDate = time.Time{} }},
		{"maturity before issue", func(tm *bond.Terms) { tm.MaturityDate = date(2019, time.January, 15) }},
		{"fixed-to-float without floating", func(tm *bond.Terms) { tm.FixedToFloatDate = date(2025, time.January, 15) }},
		{"call after maturity", func(tm *bond.Terms) {
			tm.Calls = []bond.CallOption{{Date: date(2031, time.January, 15), Price: 100}}
		}},
		{"calls not increasing", func(tm *bond.Terms) {
			tm.Calls = []bond.CallOption{
				{Date: date(2026, time.January, 15), Price: 100},
				{Date: date(2025, time.January, 15), Price: 100},
			}
		}},
		{"nonpositive call price", func(tm *bond.Terms) {
			tm.Calls = []bond.CallOption{{Date: date(2025, time.January, 15), Price: 0}}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			terms := bulletTerms()
			tc.mutate(&terms)
			err := terms.Validate()
			if !errors.Is(err, bond.ErrIncompleteSchedule) {
				t.Fatalf("expected ErrIncompleteSchedule, got %v", err)
			}
		})
	}
}
