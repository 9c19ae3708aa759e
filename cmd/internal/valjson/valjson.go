// Package valjson is the JSON request/response schema shared by the
// valuation command-line tools.
package valjson

import (
	"fmt"
	"time"

	"github.com/Cluckhead/Bang-sub002/bond"
	"github.com/Cluckhead/Bang-sub002/calendar"
	"github.com/Cluckhead/Bang-sub002/curve"
	"github.com/Cluckhead/Bang-sub002/daycount"
)

// Request is one valuation request. Dates are YYYY-MM-DD; rates and spreads
// are decimals; prices are per-100.
type Request struct {
	ID             string `json:"id,omitempty"`
	SettlementDate string `json:"settlement_date"`

	CleanPrice       float64   `json:"clean_price"`
	CouponRate       float64   `json:"coupon_rate"`
	Frequency        int       `json:"frequency"`
	DayCount         string    `json:"day_count"`
	IssueDate        string    `json:"issue_date"`
	MaturityDate     string    `json:"maturity_date,omitempty"`
	Perpetual        bool      `json:"perpetual,omitempty"`
	FixedToFloatDate string    `json:"fixed_to_float_date,omitempty"`
	Floating         *Floating `json:"floating,omitempty"`
	Calls            []Call    `json:"calls,omitempty"`

	Curve     []curve.Point `json:"curve"`
	Benchmark []curve.Point `json:"benchmark,omitempty"`
	Holidays  []string      `json:"holidays,omitempty"`

	Interpolation string                `json:"interpolation,omitempty"`
	Compounding   string                `json:"compounding,omitempty"`
	BusinessDay   string                `json:"business_day,omitempty"`
	OASMode       string                `json:"oas_mode,omitempty"`
	HullWhite     *bond.HullWhiteParams `json:"hull_white,omitempty"`
	YieldBumpBP   float64               `json:"yield_bump_bp,omitempty"`
	StubTolerance float64               `json:"stub_tolerance,omitempty"`
}

// Floating mirrors bond.FloatingTerms on the wire.
type Floating struct {
	Index          string  `json:"index,omitempty"`
	Spread         float64 `json:"spread"`
	ResetFrequency int     `json:"reset_frequency,omitempty"`
}

// Call is one call schedule entry.
type Call struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Response pairs a request ID with its analytics, or the failure that
// replaced them.
type Response struct {
	ID string `json:"id,omitempty"`
	*bond.AnalyticsResult
	Error string `json:"error,omitempty"`
}

// ToInput converts the wire request into an engine ValuationInput.
func (r Request) ToInput() (bond.ValuationInput, error) {
	var in bond.ValuationInput

	settlement, err := parseDate(r.SettlementDate)
	if err != nil {
		return in, fmt.Errorf("settlement_date: %w", err)
	}
	issue, err := parseDate(r.IssueDate)
	if err != nil {
		return in, fmt.Errorf("issue_date: %w", err)
	}
	conv, err := daycount.Parse(r.DayCount)
	if err != nil {
		return in, err
	}

	terms := bond.Terms{
		CouponRate: r.CouponRate,
		Frequency:  r.Frequency,
		DayCount:   conv,
		IssueDate:  issue,
		Perpetual:  r.Perpetual,
	}
	if r.MaturityDate != "" {
		terms.MaturityDate, err = parseDate(r.MaturityDate)
		if err != nil {
			return in, fmt.Errorf("maturity_date: %w", err)
		}
	}
	if r.FixedToFloatDate != "" {
		terms.FixedToFloatDate, err = parseDate(r.FixedToFloatDate)
		if err != nil {
			return in, fmt.Errorf("fixed_to_float_date: %w", err)
		}
	}
	if r.Floating != nil {
		terms.Floating = &bond.FloatingTerms{
			Index:          r.Floating.Index,
			Spread:         r.Floating.Spread,
			ResetFrequency: r.Floating.ResetFrequency,
		}
	}
	for _, c := range r.Calls {
		d, err := parseDate(c.Date)
		if err != nil {
			return in, fmt.Errorf("call date: %w", err)
		}
		terms.Calls = append(terms.Calls, bond.CallOption{Date: d, Price: c.Price})
	}

	crv, err := curve.New(r.Curve)
	if err != nil {
		return in, err
	}
	var bench *curve.Curve
	if len(r.Benchmark) > 0 {
		bench, err = curve.New(r.Benchmark)
		if err != nil {
			return in, fmt.Errorf("benchmark: %w", err)
		}
	}

	holidays := make([]time.Time, 0, len(r.Holidays))
	for _, h := range r.Holidays {
		d, err := parseDate(h)
		if err != nil {
			return in, fmt.Errorf("holiday: %w", err)
		}
		holidays = append(holidays, d)
	}

	cfg := bond.Config{
		Interpolation:   curve.Method(r.Interpolation),
		Compounding:     bond.Compounding(r.Compounding),
		BusinessDayRule: calendar.Rule(r.BusinessDay),
		OASMode:         bond.OASMode(r.OASMode),
		YieldBump:       r.YieldBumpBP * 1e-4,
		StubTolerance:   r.StubTolerance,
	}
	if r.HullWhite != nil {
		cfg.HullWhite = *r.HullWhite
	}

	return bond.ValuationInput{
		Terms:      terms,
		Settlement: settlement,
		CleanPrice: r.CleanPrice,
		Curve:      crv,
		Benchmark:  bench,
		Holidays:   holidays,
		Config:     cfg,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
