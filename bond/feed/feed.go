// Package feed adapts vendor cashflow feeds into engine cashflow events.
//
// Bloomberg-style feeds deliver coupon and principal as exact decimal
// amounts in minor units (e.g. cents per 100 face); amounts stay in
// decimal.Decimal until the final conversion so no precision is lost in
// transit.
package feed

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cluckhead/Bang-sub002/bond"
)

// Row is a single feed record. Coupon and Principal are per-100 amounts in
// minor units (cents).
type Row struct {
	Date      time.Time       `json:"date"`
	Coupon    decimal.Decimal `json:"coupon"`
	Principal decimal.Decimal `json:"principal"`
}

var minorUnits = decimal.NewFromInt(100)

// ToEvent converts a feed row to an engine cashflow event. Accrual details
// are not carried by vendor feeds; accrual-dependent analytics require a
// schedule built from terms instead.
func (r Row) ToEvent() bond.CashflowEvent {
	return bond.CashflowEvent{
		PayDate:   r.Date,
		Coupon:    r.Coupon.Div(minorUnits).InexactFloat64(),
		Principal: r.Principal.Div(minorUnits).InexactFloat64(),
	}
}

// ToEvents converts a full feed, validating that dates arrive in ascending
// order.
func ToEvents(rows []Row) ([]bond.CashflowEvent, error) {
	out := make([]bond.CashflowEvent, 0, len(rows))
	for i, r := range rows {
		if r.Date.IsZero() {
			return nil, fmt.Errorf("feed.ToEvents: row %d has no date", i)
		}
		if i > 0 && !r.Date.After(rows[i-1].Date) {
			return nil, fmt.Errorf("feed.ToEvents: dates not strictly increasing at row %d", i)
		}
		out = append(out, r.ToEvent())
	}
	return out, nil
}
