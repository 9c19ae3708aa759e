// Package calendar provides business day calendars built from
// caller-supplied holiday sets.
package calendar

import "time"

// Rule is a business day adjustment convention.
type Rule string

const (
	Unadjusted        Rule = "UNADJUSTED"
	Following         Rule = "FOLLOWING"
	ModifiedFollowing Rule = "MODIFIED_FOLLOWING"
	Preceding         Rule = "PRECEDING"
)

// Calendar is a weekend-plus-holidays business day calendar. A nil *Calendar
// treats every weekday as a business day.
type Calendar struct {
	holidays map[string]struct{}
}

// New builds a calendar from a holiday date list. Time-of-day components are
// ignored; only the calendar date matters.
func New(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[h.Format("2006-01-02")] = struct{}{}
	}
	return c
}

// IsBusinessDay checks weekends and the holiday set.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	if c == nil || c.holidays == nil {
		return true
	}
	_, holiday := c.holidays[t.Format("2006-01-02")]
	return !holiday
}

// Apply shifts t to a business day under the given rule.
//
// ModifiedFollowing rolls forward unless that leaves the month, in which case
// it rolls backward instead.
func (c *Calendar) Apply(rule Rule, t time.Time) time.Time {
	switch rule {
	case Following:
		return c.following(t)
	case Preceding:
		return c.preceding(t)
	case ModifiedFollowing:
		adjusted := c.following(t)
		if adjusted.Month() != t.Month() {
			return c.preceding(t)
		}
		return adjusted
	default:
		return t
	}
}

func (c *Calendar) following(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func (c *Calendar) preceding(t time.Time) time.Time {
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func (c *Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if c.IsBusinessDay(t) {
			n -= step
		}
	}
	return t
}
