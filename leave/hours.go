package leave

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
)

// CountedDays returns how many days of r fall inside period and are paid:
// every calendar day for maternity leave, weekdays only otherwise.
// Status is not consulted here.
func CountedDays(r Request, period generic.Period) int {
	clipped, ok := r.Period().Intersect(period)
	if !ok {
		return 0
	}
	if r.Type.CountsCalendarDays() {
		return clipped.Len()
	}
	return clipped.Workdays()
}

// Hours sums paid leave hours for the approved requests intersecting period.
//
// Overlapping approved requests are not merged: each contributes its own
// days, so two approved requests covering the same Monday yield 16 hours.
func Hours(requests []Request, period generic.Period) decimal.Decimal {
	days := 0
	for _, r := range requests {
		if !r.IsApproved() {
			continue
		}
		days += CountedDays(r, period)
	}
	return decimal.NewFromInt(int64(days * generic.HoursPerDay))
}

// Approved filters requests down to approved ones intersecting period.
func Approved(requests []Request, period generic.Period) []Request {
	var out []Request
	for _, r := range requests {
		if !r.IsApproved() {
			continue
		}
		if _, ok := r.Period().Intersect(period); ok {
			out = append(out, r)
		}
	}
	return out
}
