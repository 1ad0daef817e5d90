package generic

import (
	"fmt"
	"strings"
)

// =============================================================================
// PERIOD - Inclusive calendar-day range
// =============================================================================

// Period is an inclusive [Start, End] range of calendar days.
//
// Examples:
//   - First half of March 2025:  Mar 1 - Mar 15
//   - Second half of Feb 2024:   Feb 16 - Feb 29
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod builds a period, rejecting an end before the start.
func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: %s is before %s", ErrInvalidDateRange, end, start)
	}
	return Period{Start: start, End: end}, nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Len is the number of calendar days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Workdays counts Monday-Friday days in the period. Whole weeks are counted
// arithmetically so the cost does not grow with the period's length.
func (p Period) Workdays() int {
	total := p.Len()
	weeks := total / 7
	n := weeks * 5
	for d := p.Start.AddDays(weeks * 7); d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		if d.IsWorkday() {
			n++
		}
	}
	return n
}

// Intersect clips p to other. ok is false when they share no day.
func (p Period) Intersect(other Period) (Period, bool) {
	start := p.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := p.End
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// SEMI-MONTHLY PAY PERIODS
// =============================================================================

// PeriodLabelSeparator splits "<start> - <end>". ISO dates contain bare
// hyphens, so the separator carries its surrounding spaces.
const PeriodLabelSeparator = " - "

// PayPeriod is one entry of the rolling pay calendar.
// PayDate is the period end; the computation engine independently assumes
// end + 1 day and the two are deliberately not reconciled.
type PayPeriod struct {
	Period  Period    `json:"-"`
	Label   string    `json:"period"`
	PayDate TimePoint `json:"pay_date"`
}

// SemiMonthlyPeriodFor returns the 1st-15th or 16th-end-of-month period
// containing date.
func SemiMonthlyPeriodFor(date TimePoint) Period {
	if date.Day() <= 15 {
		return Period{
			Start: NewTimePoint(date.Year(), date.Month(), 1),
			End:   NewTimePoint(date.Year(), date.Month(), 15),
		}
	}
	return Period{
		Start: NewTimePoint(date.Year(), date.Month(), 16),
		End:   EndOfMonth(date.Year(), date.Month()),
	}
}

// NextSemiMonthly returns the pay period after p.
func (p Period) NextSemiMonthly() Period {
	return SemiMonthlyPeriodFor(p.End.AddDays(1))
}

// PreviousSemiMonthly returns the pay period before p.
func (p Period) PreviousSemiMonthly() Period {
	return SemiMonthlyPeriodFor(p.Start.AddDays(-1))
}

// Label formats the period the way batch generation expects it back.
func (p Period) Label() string {
	return p.Start.String() + PeriodLabelSeparator + p.End.String()
}

// NextPeriods returns count consecutive pay periods, starting with the one
// containing today. It has no side effects.
func NextPeriods(today TimePoint, count int) []PayPeriod {
	if count <= 0 {
		return []PayPeriod{}
	}
	periods := make([]PayPeriod, 0, count)
	current := SemiMonthlyPeriodFor(today)
	for i := 0; i < count; i++ {
		periods = append(periods, PayPeriod{
			Period:  current,
			Label:   current.Label(),
			PayDate: current.End,
		})
		current = current.NextSemiMonthly()
	}
	return periods
}

// ParsePeriodLabel is the inverse of Period.Label.
func ParsePeriodLabel(label string) (Period, error) {
	parts := strings.Split(label, PeriodLabelSeparator)
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriodFormat, label)
	}
	start, err := ParseDate(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: start %q: %v", ErrInvalidPeriodFormat, parts[0], err)
	}
	end, err := ParseDate(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: end %q: %v", ErrInvalidPeriodFormat, parts[1], err)
	}
	return NewPeriod(start, end)
}
