/*
Package generic provides the domain-agnostic core of the payroll engine.

PURPOSE:
  This package holds the calendar and ledger primitives every payroll
  computation is built on: calendar days, inclusive periods, the rolling
  semi-monthly pay calendar, and the Time Ledger of worked hours. Nothing
  here knows about money, roles or leave types.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID: Type-safe identifier shared by every package
  - TimeRecord: Hours worked by one employee on one calendar day
  - TimeEntry: One line of a bulk upsert sharing a date
  - CompletedDay: The attendance module's "day closed" notification

DESIGN PRINCIPLES:
  1. Precision: Hours use decimal.Decimal, never float64 arithmetic
  2. Overwrite semantics: A day's hours are replaced, never accumulated
  3. Injection: Ledgers are explicit values handed to their consumers

USAGE:
  ledger := generic.NewTimeLedger(store)
  err := ledger.Upsert(ctx, "emp-1", generic.NewTimePoint(2025, time.March, 3), generic.Hours(8))

SEE ALSO:
  - period.go: Periods and the semi-monthly pay calendar
  - ledger.go: Time Ledger operations
  - store.go: Persistence interfaces
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// HoursPerDay is the standard working day used for standard-hour and
// leave-hour conversions.
const HoursPerDay = 8

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// =============================================================================
// QUANTITIES
// =============================================================================

// Hours builds a decimal hour quantity from a float literal.
func Hours(h float64) decimal.Decimal {
	return decimal.NewFromFloat(h)
}

// =============================================================================
// TIME RECORD - Worked hours per employee per day
// =============================================================================

type RecordSource string

const (
	SourceManual     RecordSource = "manual"
	SourceAttendance RecordSource = "attendance"
)

// TimeRecord is unique per (EmployeeID, Date).
type TimeRecord struct {
	EmployeeID  EmployeeID      `json:"employee_id"`
	Date        TimePoint       `json:"date"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
	Source      RecordSource    `json:"source"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TimeEntry is one line of a bulk upsert; the date is shared by the batch.
type TimeEntry struct {
	EmployeeID EmployeeID      `json:"employee_id"`
	Hours      decimal.Decimal `json:"hours"`
}

// CompletedDay is emitted by the attendance module when a time-out closes a day.
// Events may omit both punches and carry only TotalHours. A day with exactly
// one punch is still open.
type CompletedDay struct {
	EmployeeID EmployeeID      `json:"employee_id"`
	Date       TimePoint       `json:"date"`
	TimeIn     *time.Time      `json:"time_in,omitempty"`
	TimeOut    *time.Time      `json:"time_out,omitempty"`
	TotalHours decimal.Decimal `json:"total_hours"`
}

// Complete reports whether the day has positive hours and is not missing
// one of its two punches.
func (c CompletedDay) Complete() bool {
	if (c.TimeIn == nil) != (c.TimeOut == nil) {
		return false
	}
	return c.TotalHours.IsPositive()
}

func timeLockKey(employeeID EmployeeID, date TimePoint) string {
	return string(employeeID) + "|" + date.String()
}
