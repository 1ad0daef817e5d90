/*
engine.go - Payroll computation for one employee and one period

PURPOSE:
  Merges the three independent sources into one fully itemized Record:

    Time Ledger      -> worked hours
    Leave module     -> paid leave hours (approved requests only)
    Rule table       -> hourly rate, allowance, statutory deductions

ALGORITHM:
  1. worked   = sum of ledger hours in [start, end]
  2. leave    = sum over approved requests of clipped counted days x 8
  3. standard = weekdays in [start, end] x 8
  4. regular  = min(worked + leave, standard)
     overtime = max(0, worked + leave - standard)
  5. basic    = regular x rate;  overtime pay = overtime x rate x 1.25
  6. gross    = basic + overtime + allowance (+ commissions, incentives = 0)
  7. deductions from gross; net = gross - deductions
  8. pay date = end + 1 day

  Commissions, incentives and loans start at zero; they exist to be filled
  in by a later edit.

PURITY:
  Compute reads snapshots and returns an unsaved Pending record. Calling it
  twice on unchanged sources yields the same figures.

SEE ALSO:
  - rules.go: Rates, allowances, deductions
  - leave/hours.go: Leave hour counting
  - service.go: Persistence and batching
*/
package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
)

// OvertimeMultiplier is the premium on hours beyond the standard hours.
var OvertimeMultiplier = decimal.RequireFromString("1.25")

type Engine struct {
	Ledger    *generic.TimeLedger
	Leaves    leave.Source
	Directory EmployeeDirectory
	Rules     *RuleTable
}

func NewEngine(ledger *generic.TimeLedger, leaves leave.Source, directory EmployeeDirectory, rules *RuleTable) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{Ledger: ledger, Leaves: leaves, Directory: directory, Rules: rules}
}

// ComputeForEmployee parses ISO dates and computes the record for the range.
func (e *Engine) ComputeForEmployee(ctx context.Context, employeeID generic.EmployeeID, periodStart, periodEnd string) (*Record, error) {
	start, err := generic.ParseDate(periodStart)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", generic.ErrInvalidDateRange, periodStart)
	}
	end, err := generic.ParseDate(periodEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", generic.ErrInvalidDateRange, periodEnd)
	}
	period, err := generic.NewPeriod(start, end)
	if err != nil {
		return nil, err
	}
	return e.Compute(ctx, employeeID, period)
}

// Compute builds the unsaved record for employeeID over period.
func (e *Engine) Compute(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) (*Record, error) {
	if period.End.Before(period.Start) {
		return nil, fmt.Errorf("%w: %s", generic.ErrInvalidDateRange, period)
	}

	emp, err := e.Directory.Employee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, generic.ErrEmployeeNotFound) {
			return nil, &generic.EmployeeNotFoundError{EmployeeID: employeeID}
		}
		return nil, fmt.Errorf("lookup employee %s: %w", employeeID, err)
	}

	worked, err := e.Ledger.SumInRange(ctx, employeeID, period)
	if err != nil {
		return nil, fmt.Errorf("sum worked hours for %s: %w", employeeID, err)
	}

	requests, err := e.Leaves.LeaveRequests(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load leave requests for %s: %w", employeeID, err)
	}
	leaveHours := leave.Hours(requests, period)

	hours := splitHours(worked, leaveHours, period)

	rate := e.Rules.HourlyRate(emp.Role)
	rec := &Record{
		EmployeeID:     emp.ID,
		EmployeeName:   emp.Name,
		PayPeriodStart: period.Start,
		PayPeriodEnd:   period.End,
		PayDate:        period.End.AddDays(1),
		HoursWorked:    hours.WorkedHours.Add(hours.LeaveHours),
		HourlyRate:     rate,
		BasicPay:       roundMoney(hours.RegularHours.Mul(rate)),
		Overtime:       roundMoney(hours.OvertimeHours.Mul(rate).Mul(OvertimeMultiplier)),
		Allowances:     e.Rules.Allowance(emp.Role),
		Commissions:    decimal.Zero,
		Incentives:     decimal.Zero,
		Status:         StatusPending,
		Breakdown:      hours,
	}
	if rec.EmployeeID == "" {
		rec.EmployeeID = employeeID
	}
	rec.GrossPay = rec.Earnings()
	rec.Deductions = StatutoryDeductions(rec.GrossPay)
	rec.Recalculate()
	return rec, nil
}

// splitHours caps regular hours at the period's standard hours and treats
// the excess as overtime.
func splitHours(worked, leaveHours decimal.Decimal, period generic.Period) HoursBreakdown {
	standard := decimal.NewFromInt(int64(period.Workdays() * generic.HoursPerDay))
	total := worked.Add(leaveHours)
	regular := decimal.Min(total, standard)
	overtime := decimal.Max(decimal.Zero, total.Sub(standard))
	return HoursBreakdown{
		WorkedHours:   worked,
		LeaveHours:    leaveHours,
		StandardHours: standard,
		RegularHours:  regular,
		OvertimeHours: overtime,
	}
}
