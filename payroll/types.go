/*
Package payroll derives semi-monthly payroll records from the Time Ledger,
the Leave module and the compensation rule table.

PURPOSE:
  Three sources mutate independently of each other: attendance writes worked
  hours, the Leave module approves requests, and HR edits role rules. This
  package merges a snapshot of all three into one itemized Record per
  employee per pay period, keeps the record stable once generated, and keeps
  a hash-chained history of every manual change made to it afterwards.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee / EmployeeDirectory: Who is paid, at which role
  - Record: One employee's itemized payroll for one pay period
  - Deductions: Statutory withholdings plus loans
  - RecordUpdate: The only fields an edit may touch

RECORD INVARIANTS:
  GrossPay   = BasicPay + Overtime + Allowances + Commissions + Incentives
  Deductions.TotalDeductions = SocialInsurance + HealthInsurance + HousingFund + Tax + Loans
  NetPay     = GrossPay - Deductions.TotalDeductions
  Identity fields (employee, period, creation) never change after generation.

SEE ALSO:
  - engine.go: Computation of a single record
  - service.go: Batch generation, edits, retention
  - audit.go: Edit log hash chain
  - rules.go: Compensation rules and statutory deductions
*/
package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// EMPLOYEE DIRECTORY - External collaborator
// =============================================================================

// Role is the employee's position, the key of the compensation rule table.
type Role string

type Employee struct {
	ID   generic.EmployeeID `json:"id"`
	Name string             `json:"name"`
	Role Role               `json:"role"`
}

// EmployeeDirectory resolves an employee id. Implementations return an error
// wrapping generic.ErrEmployeeNotFound for unknown ids.
type EmployeeDirectory interface {
	Employee(ctx context.Context, id generic.EmployeeID) (Employee, error)
}

// =============================================================================
// RECORD
// =============================================================================

type Status string

const (
	StatusPending   Status = "Pending"
	StatusProcessed Status = "Processed"
	StatusPaid      Status = "Paid"
)

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessed:
		return 1
	case StatusPaid:
		return 2
	}
	return -1
}

func (s Status) Valid() bool { return s.rank() >= 0 }

type Deductions struct {
	SocialInsurance decimal.Decimal `json:"social_insurance"`
	HealthInsurance decimal.Decimal `json:"health_insurance"`
	HousingFund     decimal.Decimal `json:"housing_fund"`
	Tax             decimal.Decimal `json:"tax"`
	Loans           decimal.Decimal `json:"loans"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
}

// Sum adds the individual deduction fields, ignoring TotalDeductions.
func (d Deductions) Sum() decimal.Decimal {
	return d.SocialInsurance.
		Add(d.HealthInsurance).
		Add(d.HousingFund).
		Add(d.Tax).
		Add(d.Loans)
}

// HoursBreakdown explains how HoursWorked was reached.
type HoursBreakdown struct {
	WorkedHours   decimal.Decimal `json:"worked_hours"`
	LeaveHours    decimal.Decimal `json:"leave_hours"`
	StandardHours decimal.Decimal `json:"standard_hours"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

type Record struct {
	ID             string             `json:"id"`
	EmployeeID     generic.EmployeeID `json:"employee_id"`
	EmployeeName   string             `json:"employee_name"`
	PayPeriodStart generic.TimePoint  `json:"pay_period_start"`
	PayPeriodEnd   generic.TimePoint  `json:"pay_period_end"`
	PayDate        generic.TimePoint  `json:"pay_date"`

	// HoursWorked is worked plus paid leave hours.
	HoursWorked decimal.Decimal `json:"hours_worked"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	BasicPay    decimal.Decimal `json:"basic_pay"`
	Overtime    decimal.Decimal `json:"overtime"`
	Allowances  decimal.Decimal `json:"allowances"`
	Commissions decimal.Decimal `json:"commissions"`
	Incentives  decimal.Decimal `json:"incentives"`
	GrossPay    decimal.Decimal `json:"gross_pay"`
	Deductions  Deductions      `json:"deductions"`
	NetPay      decimal.Decimal `json:"net_pay"`

	Status    Status         `json:"status"`
	Breakdown HoursBreakdown `json:"breakdown"`
	CreatedAt time.Time      `json:"created_at"`
	CreatedBy string         `json:"created_by"`

	// EditCount and EditHash pin the head of the edit-log chain so a
	// truncated history is detectable.
	EditCount int    `json:"edit_count"`
	EditHash  string `json:"edit_hash,omitempty"`
}

// Period returns the record's pay period.
func (r Record) Period() generic.Period {
	return generic.Period{Start: r.PayPeriodStart, End: r.PayPeriodEnd}
}

// Earnings sums the gross pay components.
func (r Record) Earnings() decimal.Decimal {
	return r.BasicPay.
		Add(r.Overtime).
		Add(r.Allowances).
		Add(r.Commissions).
		Add(r.Incentives)
}

// Recalculate re-derives the totals from their components.
func (r *Record) Recalculate() {
	r.GrossPay = r.Earnings()
	r.Deductions.TotalDeductions = r.Deductions.Sum()
	r.NetPay = r.GrossPay.Sub(r.Deductions.TotalDeductions)
}

// Validate checks the total invariants.
func (r Record) Validate() error {
	if !r.GrossPay.Equal(r.Earnings()) {
		return fmt.Errorf("record %s: gross pay %s != earnings %s", r.ID, r.GrossPay, r.Earnings())
	}
	if !r.Deductions.TotalDeductions.Equal(r.Deductions.Sum()) {
		return fmt.Errorf("record %s: total deductions %s != sum %s", r.ID, r.Deductions.TotalDeductions, r.Deductions.Sum())
	}
	if !r.NetPay.Equal(r.GrossPay.Sub(r.Deductions.TotalDeductions)) {
		return fmt.Errorf("record %s: net pay %s != gross - deductions", r.ID, r.NetPay)
	}
	return nil
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// =============================================================================
// RECORD UPDATE - Typed edit command
// =============================================================================

// Field names recorded in EditLog.FieldChanged.
const (
	FieldBasicPay    = "basicPay"
	FieldOvertime    = "overtime"
	FieldAllowances  = "allowances"
	FieldCommissions = "commissions"
	FieldIncentives  = "incentives"
	FieldLoans       = "deductions.loans"
)

// RecordUpdate carries only the editable numeric fields. Nil means unchanged.
// Totals are never accepted from the caller.
type RecordUpdate struct {
	BasicPay    *decimal.Decimal `json:"basic_pay,omitempty"`
	Overtime    *decimal.Decimal `json:"overtime,omitempty"`
	Allowances  *decimal.Decimal `json:"allowances,omitempty"`
	Commissions *decimal.Decimal `json:"commissions,omitempty"`
	Incentives  *decimal.Decimal `json:"incentives,omitempty"`
	Loans       *decimal.Decimal `json:"loans,omitempty"`
}

type fieldRef struct {
	name  string
	value *decimal.Decimal
	dest  func(*Record) *decimal.Decimal
}

// fields lists the update in a fixed order so edit logs are deterministic.
func (u RecordUpdate) fields() []fieldRef {
	return []fieldRef{
		{FieldBasicPay, u.BasicPay, func(r *Record) *decimal.Decimal { return &r.BasicPay }},
		{FieldOvertime, u.Overtime, func(r *Record) *decimal.Decimal { return &r.Overtime }},
		{FieldAllowances, u.Allowances, func(r *Record) *decimal.Decimal { return &r.Allowances }},
		{FieldCommissions, u.Commissions, func(r *Record) *decimal.Decimal { return &r.Commissions }},
		{FieldIncentives, u.Incentives, func(r *Record) *decimal.Decimal { return &r.Incentives }},
		{FieldLoans, u.Loans, func(r *Record) *decimal.Decimal { return &r.Deductions.Loans }},
	}
}

// Validate rejects negative amounts.
func (u RecordUpdate) Validate() error {
	for _, f := range u.fields() {
		if f.value != nil && f.value.IsNegative() {
			return fmt.Errorf("%w: %s cannot be negative (%s)", generic.ErrInvalidAmount, f.name, f.value)
		}
	}
	return nil
}

// IsEmpty reports whether no field is set.
func (u RecordUpdate) IsEmpty() bool {
	for _, f := range u.fields() {
		if f.value != nil {
			return false
		}
	}
	return true
}

// FieldChange is one changed field of an applied update.
type FieldChange struct {
	Field    string
	OldValue decimal.Decimal
	NewValue decimal.Decimal
}

// Apply writes the update onto r, rounding to cents, and returns the fields
// whose value actually changed. Totals are recalculated when anything changed.
func (u RecordUpdate) Apply(r *Record) []FieldChange {
	var changes []FieldChange
	for _, f := range u.fields() {
		if f.value == nil {
			continue
		}
		dest := f.dest(r)
		next := roundMoney(*f.value)
		if dest.Equal(next) {
			continue
		}
		changes = append(changes, FieldChange{Field: f.name, OldValue: *dest, NewValue: next})
		*dest = next
	}
	if len(changes) > 0 {
		r.Recalculate()
	}
	return changes
}
