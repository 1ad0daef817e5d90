package payroll_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

func TestEngine_WorkedExample(t *testing.T) {
	// GIVEN: an Employee (rate 130.32, allowance 3000) with 72 worked hours
	// WHEN: computing 2025-01-01 to 2025-01-15
	// THEN: every figure matches the hand calculation

	f := newFixture(t)
	f.workedExample(t)

	rec, err := f.engine.ComputeForEmployee(context.Background(), "emp-1", "2025-01-01", "2025-01-15")
	require.NoError(t, err)

	assertDecimal(t, "72", rec.HoursWorked)
	assertDecimal(t, "130.32", rec.HourlyRate)
	assertDecimal(t, "9383.04", rec.BasicPay)
	assertDecimal(t, "0", rec.Overtime)
	assertDecimal(t, "3000", rec.Allowances)
	assertDecimal(t, "12383.04", rec.GrossPay)
	assertDecimal(t, "1114.47", rec.Deductions.SocialInsurance)
	assertDecimal(t, "619.15", rec.Deductions.HealthInsurance)
	assertDecimal(t, "123.83", rec.Deductions.HousingFund)
	assertDecimal(t, "393.27", rec.Deductions.Tax)
	assertDecimal(t, "2250.72", rec.Deductions.TotalDeductions)
	assertDecimal(t, "10132.32", rec.NetPay)

	assert.Equal(t, "2025-01-16", rec.PayDate.String(), "pay date is the day after the period")
	assert.Equal(t, payroll.StatusPending, rec.Status)
	assert.Equal(t, "Employee emp-1", rec.EmployeeName)
	assertDecimal(t, "88", rec.Breakdown.StandardHours)
	assert.Empty(t, rec.ID, "computation does not persist")
	assert.NoError(t, rec.Validate())
}

func TestEngine_Overtime(t *testing.T) {
	// GIVEN: a Supervisor (rate 173.76) working 10 hours on all 11 weekdays
	// THEN: 88 regular hours, 22 overtime hours at 1.25x

	f := newFixture(t)
	f.addEmployee(t, "emp-2", payroll.RoleSupervisor)
	f.workWeekdays(t, "emp-2", january, 10, -1)

	rec, err := f.engine.Compute(context.Background(), "emp-2", january)
	require.NoError(t, err)

	assertDecimal(t, "110", rec.HoursWorked)
	assertDecimal(t, "88", rec.Breakdown.RegularHours)
	assertDecimal(t, "22", rec.Breakdown.OvertimeHours)
	assertDecimal(t, "15290.88", rec.BasicPay)
	assertDecimal(t, "4778.40", rec.Overtime)
	assertDecimal(t, "24069.28", rec.GrossPay)
	assert.NoError(t, rec.Validate())
}

func TestEngine_ApprovedLeaveCountsAsHours(t *testing.T) {
	// GIVEN: 64 worked hours and one approved vacation day
	// THEN: hours and pay equal the 72-hour worked example

	f := newFixture(t)
	ctx := context.Background()
	f.addEmployee(t, "emp-1", payroll.RoleEmployee)
	f.workWeekdays(t, "emp-1", january, 8, 8)

	require.NoError(t, f.store.SaveLeaveRequest(ctx, leave.Request{
		ID: "lv-1", EmployeeID: "emp-1", Type: leave.TypeVacation, Status: leave.StatusApproved,
		StartDate: day(2025, 1, 14), EndDate: day(2025, 1, 14),
	}))
	require.NoError(t, f.store.SaveLeaveRequest(ctx, leave.Request{
		ID: "lv-2", EmployeeID: "emp-1", Type: leave.TypeVacation, Status: leave.StatusPending,
		StartDate: day(2025, 1, 15), EndDate: day(2025, 1, 15),
	}))

	rec, err := f.engine.Compute(ctx, "emp-1", january)
	require.NoError(t, err)

	assertDecimal(t, "64", rec.Breakdown.WorkedHours)
	assertDecimal(t, "8", rec.Breakdown.LeaveHours)
	assertDecimal(t, "72", rec.HoursWorked)
	assertDecimal(t, "12383.04", rec.GrossPay)
	assertDecimal(t, "10132.32", rec.NetPay)
}

func TestEngine_NoHoursStillPaysAllowance(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "emp-3", payroll.RoleIntern)

	rec, err := f.engine.Compute(context.Background(), "emp-3", january)
	require.NoError(t, err)

	assertDecimal(t, "0", rec.BasicPay)
	assertDecimal(t, "1000", rec.GrossPay)
	assertDecimal(t, "0", rec.Deductions.Tax)
	assert.True(t, rec.NetPay.IsPositive())
}

func TestEngine_UnknownEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Compute(context.Background(), "ghost", january)
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)

	var nf *generic.EmployeeNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, generic.EmployeeID("ghost"), nf.EmployeeID)
}

func TestEngine_InvalidDateRange(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()

	_, err := f.engine.ComputeForEmployee(ctx, "emp-1", "2025-01-15", "2025-01-01")
	assert.ErrorIs(t, err, generic.ErrInvalidDateRange)

	_, err = f.engine.ComputeForEmployee(ctx, "emp-1", "January 1st", "2025-01-15")
	assert.ErrorIs(t, err, generic.ErrInvalidDateRange)
}

func TestEngine_ComputeIsRepeatable(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()

	first, err := f.engine.Compute(ctx, "emp-1", january)
	require.NoError(t, err)
	second, err := f.engine.Compute(ctx, "emp-1", january)
	require.NoError(t, err)

	assert.True(t, first.NetPay.Equal(second.NetPay))
	assert.True(t, first.GrossPay.Equal(second.GrossPay))
}

func TestEngine_CustomRules(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)

	rules := payroll.DefaultRules()
	rules.Roles[payroll.RoleEmployee] = payroll.RoleRule{Multiplier: dec("2"), Allowance: dec("0")}
	engine := payroll.NewEngine(f.ledger, f.store, f.store, rules)

	rec, err := engine.Compute(context.Background(), "emp-1", january)
	require.NoError(t, err)
	assertDecimal(t, "173.76", rec.HourlyRate)
	assertDecimal(t, "12510.72", rec.GrossPay)
}

func TestEngine_FractionalRatesRoundOnlyPay(t *testing.T) {
	// GIVEN: roles whose rate carries a third decimal (Intern 69.504, Team Lead 156.384)
	// WHEN: computing 80 worked hours, and 90 hours for overtime
	// THEN: the rate stays exact and only the resulting pay is rounded to cents

	f := newFixture(t)
	ctx := context.Background()
	f.addEmployee(t, "intern", payroll.RoleIntern)
	f.addEmployee(t, "lead", payroll.RoleTeamLead)
	f.addEmployee(t, "intern-ot", payroll.RoleIntern)
	f.workWeekdays(t, "intern", january, 8, 10)
	f.workWeekdays(t, "lead", january, 8, 10)
	f.workWeekdays(t, "intern-ot", january, 9, 10)

	intern, err := f.engine.Compute(ctx, "intern", january)
	require.NoError(t, err)
	assertDecimal(t, "69.504", intern.HourlyRate)
	assertDecimal(t, "5560.32", intern.BasicPay)

	lead, err := f.engine.Compute(ctx, "lead", january)
	require.NoError(t, err)
	assertDecimal(t, "156.384", lead.HourlyRate)
	assertDecimal(t, "12510.72", lead.BasicPay)

	overtime, err := f.engine.Compute(ctx, "intern-ot", january)
	require.NoError(t, err)
	assertDecimal(t, "6116.35", overtime.BasicPay, "88 regular hours")
	assertDecimal(t, "173.76", overtime.Overtime, "2 overtime hours at 1.25")
}
