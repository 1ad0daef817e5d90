package payroll_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/payroll-engine/payroll"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s %s", want, got, fmt.Sprint(msgAndArgs...))
}

func TestRuleTable_HourlyRateAndAllowance(t *testing.T) {
	rules := payroll.DefaultRules()

	tests := []struct {
		role      payroll.Role
		rate      string
		allowance string
	}{
		{payroll.RoleIntern, "69.504", "1000"},
		{payroll.RoleEmployee, "130.32", "3000"},
		{payroll.RoleTeamLead, "156.384", "3500"},
		{payroll.RoleSupervisor, "173.76", "4000"},
		{payroll.RoleManager, "217.20", "5000"},
		{payroll.RoleExecutive, "434.40", "12000"},
		{payroll.Role("Janitor"), "86.88", "2000"},
		{payroll.Role(""), "86.88", "2000"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assertDecimal(t, tt.rate, rules.HourlyRate(tt.role))
			assertDecimal(t, tt.allowance, rules.Allowance(tt.role))
		})
	}
}

func TestStatutoryDeductions_WorkedExample(t *testing.T) {
	// GIVEN: a semi-monthly gross of 12,383.04
	// THEN: each deduction is computed from gross and rounded to cents

	d := payroll.StatutoryDeductions(dec("12383.04"))

	assertDecimal(t, "1114.47", d.SocialInsurance, "social insurance on gross x 2")
	assertDecimal(t, "619.15", d.HealthInsurance)
	assertDecimal(t, "123.83", d.HousingFund)
	assertDecimal(t, "393.27", d.Tax)
	assertDecimal(t, "0", d.Loans)
	assertDecimal(t, "2250.72", d.Sum())
}

func TestIncomeTax_BelowThresholdIsZero(t *testing.T) {
	assertDecimal(t, "0", payroll.IncomeTax(dec("10000")))
	assertDecimal(t, "0", payroll.IncomeTax(dec("0")))
}

func TestAnnualIncomeTax_Brackets(t *testing.T) {
	tests := []struct {
		annual string
		want   string
	}{
		{"250000", "0"},
		{"400000", "30000"},
		{"500000", "55000"},
		{"800000", "130000"},
		{"1000000", "190000"},
		{"2000000", "490000"},
		{"3000000", "810000"},
		{"8000000", "2410000"},
		{"9000000", "2760000"},
	}

	for _, tt := range tests {
		t.Run(tt.annual, func(t *testing.T) {
			assertDecimal(t, tt.want, payroll.AnnualIncomeTax(dec(tt.annual)))
		})
	}
}

func TestRecordUpdate_Apply(t *testing.T) {
	rec := payroll.Record{
		BasicPay:   dec("9383.04"),
		Allowances: dec("3000"),
		Deductions: payroll.StatutoryDeductions(dec("12383.04")),
	}
	rec.Recalculate()

	basic := dec("12000.004")
	same := dec("3000")
	loans := dec("250")
	changes := payroll.RecordUpdate{BasicPay: &basic, Allowances: &same, Loans: &loans}.Apply(&rec)

	if assert.Len(t, changes, 2, "unchanged allowance is not a change") {
		assert.Equal(t, payroll.FieldBasicPay, changes[0].Field)
		assertDecimal(t, "9383.04", changes[0].OldValue)
		assertDecimal(t, "12000", changes[0].NewValue, "rounded to cents")
		assert.Equal(t, payroll.FieldLoans, changes[1].Field)
	}
	assertDecimal(t, "15000", rec.GrossPay)
	assertDecimal(t, "2500.72", rec.Deductions.TotalDeductions)
	assertDecimal(t, "12499.28", rec.NetPay)
	assert.NoError(t, rec.Validate())
}

func TestRecordUpdate_ValidateRejectsNegative(t *testing.T) {
	neg := dec("-1")
	err := payroll.RecordUpdate{Incentives: &neg}.Validate()
	assert.Error(t, err)
	assert.True(t, payroll.RecordUpdate{}.IsEmpty())
}
