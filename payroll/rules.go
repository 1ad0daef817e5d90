package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// COMPENSATION RULE TABLE
// =============================================================================

// DefaultMinimumWage is the hourly base every role multiplier applies to.
var DefaultMinimumWage = decimal.RequireFromString("86.88")

// RoleRule is the compensation for one role.
type RoleRule struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Allowance  decimal.Decimal `json:"allowance"`
}

// RuleTable maps roles to hourly rates and flat allowances. Lookups are total:
// a role missing from Roles falls back to Default.
type RuleTable struct {
	MinimumWage decimal.Decimal
	Roles       map[Role]RoleRule
	Default     RoleRule
}

// Roles of the default table.
const (
	RoleIntern        Role = "Intern"
	RoleEmployee      Role = "Employee"
	RoleTeamLead      Role = "Team Lead"
	RoleSupervisor    Role = "Supervisor"
	RoleManager       Role = "Manager"
	RoleSeniorManager Role = "Senior Manager"
	RoleDirector      Role = "Director"
	RoleVicePresident Role = "Vice President"
	RoleExecutive     Role = "Executive"
)

func rule(multiplier, allowance string) RoleRule {
	return RoleRule{
		Multiplier: decimal.RequireFromString(multiplier),
		Allowance:  decimal.RequireFromString(allowance),
	}
}

// DefaultRules returns the built-in rule table.
func DefaultRules() *RuleTable {
	return &RuleTable{
		MinimumWage: DefaultMinimumWage,
		Roles: map[Role]RoleRule{
			RoleIntern:        rule("0.8", "1000"),
			RoleEmployee:      rule("1.5", "3000"),
			RoleTeamLead:      rule("1.8", "3500"),
			RoleSupervisor:    rule("2.0", "4000"),
			RoleManager:       rule("2.5", "5000"),
			RoleSeniorManager: rule("3.0", "6500"),
			RoleDirector:      rule("3.5", "8000"),
			RoleVicePresident: rule("4.5", "10000"),
			RoleExecutive:     rule("5.0", "12000"),
		},
		Default: rule("1.0", "2000"),
	}
}

func (t *RuleTable) ruleFor(role Role) RoleRule {
	if r, ok := t.Roles[role]; ok {
		return r
	}
	return t.Default
}

// HourlyRate is MinimumWage x the role multiplier, unrounded. Only the
// amounts derived from it are rounded to cents.
func (t *RuleTable) HourlyRate(role Role) decimal.Decimal {
	return t.MinimumWage.Mul(t.ruleFor(role).Multiplier)
}

// Allowance is the role's flat allowance per pay period.
func (t *RuleTable) Allowance(role Role) decimal.Decimal {
	return roundMoney(t.ruleFor(role).Allowance)
}

// =============================================================================
// STATUTORY DEDUCTIONS
// =============================================================================

var (
	socialInsuranceRate = decimal.RequireFromString("0.045")
	healthInsuranceRate = decimal.RequireFromString("0.05")
	housingFundRate     = decimal.RequireFromString("0.01")

	// periodsPerYear converts semi-monthly amounts to annual equivalents.
	periodsPerYear = decimal.NewFromInt(24)
	two            = decimal.NewFromInt(2)
)

// StatutoryDeductions computes the government withholdings for one
// semi-monthly gross pay. Loans and the total are left to the caller.
//
// Social insurance is charged on gross x 2, the monthly equivalent of a
// semi-monthly gross, not on the employee's actual monthly salary.
func StatutoryDeductions(gross decimal.Decimal) Deductions {
	return Deductions{
		SocialInsurance: roundMoney(gross.Mul(two).Mul(socialInsuranceRate)),
		HealthInsurance: roundMoney(gross.Mul(healthInsuranceRate)),
		HousingFund:     roundMoney(gross.Mul(housingFundRate)),
		Tax:             IncomeTax(gross),
		Loans:           decimal.Zero,
	}
}

// TaxBracket applies Base + Rate x (annual - Over) to annual income above Over.
type TaxBracket struct {
	Over decimal.Decimal
	Base decimal.Decimal
	Rate decimal.Decimal
}

func bracket(over, base, rate string) TaxBracket {
	return TaxBracket{
		Over: decimal.RequireFromString(over),
		Base: decimal.RequireFromString(base),
		Rate: decimal.RequireFromString(rate),
	}
}

// TaxBrackets is the annual progressive schedule, highest threshold first.
// Income up to 250,000 is untaxed.
var TaxBrackets = []TaxBracket{
	bracket("8000000", "2410000", "0.35"),
	bracket("2000000", "490000", "0.32"),
	bracket("800000", "130000", "0.30"),
	bracket("400000", "30000", "0.25"),
	bracket("250000", "0", "0.20"),
}

// AnnualIncomeTax applies TaxBrackets to an annual income.
func AnnualIncomeTax(annual decimal.Decimal) decimal.Decimal {
	for _, b := range TaxBrackets {
		if annual.GreaterThan(b.Over) {
			return b.Base.Add(annual.Sub(b.Over).Mul(b.Rate))
		}
	}
	return decimal.Zero
}

// IncomeTax annualizes a semi-monthly gross (x 24), applies the schedule and
// returns the semi-monthly share (/ 24), in cents.
func IncomeTax(gross decimal.Decimal) decimal.Decimal {
	annual := gross.Mul(periodsPerYear)
	return roundMoney(AnnualIncomeTax(annual).Div(periodsPerYear))
}
