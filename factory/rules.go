/*
Package factory provides JSON to Go compensation rule conversion.

PURPOSE:
  Converts a JSON rule definition into a payroll.RuleTable so HR can change
  multipliers and allowances without a code change. The file is loaded once
  at startup (RULES_FILE); without one the built-in table applies.

JSON SCHEMA:
  {
    "minimum_wage": "86.88",
    "default": {"multiplier": "1.0", "allowance": "2000"},
    "roles": [
      {"role": "Intern",   "multiplier": "0.8", "allowance": "1000"},
      {"role": "Employee", "multiplier": "1.5", "allowance": "3000"}
    ]
  }

  Numbers may be given as JSON strings or numbers; both decode exactly.

  An omitted "default" rule falls back to the built-in one (1.0 / 2000).

VALIDATION:
  - minimum_wage > 0
  - every multiplier > 0, every allowance >= 0
  - role names non-empty and unique

USAGE:
  f := factory.NewRuleFactory()
  rules, err := f.ParseRules(jsonString)
  engine := payroll.NewEngine(ledger, leaves, directory, rules)

SEE ALSO:
  - payroll/rules.go: RuleTable and the built-in defaults
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

var ErrInvalidRules = errors.New("invalid compensation rules")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RulesJSON is the JSON representation of a rule table.
type RulesJSON struct {
	MinimumWage decimal.Decimal `json:"minimum_wage"`
	Default     RoleRuleJSON    `json:"default"`
	Roles       []RoleRuleJSON  `json:"roles"`
}

type RoleRuleJSON struct {
	Role       string          `json:"role,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Allowance  decimal.Decimal `json:"allowance"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

type RuleFactory struct{}

func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseRules decodes and validates a JSON rule table.
func (f *RuleFactory) ParseRules(jsonStr string) (*payroll.RuleTable, error) {
	var rj RulesJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	return f.FromJSON(rj)
}

// FromJSON converts a decoded rule table.
func (f *RuleFactory) FromJSON(rj RulesJSON) (*payroll.RuleTable, error) {
	if !rj.MinimumWage.IsPositive() {
		return nil, fmt.Errorf("%w: minimum_wage must be positive, got %s", ErrInvalidRules, rj.MinimumWage)
	}
	def := payroll.DefaultRules().Default
	if rj.Default != (RoleRuleJSON{}) {
		var err error
		if def, err = parseRoleRule(rj.Default, "default"); err != nil {
			return nil, err
		}
	}

	table := &payroll.RuleTable{
		MinimumWage: rj.MinimumWage,
		Roles:       make(map[payroll.Role]payroll.RoleRule, len(rj.Roles)),
		Default:     def,
	}
	for i, r := range rj.Roles {
		if r.Role == "" {
			return nil, fmt.Errorf("%w: roles[%d] has no name", ErrInvalidRules, i)
		}
		role := payroll.Role(r.Role)
		if _, dup := table.Roles[role]; dup {
			return nil, fmt.Errorf("%w: role %q defined twice", ErrInvalidRules, r.Role)
		}
		rule, err := parseRoleRule(r, r.Role)
		if err != nil {
			return nil, err
		}
		table.Roles[role] = rule
	}
	return table, nil
}

// ToJSON converts a rule table back, roles sorted by name.
func (f *RuleFactory) ToJSON(table *payroll.RuleTable) RulesJSON {
	rj := RulesJSON{
		MinimumWage: table.MinimumWage,
		Default: RoleRuleJSON{
			Multiplier: table.Default.Multiplier,
			Allowance:  table.Default.Allowance,
		},
		Roles: make([]RoleRuleJSON, 0, len(table.Roles)),
	}
	for role, rule := range table.Roles {
		rj.Roles = append(rj.Roles, RoleRuleJSON{
			Role:       string(role),
			Multiplier: rule.Multiplier,
			Allowance:  rule.Allowance,
		})
	}
	sort.Slice(rj.Roles, func(i, j int) bool { return rj.Roles[i].Role < rj.Roles[j].Role })
	return rj
}

// DefaultRulesJSON renders the built-in table, a starting point for RULES_FILE.
func DefaultRulesJSON() string {
	data, _ := json.MarshalIndent(NewRuleFactory().ToJSON(payroll.DefaultRules()), "", "  ")
	return string(data)
}

func parseRoleRule(r RoleRuleJSON, name string) (payroll.RoleRule, error) {
	if !r.Multiplier.IsPositive() {
		return payroll.RoleRule{}, fmt.Errorf("%w: %s multiplier must be positive, got %s", ErrInvalidRules, name, r.Multiplier)
	}
	if r.Allowance.IsNegative() {
		return payroll.RoleRule{}, fmt.Errorf("%w: %s allowance cannot be negative, got %s", ErrInvalidRules, name, r.Allowance)
	}
	return payroll.RoleRule{Multiplier: r.Multiplier, Allowance: r.Allowance}, nil
}
