/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the directory, the Time
	Ledger and the leave replica with realistic data, so that generating
	payroll shows specific features of the engine.

AVAILABLE SCENARIOS:

	worked-example: One Employee, 72 hours, no leave (gross 12,383.04)
	team-period:    Five roles over the last completed pay period
	overtime:       Ten-hour days pushing past the standard hours
	leave-mix:      Vacation over a weekend, maternity, a rejected request

HOW SCENARIOS WORK:
 1. Reset the data (directory, ledger, leave, payroll records)
 2. Create employees
 3. Upsert worked hours per weekday
 4. Add leave requests

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "team-period"}

	then POST /api/payroll/generate for the period the scenario reports.

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Generation and ledger endpoints
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "worked-example",
		Name:        "Worked Example",
		Description: "One Employee with 72 hours in 2025-01-01 - 2025-01-15",
	},
	{
		ID:          "team-period",
		Name:        "Team Period",
		Description: "Five roles with full attendance over the last completed pay period",
	},
	{
		ID:          "overtime",
		Name:        "Overtime",
		Description: "Ten-hour days: hours beyond the standard are paid at 1.25x",
	},
	{
		ID:          "leave-mix",
		Name:        "Leave Mix",
		Description: "Vacation across a weekend, maternity leave and a rejected request",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the data and loads a predefined scenario. The
// response names the period to generate.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var loader func(context.Context) (generic.Period, error)
	switch req.ScenarioID {
	case "worked-example":
		loader = h.loadWorkedExampleScenario
	case "team-period":
		loader = h.loadTeamPeriodScenario
	case "overtime":
		loader = h.loadOvertimeScenario
	case "leave-mix":
		loader = h.loadLeaveMixScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Backend.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	period, err := loader(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"period":   period.Label(),
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// lastCompletedPeriod is the pay period before the one containing today.
func (h *Handler) lastCompletedPeriod() generic.Period {
	return generic.SemiMonthlyPeriodFor(h.Today()).PreviousSemiMonthly()
}

func (h *Handler) loadWorkedExampleScenario(ctx context.Context) (generic.Period, error) {
	period, _ := generic.NewPeriod(
		generic.NewTimePoint(2025, 1, 1),
		generic.NewTimePoint(2025, 1, 15),
	)
	if err := h.saveEmployees(ctx, payroll.Employee{ID: "emp-001", Name: "Alice Johnson", Role: payroll.RoleEmployee}); err != nil {
		return period, err
	}
	// 9 weekdays x 8 hours = 72 hours
	return period, h.seedWeekdays(ctx, "emp-001", period, generic.Hours(8), 9)
}

func (h *Handler) loadTeamPeriodScenario(ctx context.Context) (generic.Period, error) {
	period := h.lastCompletedPeriod()
	team := []payroll.Employee{
		{ID: "emp-101", Name: "Bruno Diaz", Role: payroll.RoleIntern},
		{ID: "emp-102", Name: "Chen Wei", Role: payroll.RoleEmployee},
		{ID: "emp-103", Name: "Dana Okafor", Role: payroll.RoleTeamLead},
		{ID: "emp-104", Name: "Elif Kaya", Role: payroll.RoleManager},
		{ID: "emp-105", Name: "Farah Nasser", Role: payroll.RoleDirector},
	}
	if err := h.saveEmployees(ctx, team...); err != nil {
		return period, err
	}
	for _, emp := range team {
		if err := h.seedWeekdays(ctx, emp.ID, period, generic.Hours(8), -1); err != nil {
			return period, err
		}
	}
	return period, nil
}

func (h *Handler) loadOvertimeScenario(ctx context.Context) (generic.Period, error) {
	period := h.lastCompletedPeriod()
	if err := h.saveEmployees(ctx,
		payroll.Employee{ID: "emp-201", Name: "Gabriel Costa", Role: payroll.RoleSupervisor},
		payroll.Employee{ID: "emp-202", Name: "Hana Sato", Role: payroll.RoleEmployee},
	); err != nil {
		return period, err
	}
	if err := h.seedWeekdays(ctx, "emp-201", period, generic.Hours(10), -1); err != nil {
		return period, err
	}
	if err := h.seedWeekdays(ctx, "emp-202", period, generic.Hours(8), -1); err != nil {
		return period, err
	}
	// A Saturday shift for emp-202 counts as worked hours like any other day.
	for _, d := range period.Days() {
		if d.IsWeekend() {
			return period, h.Ledger.Upsert(ctx, "emp-202", d, generic.Hours(6))
		}
	}
	return period, nil
}

func (h *Handler) loadLeaveMixScenario(ctx context.Context) (generic.Period, error) {
	period := h.lastCompletedPeriod()
	if err := h.saveEmployees(ctx,
		payroll.Employee{ID: "emp-301", Name: "Ines Moreau", Role: payroll.RoleEmployee},
		payroll.Employee{ID: "emp-302", Name: "Jamal Reed", Role: payroll.RoleSeniorManager},
	); err != nil {
		return period, err
	}

	// emp-301 works the first week, then takes a vacation across a weekend.
	var friday generic.TimePoint
	worked := 0
	for _, d := range period.Days() {
		if d.IsWeekend() {
			continue
		}
		if worked < 5 {
			if err := h.Ledger.Upsert(ctx, "emp-301", d, generic.Hours(8)); err != nil {
				return period, err
			}
			worked++
			continue
		}
		if d.Weekday() == time.Friday && friday.IsZero() {
			friday = d
		}
	}
	if friday.IsZero() {
		friday = period.End.AddDays(-3)
	}
	requests := []leave.Request{
		{
			ID: "leave-301-a", EmployeeID: "emp-301", Type: leave.TypeVacation,
			StartDate: friday, EndDate: friday.AddDays(3),
			Status: leave.StatusApproved, Reason: "Long weekend",
		},
		{
			ID: "leave-301-b", EmployeeID: "emp-301", Type: leave.TypeSick,
			StartDate: period.Start, EndDate: period.Start,
			Status: leave.StatusRejected, Reason: "Filed late",
		},
		{
			ID: "leave-302-a", EmployeeID: "emp-302", Type: leave.TypeMaternity,
			StartDate: period.Start.AddDays(-30), EndDate: period.End.AddDays(60),
			Status: leave.StatusApproved, Reason: "Maternity",
		},
	}
	for _, lr := range requests {
		if err := h.Backend.SaveLeaveRequest(ctx, lr); err != nil {
			return period, err
		}
	}
	return period, nil
}

func (h *Handler) saveEmployees(ctx context.Context, employees ...payroll.Employee) error {
	for _, emp := range employees {
		if err := h.Backend.SaveEmployee(ctx, emp); err != nil {
			return fmt.Errorf("save employee %s: %w", emp.ID, err)
		}
	}
	return nil
}

// seedWeekdays records hours on the first limit weekdays of period, or on
// all of them when limit < 0.
func (h *Handler) seedWeekdays(ctx context.Context, employeeID generic.EmployeeID, period generic.Period, hours decimal.Decimal, limit int) error {
	seeded := 0
	for _, d := range period.Days() {
		if d.IsWeekend() {
			continue
		}
		if limit >= 0 && seeded >= limit {
			break
		}
		if err := h.Ledger.Upsert(ctx, employeeID, d, hours); err != nil {
			return fmt.Errorf("seed hours for %s on %s: %w", employeeID, d, err)
		}
		seeded++
	}
	return nil
}
