/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Each scenario must load and generate payroll that shows the feature it
	is named after. Runs on SQLite so the scenarios double as integration
	tests of the store.
*/
package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// scenarioToday makes the last completed period 2025-03-01 - 2025-03-15,
// which has ten weekdays (80 standard hours).
var scenarioToday = generic.NewTimePoint(2025, 3, 20)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	ledger := generic.NewTimeLedger(store)
	ledger.Now = func() time.Time { return now }
	service := payroll.NewService(store, payroll.NewEngine(ledger, store, store, nil))
	service.Now = func() time.Time { return now }

	h := NewHandler(store, ledger, service)
	h.Today = func() generic.TimePoint { return scenarioToday }
	return h
}

func generateAll(t *testing.T, h *Handler, period generic.Period) map[generic.EmployeeID]payroll.Record {
	t.Helper()
	ctx := context.Background()
	employees, err := h.Backend.ListEmployees(ctx)
	require.NoError(t, err)

	ids := make([]generic.EmployeeID, len(employees))
	for i, emp := range employees {
		ids[i] = emp.ID
	}
	result, err := h.Service.GenerateBatch(ctx, payroll.GenerateRequest{
		EmployeeIDs: ids,
		PeriodLabel: period.Label(),
		Actor:       payroll.Actor{ID: "test", Role: payroll.ActorAdmin},
	})
	require.NoError(t, err)
	require.Empty(t, result.Failed)

	out := make(map[generic.EmployeeID]payroll.Record, len(result.Generated))
	for _, rec := range result.Generated {
		out[rec.EmployeeID] = rec
	}
	return out
}

func TestScenario_WorkedExample(t *testing.T) {
	// GIVEN: the worked-example scenario
	// WHEN: generating its period
	// THEN: the documented figures come out

	h := setupTestHandler(t)
	period, err := h.loadWorkedExampleScenario(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01 - 2025-01-15", period.Label())

	records := generateAll(t, h, period)
	rec := records["emp-001"]
	assert.Equal(t, "72", rec.HoursWorked.String())
	assert.Equal(t, "12383.04", rec.GrossPay.String())
	assert.Equal(t, "10132.32", rec.NetPay.String())
}

func TestScenario_TeamPeriod(t *testing.T) {
	h := setupTestHandler(t)
	period, err := h.loadTeamPeriodScenario(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01 - 2025-03-15", period.Label())

	records := generateAll(t, h, period)
	require.Len(t, records, 5)
	for id, rec := range records {
		assert.Equal(t, "80", rec.HoursWorked.String(), id)
		assert.True(t, rec.Breakdown.OvertimeHours.IsZero(), id)
		assert.NoError(t, rec.Validate(), id)
	}
	assert.True(t, records["emp-105"].NetPay.GreaterThan(records["emp-101"].NetPay))
}

func TestScenario_Overtime(t *testing.T) {
	h := setupTestHandler(t)
	period, err := h.loadOvertimeScenario(context.Background())
	require.NoError(t, err)

	records := generateAll(t, h, period)
	assert.Equal(t, "20", records["emp-201"].Breakdown.OvertimeHours.String())
	assert.Equal(t, "4344", records["emp-201"].Overtime.String())
	assert.Equal(t, "86", records["emp-202"].HoursWorked.String(), "Saturday shift counts")
	assert.Equal(t, "6", records["emp-202"].Breakdown.OvertimeHours.String())
}

func TestScenario_LeaveMix(t *testing.T) {
	h := setupTestHandler(t)
	period, err := h.loadLeaveMixScenario(context.Background())
	require.NoError(t, err)

	records := generateAll(t, h, period)

	// Five worked days plus the Friday of the long weekend; the weekend and
	// the rejected sick day add nothing.
	ines := records["emp-301"]
	assert.Equal(t, "40", ines.Breakdown.WorkedHours.String())
	assert.Equal(t, "8", ines.Breakdown.LeaveHours.String())

	// Maternity counts every calendar day of the period.
	jamal := records["emp-302"]
	assert.Equal(t, "120", jamal.Breakdown.LeaveHours.String())
	assert.Equal(t, "0", jamal.Breakdown.WorkedHours.String())
}

func TestScenario_AllScenariosLoadWithoutError(t *testing.T) {
	// GIVEN: All available scenarios
	// WHEN: Loading each scenario through the endpoint
	// THEN: None should error and the current scenario is reported

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			h := setupTestHandler(t)
			a := &testAPI{handler: h, router: NewRouter(h, RouterOptions{})}

			rec := a.do(t, "POST", "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: s.ID})
			require.Equal(t, 200, rec.Code, rec.Body.String())

			rec = a.do(t, "GET", "/api/scenarios/current", "", nil)
			require.Equal(t, 200, rec.Code)
			assert.Equal(t, s.ID, decode[ScenarioDTO](t, rec).ID)
		})
	}

	h := setupTestHandler(t)
	a := &testAPI{handler: h, router: NewRouter(h, RouterOptions{})}
	rec := a.do(t, "POST", "/api/scenarios/load", "", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, 400, rec.Code)
}
