package payroll_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store   *memory.Store
	ledger  *generic.TimeLedger
	engine  *payroll.Engine
	service *payroll.Service
	clock   *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ledger := generic.NewTimeLedger(store)
	engine := payroll.NewEngine(ledger, store, store, nil)
	clock := &testClock{now: time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)}

	service := payroll.NewService(store, engine)
	service.Now = clock.Now
	ledger.Now = clock.Now

	return &fixture{store: store, ledger: ledger, engine: engine, service: service, clock: clock}
}

func day(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

var (
	admin   = payroll.Actor{ID: "u-admin", Role: payroll.ActorAdmin}
	hr      = payroll.Actor{ID: "u-hr", Role: payroll.ActorHRManager}
	officer = payroll.Actor{ID: "u-officer", Role: payroll.ActorPayrollOfficer}
	staff   = payroll.Actor{ID: "u-staff", Role: payroll.ActorEmployee}

	january      = generic.Period{Start: day(2025, 1, 1), End: day(2025, 1, 15)}
	januaryLabel = "2025-01-01 - 2025-01-15"
)

func (f *fixture) addEmployee(t *testing.T, id generic.EmployeeID, role payroll.Role) {
	t.Helper()
	require.NoError(t, f.store.SaveEmployee(context.Background(),
		payroll.Employee{ID: id, Name: "Employee " + string(id), Role: role}))
}

// workWeekdays records h hours on the first n weekdays of p (all when n < 0).
func (f *fixture) workWeekdays(t *testing.T, id generic.EmployeeID, p generic.Period, h float64, n int) {
	t.Helper()
	for _, d := range p.Days() {
		if d.IsWeekend() {
			continue
		}
		if n == 0 {
			return
		}
		require.NoError(t, f.ledger.Upsert(context.Background(), id, d, generic.Hours(h)))
		n--
	}
}

// workedExample sets up emp-1 as an Employee with 72 hours in January's
// first period: gross 12,383.04 and net 10,132.32.
func (f *fixture) workedExample(t *testing.T) {
	t.Helper()
	f.addEmployee(t, "emp-1", payroll.RoleEmployee)
	f.workWeekdays(t, "emp-1", january, 8, 9)
}

func (f *fixture) generate(t *testing.T, actor payroll.Actor, label string, ids ...generic.EmployeeID) *payroll.BatchResult {
	t.Helper()
	result, err := f.service.GenerateBatch(context.Background(), payroll.GenerateRequest{
		EmployeeIDs: ids,
		PeriodLabel: label,
		Actor:       actor,
	})
	require.NoError(t, err)
	return result
}
