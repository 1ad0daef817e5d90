package payroll_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// GENERATION
// =============================================================================

func TestGenerateBatch_IsIdempotent(t *testing.T) {
	// GIVEN: a batch generated once
	// WHEN: the same batch is generated again
	// THEN: nothing new is created and the stored record is unchanged

	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()

	first := f.generate(t, admin, januaryLabel, "emp-1")
	require.Len(t, first.Generated, 1)
	assert.Empty(t, first.Skipped)

	second := f.generate(t, admin, januaryLabel, "emp-1")
	assert.Empty(t, second.Generated)
	assert.Equal(t, []generic.EmployeeID{"emp-1"}, second.Skipped)

	records, err := f.service.ListRecords(ctx, payroll.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first.Generated[0].ID, records[0].ID)
	assertDecimal(t, "10132.32", records[0].NetPay)
	assert.Equal(t, "u-admin", records[0].CreatedBy)
}

func TestGenerateBatch_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)

	result := f.generate(t, hr, januaryLabel, "emp-1", "ghost", "emp-1")

	assert.Len(t, result.Generated, 1, "duplicate ids are generated once")
	require.Contains(t, result.Failed, generic.EmployeeID("ghost"))
	assert.Contains(t, result.Failed["ghost"], "employee not found")
}

func TestGenerateBatch_ConcurrentCallsCreateOneRecord(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.GenerateBatch(context.Background(), payroll.GenerateRequest{
				EmployeeIDs: []generic.EmployeeID{"emp-1"},
				PeriodLabel: januaryLabel,
				Actor:       admin,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := f.service.ListRecords(context.Background(), payroll.RecordFilter{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestGenerateBatch_BatchLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := func(n int) []generic.EmployeeID {
		out := make([]generic.EmployeeID, n)
		for i := range out {
			out[i] = generic.EmployeeID(fmt.Sprintf("emp-%02d", i))
			f.addEmployee(t, out[i], payroll.RoleEmployee)
		}
		return out
	}

	// Restricted role: 11 is over the ceiling of 10.
	_, err := f.service.GenerateBatch(ctx, payroll.GenerateRequest{
		EmployeeIDs: ids(11), PeriodLabel: januaryLabel, Actor: officer,
	})
	assert.ErrorIs(t, err, generic.ErrBatchTooLarge)
	var tooLarge *payroll.BatchTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, 11, tooLarge.Size)
	assert.Equal(t, 10, tooLarge.Limit)

	records, _ := f.service.ListRecords(ctx, payroll.RecordFilter{})
	assert.Empty(t, records, "rejected batch creates nothing")

	// Restricted role at the ceiling.
	result, err := f.service.GenerateBatch(ctx, payroll.GenerateRequest{
		EmployeeIDs: ids(10), PeriodLabel: januaryLabel, Actor: officer,
	})
	require.NoError(t, err)
	assert.Len(t, result.Generated, 10)

	// Unrestricted role.
	result, err = f.service.GenerateBatch(ctx, payroll.GenerateRequest{
		EmployeeIDs: ids(40), PeriodLabel: "2025-01-16 - 2025-01-31", Actor: hr,
	})
	require.NoError(t, err)
	assert.Len(t, result.Generated, 40)
}

func TestGenerateBatch_Permissions(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)

	for _, actor := range []payroll.Actor{staff, {ID: "anon"}} {
		_, err := f.service.GenerateBatch(context.Background(), payroll.GenerateRequest{
			EmployeeIDs: []generic.EmployeeID{"emp-1"}, PeriodLabel: januaryLabel, Actor: actor,
		})
		assert.ErrorIs(t, err, generic.ErrInsufficientPermissions, "role %q", actor.Role)
	}
}

func TestGenerateBatch_InvalidPeriodCheckedBeforeBatchSize(t *testing.T) {
	f := newFixture(t)
	ids := make([]generic.EmployeeID, 11)
	for i := range ids {
		ids[i] = generic.EmployeeID(fmt.Sprintf("emp-%d", i))
	}

	_, err := f.service.GenerateBatch(context.Background(), payroll.GenerateRequest{
		EmployeeIDs: ids, PeriodLabel: "2025-01-01 to 2025-01-15", Actor: officer,
	})
	assert.ErrorIs(t, err, generic.ErrInvalidPeriodFormat)
}

func TestGenerateBatch_RequestedPayDateIsReportedNotStored(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)

	result, err := f.service.GenerateBatch(context.Background(), payroll.GenerateRequest{
		EmployeeIDs: []generic.EmployeeID{"emp-1"},
		PeriodLabel: januaryLabel,
		PayDate:     "2025-01-15",
		Actor:       admin,
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", result.RequestedPayDate)
	require.Len(t, result.Generated, 1)
	assert.Equal(t, "2025-01-16", result.Generated[0].PayDate.String())
}

func TestGenerateBatch_LateAttendanceDoesNotChangeRecord(t *testing.T) {
	// GIVEN: a generated record
	// WHEN: attendance adds hours inside its period afterwards
	// THEN: the stored record keeps its figures; a fresh preview sees the hours

	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()

	rec := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]

	in := time.Date(2025, 1, 14, 8, 0, 0, 0, time.UTC)
	out := time.Date(2025, 1, 14, 16, 0, 0, 0, time.UTC)
	recorded, err := f.ledger.ReportCompletedDay(ctx, generic.CompletedDay{
		EmployeeID: "emp-1", Date: day(2025, 1, 14), TimeIn: &in, TimeOut: &out, TotalHours: generic.Hours(8),
	})
	require.NoError(t, err)
	require.True(t, recorded)

	stored, err := f.service.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assertDecimal(t, "72", stored.HoursWorked)
	assertDecimal(t, "10132.32", stored.NetPay)

	preview, err := f.service.Preview(ctx, "emp-1", "2025-01-01", "2025-01-15", admin)
	require.NoError(t, err)
	assertDecimal(t, "80", preview.HoursWorked)

	again := f.generate(t, admin, januaryLabel, "emp-1")
	assert.Empty(t, again.Generated, "regeneration does not recompute")
}

// =============================================================================
// EDITS
// =============================================================================

func TestEditRecord_LogsEachChangedField(t *testing.T) {
	// GIVEN: a record with basicPay set to 10000
	// WHEN: basicPay is edited to 12000
	// THEN: exactly one log entry records 10000 -> 12000 with actor and reason

	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()
	rec := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]

	ten := dec("10000")
	_, err := f.service.EditRecord(ctx, rec.ID, payroll.RecordUpdate{BasicPay: &ten}, "contract rate", hr)
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 1, 21, 9, 30, 0, 0, time.UTC))
	twelve := dec("12000")
	result, err := f.service.EditRecord(ctx, rec.ID, payroll.RecordUpdate{BasicPay: &twelve}, "raise approved", admin)
	require.NoError(t, err)

	require.Len(t, result.Logs, 1)
	l := result.Logs[0]
	assert.Equal(t, payroll.FieldBasicPay, l.FieldChanged)
	assertDecimal(t, "10000", l.OldValue)
	assertDecimal(t, "12000", l.NewValue)
	assert.Equal(t, "u-admin", l.EditedBy)
	assert.Equal(t, "raise approved", l.Reason)
	assert.Equal(t, 2, l.Sequence)
	assert.True(t, l.EditedAt.Equal(time.Date(2025, 1, 21, 9, 30, 0, 0, time.UTC)))

	// Totals follow; statutory deductions stay as generated.
	assertDecimal(t, "15000", result.Record.GrossPay)
	assertDecimal(t, "2250.72", result.Record.Deductions.TotalDeductions)
	assertDecimal(t, "12749.28", result.Record.NetPay)
	assert.Equal(t, payroll.StatusPending, result.Record.Status)

	history, err := f.service.EditHistory(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.NoError(t, f.service.VerifyHistory(ctx, rec.ID))
}

func TestEditRecord_MultipleFields(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()
	rec := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]

	commissions := dec("500")
	loans := dec("200")
	result, err := f.service.EditRecord(ctx, rec.ID,
		payroll.RecordUpdate{Commissions: &commissions, Loans: &loans}, "", hr)
	require.NoError(t, err)

	require.Len(t, result.Logs, 2)
	assert.Equal(t, payroll.FieldCommissions, result.Logs[0].FieldChanged)
	assert.Equal(t, payroll.FieldLoans, result.Logs[1].FieldChanged)
	assert.Equal(t, "", result.Logs[0].Reason, "empty reason is kept")

	assertDecimal(t, "12883.04", result.Record.GrossPay)
	assertDecimal(t, "2450.72", result.Record.Deductions.TotalDeductions)
	assertDecimal(t, "10432.32", result.Record.NetPay)
	assert.Equal(t, 2, result.Record.EditCount)
}

func TestEditRecord_NoChangeWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()
	rec := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]

	same := dec("9383.04")
	result, err := f.service.EditRecord(ctx, rec.ID, payroll.RecordUpdate{BasicPay: &same}, "noop", admin)
	require.NoError(t, err)
	assert.Empty(t, result.Logs)

	history, err := f.service.EditHistory(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEditRecord_Rejections(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()
	rec := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]

	amount := dec("100")
	negative := dec("-100")

	_, err := f.service.EditRecord(ctx, rec.ID, payroll.RecordUpdate{Incentives: &amount}, "", officer)
	assert.ErrorIs(t, err, generic.ErrInsufficientPermissions)

	_, err = f.service.EditRecord(ctx, rec.ID, payroll.RecordUpdate{Incentives: &negative}, "", admin)
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	_, err = f.service.EditRecord(ctx, "missing", payroll.RecordUpdate{Incentives: &amount}, "", admin)
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)

	stored, err := f.service.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assertDecimal(t, "0", stored.Incentives)
	assert.Equal(t, 0, stored.EditCount)
}

// =============================================================================
// AUDIT CHAIN
// =============================================================================

func TestVerifyChain_DetectsTampering(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()
	rec := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]

	for _, v := range []string{"10000", "11000", "12000"} {
		amount := dec(v)
		_, err := f.service.EditRecord(ctx, rec.ID, payroll.RecordUpdate{BasicPay: &amount}, "step", admin)
		require.NoError(t, err)
	}

	stored, err := f.service.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	logs, err := f.service.EditHistory(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.NoError(t, payroll.VerifyChain(stored, logs))

	t.Run("altered value", func(t *testing.T) {
		tampered := append([]payroll.EditLog(nil), logs...)
		tampered[1].NewValue = dec("99999")
		err := payroll.VerifyChain(stored, tampered)
		assert.ErrorIs(t, err, generic.ErrTamperedHistory)
		var te *payroll.TamperedHistoryError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 1, te.Index)
	})

	t.Run("removed last entry", func(t *testing.T) {
		err := payroll.VerifyChain(stored, logs[:2])
		assert.ErrorIs(t, err, generic.ErrTamperedHistory)
	})

	t.Run("removed middle entry", func(t *testing.T) {
		err := payroll.VerifyChain(stored, []payroll.EditLog{logs[0], logs[2]})
		assert.ErrorIs(t, err, generic.ErrTamperedHistory)
	})

	t.Run("reordered", func(t *testing.T) {
		err := payroll.VerifyChain(stored, []payroll.EditLog{logs[1], logs[0], logs[2]})
		assert.ErrorIs(t, err, generic.ErrTamperedHistory)
	})
}

// =============================================================================
// STATUS
// =============================================================================

func TestSetStatus_ForwardOnly(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()
	rec := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]

	updated, err := f.service.SetStatus(ctx, rec.ID, payroll.StatusProcessed, hr)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusProcessed, updated.Status)

	_, err = f.service.SetStatus(ctx, rec.ID, payroll.StatusPending, hr)
	assert.ErrorIs(t, err, generic.ErrInvalidStatusTransition)

	_, err = f.service.SetStatus(ctx, rec.ID, payroll.Status("Void"), hr)
	assert.ErrorIs(t, err, generic.ErrInvalidStatusTransition)

	_, err = f.service.SetStatus(ctx, rec.ID, payroll.StatusPaid, officer)
	assert.ErrorIs(t, err, generic.ErrInsufficientPermissions)

	updated, err = f.service.SetStatus(ctx, rec.ID, payroll.StatusPaid, admin)
	require.NoError(t, err)
	assertDecimal(t, "10132.32", updated.NetPay, "amounts untouched")

	history, err := f.service.EditHistory(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "status changes are not field edits")
	assert.NoError(t, f.service.VerifyHistory(ctx, rec.ID))
}

// =============================================================================
// RETENTION
// =============================================================================

func TestRetentionSweep_RemovesOldRecordsAndLogs(t *testing.T) {
	// GIVEN: a record created in January and edited
	// WHEN: a batch is generated four months later
	// THEN: the January record and its logs are gone; the new one stays

	f := newFixture(t)
	f.workedExample(t)
	f.addEmployee(t, "emp-2", payroll.RoleManager)
	ctx := context.Background()

	old := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]
	amount := dec("10000")
	_, err := f.service.EditRecord(ctx, old.ID, payroll.RecordUpdate{BasicPay: &amount}, "", admin)
	require.NoError(t, err)

	f.clock.Set(time.Date(2025, 5, 25, 10, 0, 0, 0, time.UTC))
	recent := f.generate(t, admin, "2025-05-01 - 2025-05-15", "emp-2")
	require.Len(t, recent.Generated, 1)
	assert.Equal(t, 1, recent.Swept)

	_, err = f.service.GetRecord(ctx, old.ID)
	assert.ErrorIs(t, err, generic.ErrRecordNotFound)
	logs, err := f.store.EditLogs(ctx, old.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	_, err = f.service.GetRecord(ctx, recent.Generated[0].ID)
	assert.NoError(t, err)
}

func TestRetentionSweep_KeepsRecordsInsideWindow(t *testing.T) {
	f := newFixture(t)
	f.workedExample(t)
	ctx := context.Background()

	rec := f.generate(t, admin, januaryLabel, "emp-1").Generated[0]

	f.clock.Set(time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC))
	result, err := f.service.RetentionSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Deleted)
	assert.True(t, result.Cutoff.Equal(time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC)))

	_, err = f.service.GetRecord(ctx, rec.ID)
	assert.NoError(t, err)

	// Once past three months the record goes.
	f.clock.Set(time.Date(2025, 4, 21, 10, 0, 0, 0, time.UTC))
	result, err = f.service.RetentionSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, result.DeletedIDs)
}
