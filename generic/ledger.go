/*
ledger.go - Time Ledger of worked hours

PURPOSE:
  The Time Ledger is the source of worked hours for payroll computation.
  It is shared: the attendance module writes to it when a day closes, admins
  write to it by manual entry, and the payroll engine reads from it.

CRITICAL INVARIANTS:
  1. UNIQUE: At most one record per (EmployeeID, Date)
  2. OVERWRITE: A second write replaces hours, it never adds to them
  3. NON-NEGATIVE: Hours below zero are rejected
  4. SERIALIZED: Writers racing on the same (EmployeeID, Date) are queued

LATE ATTENDANCE:
  A completed day is upserted even when payroll for its period was already
  generated. Generated payroll records are NOT recomputed here; correcting
  them is a manual edit on the payroll record. Keeping this package unaware
  of payroll is what keeps generated records stable.

EXAMPLE FLOW:
  1. Manual entry Mar 3: 6h           -> ledger Mar 3 = 6h
  2. Attendance closes Mar 3 with 8h  -> ledger Mar 3 = 8h (replaced)
  3. SumInRange(Mar 1..15)            -> 8h

SEE ALSO:
  - store.go: Low-level persistence interface
  - payroll/engine.go: The reader of SumInRange
*/
package generic

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIME LEDGER
// =============================================================================

type TimeLedger struct {
	Store TimeStore
	Now   func() time.Time

	locks KeyedMutex
}

func NewTimeLedger(store TimeStore) *TimeLedger {
	return &TimeLedger{Store: store, Now: time.Now}
}

// Upsert records hours for one employee-day, replacing any previous value.
func (l *TimeLedger) Upsert(ctx context.Context, employeeID EmployeeID, date TimePoint, hours decimal.Decimal) error {
	return l.upsert(ctx, employeeID, date, hours, SourceManual)
}

func (l *TimeLedger) upsert(ctx context.Context, employeeID EmployeeID, date TimePoint, hours decimal.Decimal, source RecordSource) error {
	rec, err := l.newRecord(employeeID, date, hours, source)
	if err != nil {
		return err
	}

	unlock := l.locks.Lock(timeLockKey(employeeID, date))
	defer unlock()

	if err := l.Store.UpsertTime(ctx, rec); err != nil {
		return fmt.Errorf("upsert time record %s/%s: %w", employeeID, date, err)
	}
	return nil
}

// BulkUpsert applies Upsert semantics to a batch sharing one date.
// The batch is validated up front and written atomically. When an employee
// appears twice, the later entry wins.
func (l *TimeLedger) BulkUpsert(ctx context.Context, entries []TimeEntry, date TimePoint) error {
	byEmployee := make(map[EmployeeID]TimeRecord, len(entries))
	for _, e := range entries {
		rec, err := l.newRecord(e.EmployeeID, date, e.Hours, SourceManual)
		if err != nil {
			return err
		}
		byEmployee[e.EmployeeID] = rec
	}
	if len(byEmployee) == 0 {
		return nil
	}

	ids := make([]string, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, string(id))
	}
	// Fixed lock order prevents two overlapping batches from deadlocking.
	sort.Strings(ids)

	recs := make([]TimeRecord, 0, len(ids))
	for _, id := range ids {
		unlock := l.locks.Lock(timeLockKey(EmployeeID(id), date))
		defer unlock()
		recs = append(recs, byEmployee[EmployeeID(id)])
	}

	if err := l.Store.UpsertTimeBatch(ctx, recs); err != nil {
		return fmt.Errorf("bulk upsert %d time records for %s: %w", len(recs), date, err)
	}
	return nil
}

// Delete removes the employee-day record, if any.
func (l *TimeLedger) Delete(ctx context.Context, employeeID EmployeeID, date TimePoint) error {
	unlock := l.locks.Lock(timeLockKey(employeeID, date))
	defer unlock()
	return l.Store.DeleteTime(ctx, employeeID, date)
}

// Records returns the employee's records inside p, ordered by date.
func (l *TimeLedger) Records(ctx context.Context, employeeID EmployeeID, p Period) ([]TimeRecord, error) {
	return l.Store.LoadTime(ctx, employeeID, p.Start, p.End)
}

// SumInRange totals worked hours for the employee over p (inclusive).
func (l *TimeLedger) SumInRange(ctx context.Context, employeeID EmployeeID, p Period) (decimal.Decimal, error) {
	recs, err := l.Store.LoadTime(ctx, employeeID, p.Start, p.End)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(r.HoursWorked)
	}
	return total, nil
}

// ReportCompletedDay is the attendance module's inbound call. Days with only
// one punch or with no hours are ignored and reported as not applied.
func (l *TimeLedger) ReportCompletedDay(ctx context.Context, day CompletedDay) (bool, error) {
	if !day.Complete() {
		return false, nil
	}
	if err := l.upsert(ctx, day.EmployeeID, day.Date, day.TotalHours, SourceAttendance); err != nil {
		return false, err
	}
	return true, nil
}

func (l *TimeLedger) newRecord(employeeID EmployeeID, date TimePoint, hours decimal.Decimal, source RecordSource) (TimeRecord, error) {
	if employeeID == "" || date.IsZero() {
		return TimeRecord{}, fmt.Errorf("%w: employee and date are required", ErrInvalidEntry)
	}
	if hours.IsNegative() {
		return TimeRecord{}, fmt.Errorf("%w: %s for %s on %s", ErrInvalidHours, hours, employeeID, date)
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	return TimeRecord{
		EmployeeID:  employeeID,
		Date:        date,
		HoursWorked: hours,
		Source:      source,
		UpdatedAt:   now().UTC(),
	}, nil
}
