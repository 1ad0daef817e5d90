package payroll

import (
	"context"
	"time"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// STORE - Persistence of payroll records and their edit logs
// =============================================================================

// RecordFilter narrows ListRecords. Zero values match everything.
type RecordFilter struct {
	EmployeeID generic.EmployeeID
	Period     *generic.Period
	Status     Status
}

// Store owns PayrollRecord and EditLog persistence.
//
// UNIQUENESS:
//   At most one record per (EmployeeID, PayPeriodStart, PayPeriodEnd).
//   InsertRecord returns generic.ErrDuplicateRecord on a second insert.
//
// ATOMICITY:
//   UpdateRecord writes the record and appends its logs in one unit. If the
//   logs cannot be written, the record must stay unchanged.
type Store interface {
	InsertRecord(ctx context.Context, rec Record) error

	// GetRecord returns generic.ErrRecordNotFound for unknown ids.
	GetRecord(ctx context.Context, id string) (Record, error)

	// FindRecord looks up the record of (employeeID, period); ok is false if none.
	FindRecord(ctx context.Context, employeeID generic.EmployeeID, period generic.Period) (rec Record, ok bool, err error)

	// ListRecords returns matches ordered by period start, then employee.
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error)

	UpdateRecord(ctx context.Context, rec Record, logs []EditLog) error

	// EditLogs returns the record's logs ordered by Sequence.
	EditLogs(ctx context.Context, payrollID string) ([]EditLog, error)

	// DeleteRecordsCreatedBefore deletes records with CreatedAt < cutoff and
	// their edit logs, returning the deleted record ids.
	DeleteRecordsCreatedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}
