/*
store.go - Persistence interface for the Time Ledger

PURPOSE:
  Defines the interface between the ledger logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  TimeStore: Per-employee-per-day worked hours (keyed upsert)

UPSERT CONTRACT:
  Unlike an append-only transaction log, worked hours have overwrite
  semantics: (EmployeeID, Date) is a unique key and a second write for the
  same key replaces the hours. Stores must enforce the key themselves
  (unique index / map key), not rely on callers.

ATOMIC BATCHES:
  UpsertTimeBatch() is all-or-nothing. A bulk entry for 30 employees either
  lands completely or not at all.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level ledger using TimeStore
  - payroll/store.go: Payroll record and edit-log persistence
*/
package generic

import "context"

// =============================================================================
// TIME STORE - Interface for worked-hours persistence
// =============================================================================

type TimeStore interface {
	// UpsertTime inserts or replaces the record for (EmployeeID, Date).
	UpsertTime(ctx context.Context, rec TimeRecord) error

	// UpsertTimeBatch upserts multiple records atomically.
	UpsertTimeBatch(ctx context.Context, recs []TimeRecord) error

	// DeleteTime removes the record for (employeeID, date). Missing is not an error.
	DeleteTime(ctx context.Context, employeeID EmployeeID, date TimePoint) error

	// LoadTime returns records with Date in [from, to], ordered by date.
	LoadTime(ctx context.Context, employeeID EmployeeID, from, to TimePoint) ([]TimeRecord, error)
}
