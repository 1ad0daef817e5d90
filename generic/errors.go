/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Domain packages wrap these with context; callers branch with errors.Is.

ERROR CATEGORIES:
  1. Input errors - malformed dates, periods, hours, amounts
  2. Lookup errors - unknown employee or payroll record
  3. Policy errors - permissions and batch ceilings
  4. Integrity errors - duplicate records, altered edit history

None of these are fatal: every one is recoverable at the call site and the
core never retries on its own.

SEE ALSO:
  - payroll/errors.go: Structured payroll errors wrapping these sentinels
  - api/handlers.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when the employee directory has no entry.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidDateRange is returned for malformed dates or end before start.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidPeriodFormat is returned when a period label cannot be parsed.
	ErrInvalidPeriodFormat = errors.New("invalid period format")

	// ErrBatchTooLarge is returned when a restricted role exceeds its batch ceiling.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrRecordNotFound is returned when a payroll record id is unknown.
	ErrRecordNotFound = errors.New("payroll record not found")

	// ErrInsufficientPermissions is returned when the caller's role may not
	// perform the operation.
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// ErrInvalidHours is returned for negative worked hours.
	ErrInvalidHours = errors.New("invalid hours")

	// ErrInvalidEntry is returned when a ledger entry lacks an employee or date.
	ErrInvalidEntry = errors.New("invalid time entry")

	// ErrDuplicateRecord is returned by stores when (employee, period) already
	// has a payroll record.
	ErrDuplicateRecord = errors.New("payroll record already exists for period")

	// ErrInvalidAmount is returned for negative money edits.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidStatusTransition is returned for backwards status moves.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrTamperedHistory is returned when an edit-log hash chain does not verify.
	ErrTamperedHistory = errors.New("edit history failed verification")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// EmployeeNotFoundError names the employee the directory could not resolve.
type EmployeeNotFoundError struct {
	EmployeeID EmployeeID
}

func (e *EmployeeNotFoundError) Error() string {
	return fmt.Sprintf("employee not found: %s", e.EmployeeID)
}

func (e *EmployeeNotFoundError) Unwrap() error {
	return ErrEmployeeNotFound
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidPeriodFormat) ||
		errors.Is(err, ErrBatchTooLarge) ||
		errors.Is(err, ErrInvalidHours) ||
		errors.Is(err, ErrInvalidEntry) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidStatusTransition)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRecordNotFound)
}

// IsForbidden returns true if the caller lacked the role for the operation.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrInsufficientPermissions)
}

// IsConflict returns true for uniqueness violations.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRecord)
}
