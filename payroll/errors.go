package payroll

import (
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// STRUCTURED ERRORS - Unwrap to the generic sentinels
// =============================================================================

// BatchTooLargeError reports a batch above the actor role's ceiling.
type BatchTooLargeError struct {
	Role  ActorRole
	Size  int
	Limit int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch too large: role %s may submit at most %d employees, got %d",
		e.Role, e.Limit, e.Size)
}

func (e *BatchTooLargeError) Unwrap() error {
	return generic.ErrBatchTooLarge
}

// PermissionError reports a role outside the permitted set of an operation.
type PermissionError struct {
	Role      ActorRole
	Operation Operation
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("insufficient permissions: role %q may not %s", e.Role, e.Operation)
}

func (e *PermissionError) Unwrap() error {
	return generic.ErrInsufficientPermissions
}

// TamperedHistoryError points at the first edit-log entry that fails
// verification. Index is -1 when the chain head on the record does not match.
type TamperedHistoryError struct {
	PayrollID string
	Index     int
	Reason    string
}

func (e *TamperedHistoryError) Error() string {
	return fmt.Sprintf("edit history of %s failed verification at entry %d: %s",
		e.PayrollID, e.Index, e.Reason)
}

func (e *TamperedHistoryError) Unwrap() error {
	return generic.ErrTamperedHistory
}
