// Package leave is the read-only contract with the Leave module.
// The payroll engine never writes leave requests; it only counts the hours
// approved requests contribute to a pay period.
package leave

import (
	"context"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

type Type string

const (
	TypeVacation  Type = "Vacation"
	TypeSick      Type = "Sick"
	TypeEmergency Type = "Emergency"
	TypeMaternity Type = "Maternity"
)

// Valid reports whether t is one of the known leave types.
func (t Type) Valid() bool {
	switch t {
	case TypeVacation, TypeSick, TypeEmergency, TypeMaternity:
		return true
	}
	return false
}

// CountsCalendarDays is true for leave that is paid on every calendar day,
// weekends included. Every other type counts weekdays only.
func (t Type) CountsCalendarDays() bool {
	return t == TypeMaternity
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Request is a leave request as owned by the Leave module.
type Request struct {
	ID         string             `json:"id"`
	EmployeeID generic.EmployeeID `json:"employee_id"`
	Type       Type               `json:"type"`
	StartDate  generic.TimePoint  `json:"start_date"`
	EndDate    generic.TimePoint  `json:"end_date"`
	Status     Status             `json:"status"`
	Reason     string             `json:"reason,omitempty"`
}

// Period returns the request's inclusive date range.
func (r Request) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

func (r Request) IsApproved() bool { return r.Status == StatusApproved }

// =============================================================================
// SOURCE - What the engine reads from the Leave module
// =============================================================================

// Source exposes an employee's leave requests in any status; filtering to
// approved requests is the reader's job.
type Source interface {
	LeaveRequests(ctx context.Context, employeeID generic.EmployeeID) ([]Request, error)
}
