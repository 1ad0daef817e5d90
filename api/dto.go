/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types that are
  already JSON-shaped (payroll.Record, payroll.EditLog, leave.Request) are
  returned as they are; these types cover request bodies and wrappers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CreateEmployeeRequest registers or updates a directory entry.
type CreateEmployeeRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// UpsertTimeRequest sets one employee's hours for one day.
type UpsertTimeRequest struct {
	EmployeeID  string          `json:"employee_id"`
	Date        string          `json:"date"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
}

// BulkTimeRequest sets hours for many employees on one day.
type BulkTimeRequest struct {
	Date    string              `json:"date"`
	Entries []generic.TimeEntry `json:"entries"`
}

type CompletedDayResponse struct {
	Recorded bool `json:"recorded"`
}

// LeaveRequestInput replicates a leave request from the Leave module.
type LeaveRequestInput struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
}

// GenerateRequestDTO asks for one batch of records.
type GenerateRequestDTO struct {
	EmployeeIDs []string `json:"employee_ids"`
	Period      string   `json:"period"`
	PayDate     string   `json:"pay_date"`
}

// PreviewRequest computes a record without saving it.
type PreviewRequest struct {
	EmployeeID  string `json:"employee_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// EditRecordRequest changes editable amounts of one record.
type EditRecordRequest struct {
	payroll.RecordUpdate
	Reason string `json:"reason"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

// VerifyHistoryDTO reports the outcome of an edit-log chain check.
type VerifyHistoryDTO struct {
	PayrollID string `json:"payroll_id"`
	Valid     bool   `json:"valid"`
	EditCount int    `json:"edit_count"`
	Problem   string `json:"problem,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
