/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the Time Ledger, the pay calendar and the payroll Service via REST
  API. Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Pay calendar:
    GET    /api/periods?count=N                 Next N semi-monthly periods

  Payroll:
    POST   /api/payroll/generate                Generate a batch for a period
    POST   /api/payroll/preview                 Compute without saving
    GET    /api/payroll                         List (employee_id, period, status)
    GET    /api/payroll/{id}                    One record
    PATCH  /api/payroll/{id}                    Edit amounts (logged)
    POST   /api/payroll/{id}/status             Move status forward
    GET    /api/payroll/{id}/edits              Edit history
    GET    /api/payroll/{id}/edits/verify       Check the edit-log hash chain

  Time Ledger:
    PUT    /api/time-records                    Upsert one employee-day
    POST   /api/time-records/bulk               Upsert many employees, one day
    DELETE /api/time-records/{employeeID}/{date}
    GET    /api/employees/{id}/time-records     Records in ?from=&to=
    POST   /api/attendance/completed-days       Attendance hand-off; time_in and
                                                time_out are optional but must
                                                come together

  Directory and leave (collaborator replicas):
    GET|POST /api/employees
    GET|POST /api/leave-requests

  Admin:
    POST   /api/admin/retention                 Run the retention sweep now

ACTOR:
  The caller is identified by the X-Actor-ID and X-Actor-Role headers, set
  by the authenticating gateway in front of this service.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Role not permitted
  - 404: Employee or record not found
  - 409: Duplicate record, tampered history
  - 422: Batch larger than the role allows
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"

	defaultPeriodCount = 6
	maxPeriodCount     = 48
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Backend is the storage the handlers need beyond the payroll Service:
// the employee directory and leave replicas, plus a reset for demos.
type Backend interface {
	payroll.EmployeeDirectory
	leave.Source
	SaveEmployee(ctx context.Context, emp payroll.Employee) error
	ListEmployees(ctx context.Context) ([]payroll.Employee, error)
	SaveLeaveRequest(ctx context.Context, r leave.Request) error
	ListLeaveRequests(ctx context.Context) ([]leave.Request, error)
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Backend Backend
	Ledger  *generic.TimeLedger
	Service *payroll.Service
	Logger  *slog.Logger

	// Today is the pay calendar's notion of the current day.
	Today func() generic.TimePoint

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(backend Backend, ledger *generic.TimeLedger, service *payroll.Service) *Handler {
	return &Handler{
		Backend: backend,
		Ledger:  ledger,
		Service: service,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Today:   generic.Today,
	}
}

func actorFromRequest(r *http.Request) payroll.Actor {
	return payroll.Actor{
		ID:   strings.TrimSpace(r.Header.Get(HeaderActorID)),
		Role: payroll.ActorRole(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole)))),
	}
}

// =============================================================================
// PAY CALENDAR
// =============================================================================

// ListPeriods returns the next pay periods.
// GET /api/periods?count=N
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	count := defaultPeriodCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid count", err)
			return
		}
		count = min(n, maxPeriodCount)
	}
	writeJSON(w, http.StatusOK, generic.NextPeriods(h.Today(), count))
}

// =============================================================================
// PAYROLL
// =============================================================================

// GeneratePayroll generates records for a batch of employees.
// POST /api/payroll/generate
func (h *Handler) GeneratePayroll(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ids := make([]generic.EmployeeID, len(req.EmployeeIDs))
	for i, id := range req.EmployeeIDs {
		ids[i] = generic.EmployeeID(id)
	}

	result, err := h.Service.GenerateBatch(r.Context(), payroll.GenerateRequest{
		EmployeeIDs: ids,
		PeriodLabel: req.Period,
		PayDate:     req.PayDate,
		Actor:       actorFromRequest(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PreviewPayroll computes one record without saving it.
// POST /api/payroll/preview
func (h *Handler) PreviewPayroll(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Service.Preview(r.Context(), generic.EmployeeID(req.EmployeeID),
		req.PeriodStart, req.PeriodEnd, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListPayroll lists records.
// GET /api/payroll?employee_id=&period=&status=
func (h *Handler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := payroll.RecordFilter{
		EmployeeID: generic.EmployeeID(q.Get("employee_id")),
		Status:     payroll.Status(q.Get("status")),
	}
	if label := q.Get("period"); label != "" {
		p, err := generic.ParsePeriodLabel(label)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		filter.Period = &p
	}

	records, err := h.Service.ListRecords(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetPayroll returns one record.
// GET /api/payroll/{id}
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// EditPayroll changes editable amounts of a record.
// PATCH /api/payroll/{id}
func (h *Handler) EditPayroll(w http.ResponseWriter, r *http.Request) {
	var req EditRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.RecordUpdate.IsEmpty() {
		writeError(w, http.StatusBadRequest, "No editable field given", nil)
		return
	}

	result, err := h.Service.EditRecord(r.Context(), chi.URLParam(r, "id"),
		req.RecordUpdate, req.Reason, actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SetPayrollStatus moves a record to Processed or Paid.
// POST /api/payroll/{id}/status
func (h *Handler) SetPayrollStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Service.SetStatus(r.Context(), chi.URLParam(r, "id"),
		payroll.Status(req.Status), actorFromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListEdits returns a record's edit history.
// GET /api/payroll/{id}/edits
func (h *Handler) ListEdits(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Service.EditHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// VerifyEdits checks a record's edit-log chain. A broken chain is reported
// in the body, not as an HTTP error.
// GET /api/payroll/{id}/edits/verify
func (h *Handler) VerifyEdits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.Service.GetRecord(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dto := VerifyHistoryDTO{PayrollID: id, Valid: true, EditCount: rec.EditCount}
	if err := h.Service.VerifyHistory(r.Context(), id); err != nil {
		if !errors.Is(err, generic.ErrTamperedHistory) {
			writeServiceError(w, err)
			return
		}
		h.Logger.Warn("edit history failed verification", "payrollId", id, "err", err)
		dto.Valid = false
		dto.Problem = err.Error()
	}
	writeJSON(w, http.StatusOK, dto)
}

// RunRetention runs the retention sweep immediately.
// POST /api/admin/retention
func (h *Handler) RunRetention(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	if actor.Role != payroll.ActorAdmin && actor.Role != payroll.ActorSystem {
		writeServiceError(w, &payroll.PermissionError{Role: actor.Role, Operation: "run retention"})
		return
	}

	result, err := h.Service.RetentionSweep(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// TIME LEDGER
// =============================================================================

// UpsertTime sets one employee's hours for one day.
// PUT /api/time-records
func (h *Handler) UpsertTime(w http.ResponseWriter, r *http.Request) {
	var req UpsertTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Ledger.Upsert(r.Context(), generic.EmployeeID(req.EmployeeID), date, req.HoursWorked); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkUpsertTime sets hours for many employees on one day, all or nothing.
// POST /api/time-records/bulk
func (h *Handler) BulkUpsertTime(w http.ResponseWriter, r *http.Request) {
	var req BulkTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Ledger.BulkUpsert(r.Context(), req.Entries, date); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTime removes one employee-day record.
// DELETE /api/time-records/{employeeID}/{date}
func (h *Handler) DeleteTime(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Ledger.Delete(r.Context(), generic.EmployeeID(chi.URLParam(r, "employeeID")), date); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEmployeeTime returns an employee's records in a date range,
// defaulting to the current pay period.
// GET /api/employees/{id}/time-records?from=&to=
func (h *Handler) ListEmployeeTime(w http.ResponseWriter, r *http.Request) {
	period := generic.SemiMonthlyPeriodFor(h.Today())
	q := r.URL.Query()
	if q.Get("from") != "" || q.Get("to") != "" {
		from, err1 := generic.ParseDate(q.Get("from"))
		to, err2 := generic.ParseDate(q.Get("to"))
		if err := errors.Join(err1, err2); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from/to (use YYYY-MM-DD)", err)
			return
		}
		p, err := generic.NewPeriod(from, to)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		period = p
	}

	records, err := h.Ledger.Records(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")), period)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []generic.TimeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// ReportCompletedDay receives a finished attendance day.
// POST /api/attendance/completed-days
func (h *Handler) ReportCompletedDay(w http.ResponseWriter, r *http.Request) {
	var day generic.CompletedDay
	if err := json.NewDecoder(r.Body).Decode(&day); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	recorded, err := h.Ledger.ReportCompletedDay(r.Context(), day)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CompletedDayResponse{Recorded: recorded})
}

// =============================================================================
// EMPLOYEES AND LEAVE
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Backend.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	emp := payroll.Employee{
		ID:   generic.EmployeeID(req.ID),
		Name: req.Name,
		Role: payroll.Role(req.Role),
	}
	if err := h.Backend.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

// ListLeaveRequests returns all replicated leave requests, or one
// employee's with ?employee_id=.
func (h *Handler) ListLeaveRequests(w http.ResponseWriter, r *http.Request) {
	var (
		requests []leave.Request
		err      error
	)
	if id := r.URL.Query().Get("employee_id"); id != "" {
		requests, err = h.Backend.LeaveRequests(r.Context(), generic.EmployeeID(id))
	} else {
		requests, err = h.Backend.ListLeaveRequests(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave requests", err)
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// CreateLeaveRequest stores a leave request replicated from the Leave module.
func (h *Handler) CreateLeaveRequest(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequestInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	lr, err := req.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid leave request", err)
		return
	}
	if err := h.Backend.SaveLeaveRequest(r.Context(), lr); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leave request", err)
		return
	}
	writeJSON(w, http.StatusCreated, lr)
}

func (in LeaveRequestInput) toRequest() (leave.Request, error) {
	start, err := generic.ParseDate(in.StartDate)
	if err != nil {
		return leave.Request{}, err
	}
	end, err := generic.ParseDate(in.EndDate)
	if err != nil {
		return leave.Request{}, err
	}
	if _, err := generic.NewPeriod(start, end); err != nil {
		return leave.Request{}, err
	}
	if in.EmployeeID == "" {
		return leave.Request{}, errors.New("employee_id is required")
	}

	lr := leave.Request{
		ID:         in.ID,
		EmployeeID: generic.EmployeeID(in.EmployeeID),
		Type:       leave.Type(in.Type),
		StartDate:  start,
		EndDate:    end,
		Status:     leave.Status(in.Status),
		Reason:     in.Reason,
	}
	if lr.Status == "" {
		lr.Status = leave.StatusPending
	}
	if !lr.Type.Valid() {
		return leave.Request{}, errors.New("unknown leave type " + strconv.Quote(in.Type))
	}
	if !lr.Status.Valid() {
		return leave.Request{}, errors.New("unknown leave status " + strconv.Quote(in.Status))
	}
	if lr.ID == "" {
		lr.ID = uuid.NewString()
	}
	return lr, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case generic.IsForbidden(err):
		writeError(w, http.StatusForbidden, "Insufficient permissions", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case generic.IsConflict(err), errors.Is(err, generic.ErrTamperedHistory):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, generic.ErrBatchTooLarge):
		writeError(w, http.StatusUnprocessableEntity, "Batch too large", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
