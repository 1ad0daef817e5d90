// Package memory provides in-memory stores for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store implements generic.TimeStore, payroll.Store, payroll.EmployeeDirectory
// and leave.Source behind one lock. Reads return copies.
type Store struct {
	mu        sync.RWMutex
	time      map[timeKey]generic.TimeRecord
	records   map[string]payroll.Record
	byPeriod  map[periodKey]string
	editLogs  map[string][]payroll.EditLog
	employees map[generic.EmployeeID]payroll.Employee
	leaves    map[generic.EmployeeID][]leave.Request
}

type timeKey struct {
	EmployeeID generic.EmployeeID
	Date       string
}

type periodKey struct {
	EmployeeID generic.EmployeeID
	Start      string
	End        string
}

func New() *Store {
	s := &Store{}
	s.Reset(context.Background())
	return s
}

// Reset drops all data.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.time = make(map[timeKey]generic.TimeRecord)
	s.records = make(map[string]payroll.Record)
	s.byPeriod = make(map[periodKey]string)
	s.editLogs = make(map[string][]payroll.EditLog)
	s.employees = make(map[generic.EmployeeID]payroll.Employee)
	s.leaves = make(map[generic.EmployeeID][]leave.Request)
	return nil
}

func recordKey(employeeID generic.EmployeeID, p generic.Period) periodKey {
	return periodKey{EmployeeID: employeeID, Start: p.Start.String(), End: p.End.String()}
}

// =============================================================================
// TIME STORE
// =============================================================================

func (s *Store) UpsertTime(_ context.Context, rec generic.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.time[timeKey{rec.EmployeeID, rec.Date.String()}] = rec
	return nil
}

// UpsertTimeBatch cannot fail part-way, so it is atomic under the lock.
func (s *Store) UpsertTimeBatch(_ context.Context, recs []generic.TimeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.time[timeKey{rec.EmployeeID, rec.Date.String()}] = rec
	}
	return nil
}

func (s *Store) DeleteTime(_ context.Context, employeeID generic.EmployeeID, date generic.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.time, timeKey{employeeID, date.String()})
	return nil
}

func (s *Store) LoadTime(_ context.Context, employeeID generic.EmployeeID, from, to generic.TimePoint) ([]generic.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := generic.Period{Start: from, End: to}
	var out []generic.TimeRecord
	for k, rec := range s.time {
		if k.EmployeeID == employeeID && p.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// =============================================================================
// PAYROLL STORE
// =============================================================================

func (s *Store) InsertRecord(_ context.Context, rec payroll.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := recordKey(rec.EmployeeID, rec.Period())
	if _, exists := s.byPeriod[k]; exists {
		return fmt.Errorf("%w: %s %s", generic.ErrDuplicateRecord, rec.EmployeeID, rec.Period().Label())
	}
	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("%w: id %s", generic.ErrDuplicateRecord, rec.ID)
	}
	s.records[rec.ID] = rec
	s.byPeriod[k] = rec.ID
	return nil
}

func (s *Store) GetRecord(_ context.Context, id string) (payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return payroll.Record{}, fmt.Errorf("%w: %s", generic.ErrRecordNotFound, id)
	}
	return rec, nil
}

func (s *Store) FindRecord(_ context.Context, employeeID generic.EmployeeID, period generic.Period) (payroll.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPeriod[recordKey(employeeID, period)]
	if !ok {
		return payroll.Record{}, false, nil
	}
	return s.records[id], true, nil
}

func (s *Store) ListRecords(_ context.Context, filter payroll.RecordFilter) ([]payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []payroll.Record{}
	for _, rec := range s.records {
		if filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Period != nil && (!rec.PayPeriodStart.Equal(filter.Period.Start) || !rec.PayPeriodEnd.Equal(filter.Period.End)) {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PayPeriodStart.Equal(out[j].PayPeriodStart) {
			return out[i].PayPeriodStart.Before(out[j].PayPeriodStart)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func (s *Store) UpdateRecord(_ context.Context, rec payroll.Record, logs []payroll.EditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrRecordNotFound, rec.ID)
	}
	for _, l := range logs {
		if l.PayrollID != rec.ID {
			return fmt.Errorf("edit log %s belongs to %s, not %s", l.ID, l.PayrollID, rec.ID)
		}
	}
	s.records[rec.ID] = rec
	s.editLogs[rec.ID] = append(s.editLogs[rec.ID], logs...)
	return nil
}

func (s *Store) EditLogs(_ context.Context, payrollID string) ([]payroll.EditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := make([]payroll.EditLog, len(s.editLogs[payrollID]))
	copy(logs, s.editLogs[payrollID])
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Sequence < logs[j].Sequence })
	return logs, nil
}

func (s *Store) DeleteRecordsCreatedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted []string
	for id, rec := range s.records {
		if rec.CreatedAt.Before(cutoff) {
			deleted = append(deleted, id)
		}
	}
	sort.Strings(deleted)
	for _, id := range deleted {
		rec := s.records[id]
		delete(s.byPeriod, recordKey(rec.EmployeeID, rec.Period()))
		delete(s.records, id)
		delete(s.editLogs, id)
	}
	return deleted, nil
}

// =============================================================================
// EMPLOYEES AND LEAVE
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
	return nil
}

func (s *Store) Employee(_ context.Context, id generic.EmployeeID) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return payroll.Employee{}, &generic.EmployeeNotFoundError{EmployeeID: id}
	}
	return emp, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]payroll.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveLeaveRequest inserts or replaces a request by ID.
func (s *Store) SaveLeaveRequest(_ context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := s.leaves[req.EmployeeID]
	for i := range reqs {
		if reqs[i].ID == req.ID {
			reqs[i] = req
			return nil
		}
	}
	s.leaves[req.EmployeeID] = append(reqs, req)
	return nil
}

func (s *Store) LeaveRequests(_ context.Context, employeeID generic.EmployeeID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]leave.Request, len(s.leaves[employeeID]))
	copy(out, s.leaves[employeeID])
	return out, nil
}

// ListLeaveRequests returns every stored request, ordered by start date.
func (s *Store) ListLeaveRequests(_ context.Context) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []leave.Request
	for _, reqs := range s.leaves {
		out = append(out, reqs...)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var (
	_ generic.TimeStore         = (*Store)(nil)
	_ payroll.Store             = (*Store)(nil)
	_ payroll.EmployeeDirectory = (*Store)(nil)
	_ leave.Source              = (*Store)(nil)
)
