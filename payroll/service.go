/*
service.go - Payroll Record Store: generation, edits, retention

PURPOSE:
  The Service is the only writer of payroll records and edit logs. It turns
  engine output into persisted records, applies manual edits with a full
  audit trail, and removes records past the retention window.

GENERATION (GenerateBatch):
  1. Check the actor may generate
  2. Parse "<start> - <end>" into a period
  3. Enforce the actor role's batch ceiling
  4. Per employee: skip if a record exists, else compute and insert
  5. Run the retention sweep

  Skip-if-exists makes generation idempotent: rerunning a batch after a
  partial failure only fills the gaps. A single employee failing to compute
  is reported in BatchResult.Failed and does not abort the batch.

EDITS (EditRecord):
  Only the RecordUpdate fields can change. Totals are re-derived, status is
  untouched, and every changed field yields one chained EditLog written in
  the same store operation as the record. No log, no edit.

LATE ATTENDANCE:
  Nothing here listens to the Time Ledger. A record generated before an
  attendance correction keeps its figures until someone edits it.

CONCURRENCY:
  Mutations are serialized per (employee, period) during generation and per
  record id during edits.

SEE ALSO:
  - engine.go: Computation
  - audit.go: Edit log hash chain
  - store.go: Persistence contract
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/warp/payroll-engine/generic"
)

// DefaultRetentionMonths is how long records are kept after creation.
const DefaultRetentionMonths = 3

type Service struct {
	Store           Store
	Engine          *Engine
	Access          AccessPolicy
	RetentionMonths int
	Now             func() time.Time
	Logger          *slog.Logger
	Metrics         Metrics

	locks generic.KeyedMutex
}

func NewService(store Store, engine *Engine) *Service {
	return &Service{
		Store:           store,
		Engine:          engine,
		Access:          DefaultAccessPolicy(DefaultRestrictedBatchLimit),
		RetentionMonths: DefaultRetentionMonths,
		Now:             time.Now,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:         NopMetrics{},
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func (s *Service) metrics() Metrics {
	if s.Metrics == nil {
		return NopMetrics{}
	}
	return s.Metrics
}

// =============================================================================
// GENERATION
// =============================================================================

type GenerateRequest struct {
	EmployeeIDs []generic.EmployeeID
	PeriodLabel string
	// PayDate is the pay calendar's date for the period (optional). It is
	// reported back, not stored: records carry the engine's end + 1 day.
	PayDate string
	Actor   Actor
}

type BatchResult struct {
	Period           generic.Period                `json:"-"`
	PeriodLabel      string                        `json:"period"`
	RequestedPayDate string                        `json:"requested_pay_date,omitempty"`
	Generated        []Record                      `json:"generated"`
	Skipped          []generic.EmployeeID          `json:"skipped"`
	Failed           map[generic.EmployeeID]string `json:"failed,omitempty"`
	Swept            int                           `json:"swept"`
}

// GenerateBatch creates one record per employee for the labelled period.
func (s *Service) GenerateBatch(ctx context.Context, req GenerateRequest) (*BatchResult, error) {
	start := time.Now()
	defer s.metrics().ObserveBatch(start)

	if err := s.Access.CanGenerate(req.Actor); err != nil {
		return nil, err
	}
	period, err := generic.ParsePeriodLabel(req.PeriodLabel)
	if err != nil {
		return nil, err
	}
	if err := s.Access.CheckBatchSize(req.Actor, len(req.EmployeeIDs)); err != nil {
		return nil, err
	}

	result := &BatchResult{
		Period:           period,
		PeriodLabel:      period.Label(),
		RequestedPayDate: req.PayDate,
		Generated:        []Record{},
		Skipped:          []generic.EmployeeID{},
		Failed:           map[generic.EmployeeID]string{},
	}
	s.checkPayDate(req.PayDate, period)

	seen := make(map[generic.EmployeeID]bool, len(req.EmployeeIDs))
	for _, id := range req.EmployeeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		rec, created, err := s.generateOne(ctx, id, period, req.Actor)
		switch {
		case err != nil:
			s.logger().Warn("payroll generation failed",
				"employeeId", id, "period", result.PeriodLabel, "err", err)
			result.Failed[id] = err.Error()
		case created:
			result.Generated = append(result.Generated, *rec)
		default:
			result.Skipped = append(result.Skipped, id)
		}
	}
	s.metrics().RecordGenerated(len(result.Generated))
	s.metrics().RecordSkipped(len(result.Skipped))
	s.metrics().RecordFailed(len(result.Failed))

	sweep, err := s.RetentionSweep(ctx)
	if err != nil {
		s.logger().Warn("retention sweep after generation failed", "err", err)
	} else {
		result.Swept = sweep.Deleted
	}

	s.logger().Info("payroll batch generated",
		"period", result.PeriodLabel,
		"actor", req.Actor.ID,
		"generated", len(result.Generated),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
	)
	return result, nil
}

func (s *Service) generateOne(ctx context.Context, employeeID generic.EmployeeID, period generic.Period, actor Actor) (*Record, bool, error) {
	unlock := s.locks.Lock("gen|" + string(employeeID) + "|" + period.Label())
	defer unlock()

	if _, exists, err := s.Store.FindRecord(ctx, employeeID, period); err != nil {
		return nil, false, fmt.Errorf("check existing record: %w", err)
	} else if exists {
		return nil, false, nil
	}

	rec, err := s.Engine.Compute(ctx, employeeID, period)
	if err != nil {
		return nil, false, err
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now()
	rec.CreatedBy = actor.ID

	if err := s.Store.InsertRecord(ctx, *rec); err != nil {
		if errors.Is(err, generic.ErrDuplicateRecord) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("insert record: %w", err)
	}
	return rec, true, nil
}

// checkPayDate logs when the pay calendar and the engine disagree on the pay
// date. Both values are kept as computed.
func (s *Service) checkPayDate(requested string, period generic.Period) {
	if requested == "" {
		return
	}
	engineDate := period.End.AddDays(1)
	if d, err := generic.ParseDate(requested); err != nil || !d.Equal(engineDate) {
		s.logger().Info("requested pay date differs from computed pay date",
			"period", period.Label(), "requested", requested, "computed", engineDate.String())
	}
}

// Preview computes a record without persisting it.
func (s *Service) Preview(ctx context.Context, employeeID generic.EmployeeID, start, end string, actor Actor) (*Record, error) {
	if err := s.Access.CanGenerate(actor); err != nil {
		return nil, err
	}
	return s.Engine.ComputeForEmployee(ctx, employeeID, start, end)
}

// =============================================================================
// EDITS
// =============================================================================

type EditResult struct {
	Record Record    `json:"record"`
	Logs   []EditLog `json:"logs"`
}

// EditRecord applies upd to record id and logs every changed field.
// An empty reason is recorded as given.
func (s *Service) EditRecord(ctx context.Context, id string, upd RecordUpdate, reason string, actor Actor) (*EditResult, error) {
	if err := s.Access.CanEdit(actor); err != nil {
		return nil, err
	}
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock("rec|" + id)
	defer unlock()

	rec, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := rec
	changes := upd.Apply(&updated)
	if len(changes) == 0 {
		return &EditResult{Record: rec, Logs: []EditLog{}}, nil
	}

	editedAt := s.now()
	logs := make([]EditLog, len(changes))
	for i, c := range changes {
		logs[i] = EditLog{
			ID:           uuid.NewString(),
			PayrollID:    rec.ID,
			EditedBy:     actor.ID,
			EditedAt:     editedAt,
			FieldChanged: c.Field,
			OldValue:     c.OldValue,
			NewValue:     c.NewValue,
			Reason:       reason,
		}
	}
	logs = chainEntries(logs, rec.EditCount, rec.EditHash)
	updated.EditCount = rec.EditCount + len(logs)
	updated.EditHash = logs[len(logs)-1].Hash

	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.UpdateRecord(ctx, updated, logs); err != nil {
		return nil, fmt.Errorf("save edit of %s: %w", id, err)
	}

	s.metrics().RecordEdits(len(logs))
	s.logger().Info("payroll record edited",
		"payrollId", id, "actor", actor.ID, "fields", len(logs), "reason", reason)
	return &EditResult{Record: updated, Logs: logs}, nil
}

// SetStatus moves a record forward through Pending -> Processed -> Paid.
// Amounts are untouched; setting the current status is a no-op.
func (s *Service) SetStatus(ctx context.Context, id string, status Status, actor Actor) (*Record, error) {
	if err := s.Access.CanEdit(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", generic.ErrInvalidStatusTransition, status)
	}

	unlock := s.locks.Lock("rec|" + id)
	defer unlock()

	rec, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == status {
		return &rec, nil
	}
	if status.rank() < rec.Status.rank() {
		return nil, fmt.Errorf("%w: %s -> %s", generic.ErrInvalidStatusTransition, rec.Status, status)
	}

	prev := rec.Status
	rec.Status = status
	if err := s.Store.UpdateRecord(ctx, rec, nil); err != nil {
		return nil, fmt.Errorf("save status of %s: %w", id, err)
	}
	s.logger().Info("payroll status changed",
		"payrollId", id, "actor", actor.ID, "from", prev, "to", status)
	return &rec, nil
}

// =============================================================================
// RETENTION
// =============================================================================

type SweepResult struct {
	Cutoff     time.Time `json:"cutoff"`
	Deleted    int       `json:"deleted"`
	DeletedIDs []string  `json:"deleted_ids"`
}

// RetentionCutoff is the creation time before which records are swept.
func (s *Service) RetentionCutoff() time.Time {
	months := s.RetentionMonths
	if months <= 0 {
		months = DefaultRetentionMonths
	}
	return s.now().AddDate(0, -months, 0)
}

// RetentionSweep deletes records created before the retention cutoff along
// with their edit logs. The surrounding application owns any timer.
func (s *Service) RetentionSweep(ctx context.Context) (*SweepResult, error) {
	cutoff := s.RetentionCutoff()
	ids, err := s.Store.DeleteRecordsCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("retention sweep: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	s.metrics().RecordSwept(len(ids))
	if len(ids) > 0 {
		s.logger().Info("retention sweep removed payroll records",
			"count", len(ids), "cutoff", cutoff.Format(time.RFC3339))
	}
	return &SweepResult{Cutoff: cutoff, Deleted: len(ids), DeletedIDs: ids}, nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Service) GetRecord(ctx context.Context, id string) (Record, error) {
	return s.Store.GetRecord(ctx, id)
}

func (s *Service) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	return s.Store.ListRecords(ctx, filter)
}

// EditHistory returns the record's edit logs in order.
func (s *Service) EditHistory(ctx context.Context, id string) ([]EditLog, error) {
	if _, err := s.Store.GetRecord(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.EditLogs(ctx, id)
}

// VerifyHistory checks the record's edit-log hash chain.
func (s *Service) VerifyHistory(ctx context.Context, id string) error {
	rec, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	logs, err := s.Store.EditLogs(ctx, id)
	if err != nil {
		return err
	}
	return VerifyChain(rec, logs)
}
