package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/medicore-hms/attendance-backend-go/internal/config"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/attendance"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/employee"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/notification"
	syncdomain "github.com/medicore-hms/attendance-backend-go/internal/domain/sync"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/sse"
)

// SyncServiceImpl reconciles device punches into the attendance store.
// Cross-run overlap is prevented by the single-flight guard in TriggerSync;
// entryMu serializes individual entries so a realtime punch never
// interleaves with a polled one between its duplicate check and the write
// that check guards.
type SyncServiceImpl struct {
	transport device.Transport
	attendance.AttendanceRepository
	employee.EmployeeRepository
	notifier notification.Notifier
	hub      *sse.Hub
	location string

	workStart time.Duration // offset from midnight
	workEnd   time.Duration
	grace     time.Duration

	running atomic.Bool
	entryMu stdsync.Mutex
}

func NewSyncService(
	transport device.Transport,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	notifier notification.Notifier,
	hub *sse.Hub,
	deviceCfg config.DeviceConfig,
	workday config.WorkdayConfig,
) syncdomain.Service {
	return &SyncServiceImpl{
		transport:            transport,
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		notifier:             notifier,
		hub:                  hub,
		location:             deviceCfg.Location,
		workStart:            clockOffset(workday.Start, 8*time.Hour),
		workEnd:              clockOffset(workday.End, 17*time.Hour),
		grace:                time.Duration(workday.GraceMinutes) * time.Minute,
	}
}

// clockOffset converts an "HH:MM" wall-clock string into an offset from
// midnight. Config validation rejects malformed values before they reach
// here; a direct construction with bad input falls back to the default
// rather than anchoring the window at midnight.
func clockOffset(clock string, fallback time.Duration) time.Duration {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		slog.Warn("Invalid workday clock, using default", "clock", clock, "error", err)
		return fallback
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

// TriggerSync implements sync.Service. At most one run is in flight; a
// trigger during a run is dropped and the next scheduled trigger picks up
// whatever the device still buffers.
func (s *SyncServiceImpl) TriggerSync(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		slog.Debug("Sync already running, trigger dropped")
		return false
	}
	defer s.running.Store(false)

	// The run must always return to idle, whatever the engine throws.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Sync run panicked", "panic", r)
		}
	}()

	logs, err := s.transport.FetchRecentLogs(ctx)
	if err != nil {
		// An unreachable device is a normal condition: zero logs this
		// cycle, try again on the next trigger.
		slog.Warn("Device fetch failed, skipping cycle", "error", err)
		return true
	}

	if len(logs) == 0 {
		return true
	}

	result := s.ProcessLogs(ctx, logs)
	slog.Info("Sync run completed",
		"total", result.Total,
		"applied", result.Applied,
		"skipped_unmapped", result.SkippedUnmapped,
		"skipped_duplicate", result.SkippedDuplicate,
		"failed", result.Failed,
	)
	return true
}

// Running implements sync.Service.
func (s *SyncServiceImpl) Running() bool {
	return s.running.Load()
}

// ProcessLogs implements sync.Service. Entries are independent: one bad
// entry is tallied and skipped, never aborting the batch.
func (s *SyncServiceImpl) ProcessLogs(ctx context.Context, logs []device.LogEntry) syncdomain.BatchResult {
	var result syncdomain.BatchResult
	for _, entry := range logs {
		result.Add(s.ProcessEntry(ctx, entry))
	}
	return result
}

// ProcessEntry implements sync.Service: identity resolution, direction
// inference, duplicate suppression, upsert, then best-effort notification.
func (s *SyncServiceImpl) ProcessEntry(ctx context.Context, entry device.LogEntry) syncdomain.Outcome {
	s.entryMu.Lock()
	defer s.entryMu.Unlock()

	emp, err := s.resolveEmployee(ctx, entry.DeviceUserID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			slog.Warn("No employee mapped to device user, skipping",
				"device_user_id", entry.DeviceUserID,
				"source", entry.SourceAddr,
			)
			return syncdomain.OutcomeSkippedUnmapped
		}
		slog.Error("Employee lookup failed", "device_user_id", entry.DeviceUserID, "error", err)
		return syncdomain.OutcomeFailed
	}

	date := attendance.DateOf(entry.Timestamp)

	existing, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		slog.Error("Attendance lookup failed", "employee_id", emp.ID, "date", date, "error", err)
		return syncdomain.OutcomeFailed
	}

	// The terminal's log buffer is drained, not cleared, so every poll
	// re-reads punches already applied. A timestamp we have recorded as
	// either clock is the same punch coming around again; deciding its
	// direction anew would turn a re-read clock-in into a clock-out.
	if isReplayedPunch(entry.Timestamp, existing) {
		return syncdomain.OutcomeSkippedDuplicate
	}

	direction := s.resolveDirection(entry, existing)

	outcome := s.apply(ctx, emp, entry, existing, direction, date)
	if outcome != syncdomain.OutcomeApplied {
		return outcome
	}

	// Notification and dashboard fan-out are best-effort: the store write
	// stands whatever happens here.
	s.notify(ctx, emp, direction, entry)

	return syncdomain.OutcomeApplied
}

// resolveEmployee tries the fingerprint mapping first and falls back to
// the linked login identity.
func (s *SyncServiceImpl) resolveEmployee(ctx context.Context, deviceUserID string) (employee.Employee, error) {
	emp, err := s.EmployeeRepository.GetByFingerprintID(ctx, deviceUserID)
	if err == nil {
		return emp, nil
	}
	if !errors.Is(err, employee.ErrEmployeeNotFound) {
		return employee.Employee{}, err
	}
	return s.EmployeeRepository.GetByUserID(ctx, deviceUserID)
}

func isReplayedPunch(ts time.Time, existing *attendance.Attendance) bool {
	if existing == nil {
		return false
	}
	if existing.ClockIn != nil && existing.ClockIn.Equal(ts) {
		return true
	}
	return existing.ClockOut != nil && existing.ClockOut.Equal(ts)
}

// resolveDirection trusts an explicit device state code. Without one, the
// first punch of the day is a clock-in and anything after is a clock-out.
// A time-of-day heuristic (before noon means in) was considered and
// rejected: it misclassifies late shifts.
func (s *SyncServiceImpl) resolveDirection(entry device.LogEntry, existing *attendance.Attendance) device.Direction {
	if d := entry.Direction(); d != device.DirectionUnknown {
		return d
	}
	if existing == nil || existing.ClockIn == nil {
		return device.DirectionIn
	}
	return device.DirectionOut
}

// apply turns a resolved punch into at most one store mutation.
func (s *SyncServiceImpl) apply(
	ctx context.Context,
	emp employee.Employee,
	entry device.LogEntry,
	existing *attendance.Attendance,
	direction device.Direction,
	date time.Time,
) syncdomain.Outcome {
	ts := entry.Timestamp

	if existing == nil {
		record := attendance.Attendance{
			ID:         uuid.New().String(),
			EmployeeID: emp.ID,
			Date:       date,
			Status:     attendance.StatusPresent,
		}
		switch direction {
		case device.DirectionIn:
			record.ClockIn = &ts
			record.Status = s.classifyClockIn(ts)
		case device.DirectionOut:
			record.ClockOut = &ts
		}

		if _, err := s.AttendanceRepository.Create(ctx, record); err != nil {
			slog.Error("Attendance create failed", "employee_id", emp.ID, "date", date, "error", err)
			return syncdomain.OutcomeFailed
		}
		return syncdomain.OutcomeApplied
	}

	// Existing record: only fill fields that are still empty.
	var fields attendance.UpdateFields
	switch direction {
	case device.DirectionIn:
		if existing.ClockIn != nil {
			return syncdomain.OutcomeSkippedDuplicate
		}
		fields.ClockIn = &ts
		// A clock-in supersedes a provisional present/absent status.
		if status := s.classifyClockIn(ts); status != existing.Status &&
			(existing.Status == attendance.StatusPresent || existing.Status == attendance.StatusAbsent) {
			fields.Status = &status
		}
		if existing.ClockOut != nil {
			fields.HoursWorked = s.computeHours(emp.ID, ts, *existing.ClockOut)
		}
	case device.DirectionOut:
		if existing.ClockOut != nil {
			return syncdomain.OutcomeSkippedDuplicate
		}
		fields.ClockOut = &ts
		if status, changed := s.classifyClockOut(ts, existing.Status); changed {
			fields.Status = &status
		}
		if existing.ClockIn != nil {
			fields.HoursWorked = s.computeHours(emp.ID, *existing.ClockIn, ts)
		}
	}

	if err := s.AttendanceRepository.Update(ctx, existing.ID, fields); err != nil {
		slog.Error("Attendance update failed", "attendance_id", existing.ID, "error", err)
		return syncdomain.OutcomeFailed
	}
	return syncdomain.OutcomeApplied
}

// computeHours derives the worked span; a clock-out before the clock-in
// is an anomaly that leaves the field null.
func (s *SyncServiceImpl) computeHours(employeeID string, in, out time.Time) *float64 {
	hours, ok := attendance.HoursWorkedBetween(in, out)
	if !ok {
		slog.Warn("Negative work span, leaving hours_worked null",
			"employee_id", employeeID,
			"clock_in", in,
			"clock_out", out,
		)
		return nil
	}
	return &hours
}

// classifyClockIn marks punches after the grace window as late.
func (s *SyncServiceImpl) classifyClockIn(ts time.Time) attendance.Status {
	offset := time.Duration(ts.Hour())*time.Hour +
		time.Duration(ts.Minute())*time.Minute +
		time.Duration(ts.Second())*time.Second
	if offset > s.workStart+s.grace {
		return attendance.StatusLate
	}
	return attendance.StatusPresent
}

// classifyClockOut marks early departures, but never downgrades a late
// status.
func (s *SyncServiceImpl) classifyClockOut(ts time.Time, current attendance.Status) (attendance.Status, bool) {
	if current == attendance.StatusLate {
		return current, false
	}
	offset := time.Duration(ts.Hour())*time.Hour +
		time.Duration(ts.Minute())*time.Minute +
		time.Duration(ts.Second())*time.Second
	if offset < s.workEnd {
		return attendance.StatusEarlyDeparture, true
	}
	return current, false
}

func (s *SyncServiceImpl) notify(ctx context.Context, emp employee.Employee, direction device.Direction, entry device.LogEntry) {
	if s.hub != nil {
		s.hub.Publish(syncdomain.Event{
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName(),
			Direction:    direction,
			Timestamp:    entry.Timestamp,
			Date:         attendance.DateOf(entry.Timestamp).Format("2006-01-02"),
		})
	}

	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendAttendancePunch(ctx, emp.Email, emp.FullName(), direction, entry.Timestamp, s.location); err != nil {
		slog.Error("Attendance notification failed",
			"employee_id", emp.ID,
			"direction", direction,
			"error", fmt.Errorf("send attendance punch: %w", err),
		)
	}
}
