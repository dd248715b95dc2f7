package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/attendance"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/employee"
)

// AttendanceServiceImpl is the administrative surface over the attendance
// store: manual upserts, listings, and stats. Device punches do not pass
// through here.
type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
	}
}

func (s *AttendanceServiceImpl) Record(ctx context.Context, req attendance.RecordRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	date, _ := time.Parse("2006-01-02", req.Date)

	clockIn, err := clockOn(date, req.ClockIn)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	clockOut, err := clockOn(date, req.ClockOut)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	existing, err := s.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("get attendance for %s: %w", emp.ID, err)
	}

	if existing == nil {
		return s.create(ctx, emp.ID, date, clockIn, clockOut, req)
	}

	return s.update(ctx, *existing, clockIn, clockOut, req)
}

func (s *AttendanceServiceImpl) create(ctx context.Context, employeeID string, date time.Time, clockIn, clockOut *time.Time, req attendance.RecordRequest) (attendance.AttendanceResponse, error) {
	status := attendance.StatusPresent
	if req.Status != nil {
		status = attendance.Status(*req.Status)
	}

	record := attendance.Attendance{
		ID:          uuid.New().String(),
		EmployeeID:  employeeID,
		Date:        date,
		ClockIn:     clockIn,
		ClockOut:    clockOut,
		HoursWorked: hoursBetween(clockIn, clockOut),
		Status:      status,
		Notes:       req.Notes,
	}

	created, err := s.Create(ctx, record)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("create attendance: %w", err)
	}

	return attendance.ToResponse(created), nil
}

func (s *AttendanceServiceImpl) update(ctx context.Context, existing attendance.Attendance, clockIn, clockOut *time.Time, req attendance.RecordRequest) (attendance.AttendanceResponse, error) {
	fields := attendance.UpdateFields{
		ClockIn:  clockIn,
		ClockOut: clockOut,
		Notes:    req.Notes,
	}
	if req.Status != nil {
		status := attendance.Status(*req.Status)
		fields.Status = &status
	}

	// Recompute hours from the merged pair so a corrected clock-in
	// refreshes a previously stored span.
	mergedIn, mergedOut := existing.ClockIn, existing.ClockOut
	if clockIn != nil {
		mergedIn = clockIn
	}
	if clockOut != nil {
		mergedOut = clockOut
	}
	fields.HoursWorked = hoursBetween(mergedIn, mergedOut)

	if err := s.Update(ctx, existing.ID, fields); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("update attendance %s: %w", existing.ID, err)
	}

	updated, err := s.AttendanceRepository.GetByID(ctx, existing.ID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("reload attendance %s: %w", existing.ID, err)
	}

	return attendance.ToResponse(updated), nil
}

func (s *AttendanceServiceImpl) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.AttendanceResponse, error) {
	records, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, attendance.ToResponse(record))
	}

	return responses, nil
}

func (s *AttendanceServiceImpl) GetByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceResponse, error) {
	if _, err := s.EmployeeRepository.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	records, err := s.AttendanceRepository.GetByEmployee(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get attendance for %s: %w", employeeID, err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, attendance.ToResponse(record))
	}

	return responses, nil
}

func (s *AttendanceServiceImpl) Stats(ctx context.Context, from, to time.Time) (attendance.Stats, error) {
	stats, err := s.GetStats(ctx, from, to)
	if err != nil {
		return attendance.Stats{}, fmt.Errorf("get attendance stats: %w", err)
	}

	return stats, nil
}

func (s *AttendanceServiceImpl) Delete(ctx context.Context, id string) error {
	if _, err := s.AttendanceRepository.GetByID(ctx, id); err != nil {
		return err
	}

	return s.AttendanceRepository.Delete(ctx, id)
}

// clockOn anchors a wall-clock string on the given calendar day.
func clockOn(date time.Time, clock *string) (*time.Time, error) {
	if clock == nil {
		return nil, nil
	}

	layout := "15:04"
	if len(*clock) == len("15:04:05") {
		layout = "15:04:05"
	}

	parsed, err := time.Parse(layout, *clock)
	if err != nil {
		return nil, fmt.Errorf("parse clock %q: %w", *clock, err)
	}

	t := time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC)
	return &t, nil
}

func hoursBetween(in, out *time.Time) *float64 {
	if in == nil || out == nil {
		return nil
	}
	hours, ok := attendance.HoursWorkedBetween(*in, *out)
	if !ok {
		return nil
	}
	return &hours
}
