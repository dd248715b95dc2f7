package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/attendance"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/employee"
)

// AttendanceJobs holds the attendance housekeeping jobs.
type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
}

func NewAttendanceJobs(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", 1*time.Hour, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees creates absence records for active employees with no
// attendance row for yesterday. Runs in the midnight hour only; the
// hourly tick just returns otherwise.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	if time.Now().UTC().Hour() != 0 {
		return nil
	}

	slog.Info("Cron: Starting mark absent employees job")

	yesterday := attendance.DateOf(time.Now().UTC().AddDate(0, 0, -1))

	employees, err := j.employeeRepo.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active employees: %w", err)
	}

	var absences []attendance.Attendance
	for _, emp := range employees {
		existing, err := j.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, yesterday)
		if err != nil {
			slog.Error("Cron: Failed to check attendance", "employee_id", emp.ID, "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		absences = append(absences, attendance.Attendance{
			ID:         uuid.New().String(),
			EmployeeID: emp.ID,
			Date:       yesterday,
			Status:     attendance.StatusAbsent,
		})
	}

	if len(absences) == 0 {
		slog.Info("Cron: No absences to mark")
		return nil
	}

	if err := j.attendanceRepo.BulkCreateAbsences(ctx, absences); err != nil {
		return fmt.Errorf("failed to bulk create absences: %w", err)
	}

	slog.Info("Cron: Marked absent employees", "count", len(absences))
	return nil
}
