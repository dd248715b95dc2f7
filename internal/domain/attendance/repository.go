package attendance

import (
	"context"
	"time"
)

// UpdateFields carries a partial update. Nil fields are left untouched by
// the repository (COALESCE semantics); a punch never clobbers a value it
// did not supply.
type UpdateFields struct {
	ClockIn     *time.Time
	ClockOut    *time.Time
	HoursWorked *float64
	Status      *Status
	Notes       *string
}

// AttendanceRepository defines data access for daily attendance records.
type AttendanceRepository interface {
	// Create inserts a new record. The storage layer enforces the
	// (employee_id, date) uniqueness constraint as a backstop against
	// concurrent writers.
	Create(ctx context.Context, att Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByEmployeeAndDate returns nil when no record exists for that day.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)

	// Update applies the non-nil fields only.
	Update(ctx context.Context, id string, fields UpdateFields) error

	List(ctx context.Context, filter ListFilter) ([]Attendance, error)

	GetByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)

	GetStats(ctx context.Context, from, to time.Time) (Stats, error)

	// BulkCreateAbsences inserts absence rows, skipping employees that
	// already have a record for the day.
	BulkCreateAbsences(ctx context.Context, records []Attendance) error

	// Delete is administrative only; the sync pipeline never removes rows.
	Delete(ctx context.Context, id string) error
}
