package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/attendance"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance (
			id, employee_id, date, clock_in, clock_out, hours_worked, status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		att.ID,
		att.EmployeeID,
		att.Date,
		att.ClockIn,
		att.ClockOut,
		att.HoursWorked,
		att.Status,
		att.Notes,
	).Scan(&att.CreatedAt, &att.UpdatedAt)

	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return att, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, date, clock_in, clock_out, hours_worked,
			   status, notes, created_at, updated_at
		FROM attendance
		WHERE id = $1
	`

	var att attendance.Attendance
	err := q.QueryRow(ctx, query, id).Scan(
		&att.ID, &att.EmployeeID, &att.Date, &att.ClockIn, &att.ClockOut,
		&att.HoursWorked, &att.Status, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, date, clock_in, clock_out, hours_worked,
			   status, notes, created_at, updated_at
		FROM attendance
		WHERE employee_id = $1
		  AND date = $2
		LIMIT 1
	`

	var att attendance.Attendance
	err := q.QueryRow(ctx, query, employeeID, date).Scan(
		&att.ID, &att.EmployeeID, &att.Date, &att.ClockIn, &att.ClockOut,
		&att.HoursWorked, &att.Status, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &att, nil
}

// Update implements attendance.AttendanceRepository. Nil fields keep the
// stored value; a punch never resets what another punch wrote.
func (a *attendanceRepository) Update(ctx context.Context, id string, fields attendance.UpdateFields) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance
		SET clock_in = COALESCE($2, clock_in),
			clock_out = COALESCE($3, clock_out),
			hours_worked = COALESCE($4, hours_worked),
			status = COALESCE($5, status),
			notes = COALESCE($6, notes),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		id,
		fields.ClockIn,
		fields.ClockOut,
		fields.HoursWorked,
		fields.Status,
		fields.Notes,
	)

	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT a.id, a.employee_id, a.date, a.clock_in, a.clock_out, a.hours_worked,
			   a.status, a.notes, a.created_at, a.updated_at,
			   e.first_name || ' ' || e.last_name AS employee_name, e.department
		FROM attendance a
		JOIN employees e ON e.id = a.employee_id
		WHERE ($1::timestamptz IS NULL OR a.date >= $1)
		  AND ($2::timestamptz IS NULL OR a.date <= $2)
		  AND ($3::text IS NULL OR e.department = $3)
		ORDER BY a.date DESC, employee_name ASC
	`

	rows, err := q.Query(ctx, query, nullableTime(filter.From), nullableTime(filter.To), filter.Department)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	return scanAttendanceRows(rows)
}

// GetByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT a.id, a.employee_id, a.date, a.clock_in, a.clock_out, a.hours_worked,
			   a.status, a.notes, a.created_at, a.updated_at,
			   e.first_name || ' ' || e.last_name AS employee_name, e.department
		FROM attendance a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1
		  AND ($2::timestamptz IS NULL OR a.date >= $2)
		  AND ($3::timestamptz IS NULL OR a.date <= $3)
		ORDER BY a.date DESC
	`

	rows, err := q.Query(ctx, query, employeeID, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance by employee: %w", err)
	}
	defer rows.Close()

	return scanAttendanceRows(rows)
}

// GetStats implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetStats(ctx context.Context, from, to time.Time) (attendance.Stats, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT COUNT(*),
			   COUNT(*) FILTER (WHERE status = 'present'),
			   COUNT(*) FILTER (WHERE status = 'late'),
			   COUNT(*) FILTER (WHERE status = 'absent'),
			   COUNT(*) FILTER (WHERE status = 'early_departure')
		FROM attendance
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::timestamptz IS NULL OR date <= $2)
	`

	var stats attendance.Stats
	err := q.QueryRow(ctx, query, nullableTime(from), nullableTime(to)).Scan(
		&stats.Total, &stats.Present, &stats.Late, &stats.Absent, &stats.EarlyDeparture,
	)

	if err != nil {
		return attendance.Stats{}, fmt.Errorf("failed to get attendance stats: %w", err)
	}

	return stats, nil
}

// BulkCreateAbsences implements attendance.AttendanceRepository. The
// ON CONFLICT clause skips employees whose day already has a record, so
// the absence job can race a late device sync safely.
func (a *attendanceRepository) BulkCreateAbsences(ctx context.Context, records []attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance (id, employee_id, date, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT unique_employee_date DO NOTHING
	`

	for _, record := range records {
		if _, err := q.Exec(ctx, query, record.ID, record.EmployeeID, record.Date, record.Status); err != nil {
			return fmt.Errorf("failed to create absence for %s: %w", record.EmployeeID, err)
		}
	}

	return nil
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

func scanAttendanceRows(rows pgx.Rows) ([]attendance.Attendance, error) {
	var records []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		err := rows.Scan(
			&att.ID, &att.EmployeeID, &att.Date, &att.ClockIn, &att.ClockOut,
			&att.HoursWorked, &att.Status, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
			&att.EmployeeName, &att.Department,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		records = append(records, att)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance rows: %w", err)
	}

	return records, nil
}

// nullableTime maps the zero time to SQL NULL so range filters can be left
// open-ended.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
