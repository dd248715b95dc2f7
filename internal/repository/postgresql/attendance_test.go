package postgresql

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/attendance"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/database"
)

func newDB(t *testing.T) (*database.DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &database.DB{Pool: mock}, mock
}

func TestAttendanceRepository_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttendanceRepository(db)
	ctx := context.Background()

	clockIn := time.Date(2024, 1, 10, 8, 2, 0, 0, time.UTC)
	att := attendance.Attendance{
		ID:         "att-1",
		EmployeeID: "emp-1",
		Date:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		ClockIn:    &clockIn,
		Status:     attendance.StatusPresent,
	}

	mock.ExpectQuery(`INSERT INTO attendance`).
		WithArgs(att.ID, att.EmployeeID, att.Date, att.ClockIn, att.ClockOut, att.HoursWorked, att.Status, att.Notes).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	created, err := r.Create(ctx, att)
	require.NoError(t, err)
	assert.Equal(t, "att-1", created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	// Unique violation from a concurrent writer surfaces as an error.
	mock.ExpectQuery(`INSERT INTO attendance`).
		WithArgs(att.ID, att.EmployeeID, att.Date, att.ClockIn, att.ClockOut, att.HoursWorked, att.Status, att.Notes).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "unique_employee_date"})

	_, err = r.Create(ctx, att)
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_GetByEmployeeAndDate(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttendanceRepository(db)
	ctx := context.Background()

	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	columns := []string{
		"id", "employee_id", "date", "clock_in", "clock_out", "hours_worked",
		"status", "notes", "created_at", "updated_at",
	}

	mock.ExpectQuery(`SELECT id, employee_id, date, clock_in, clock_out, hours_worked`).
		WithArgs("emp-1", date).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("att-1", "emp-1", date, nil, nil, nil, attendance.StatusAbsent, nil, time.Now(), time.Now()))

	got, err := r.GetByEmployeeAndDate(ctx, "emp-1", date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, attendance.StatusAbsent, got.Status)

	// No record for the day is not an error: the caller creates one.
	mock.ExpectQuery(`SELECT id, employee_id, date, clock_in, clock_out, hours_worked`).
		WithArgs("emp-1", date).
		WillReturnError(pgx.ErrNoRows)

	got, err = r.GetByEmployeeAndDate(ctx, "emp-1", date)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_Update_CoalescesNilFields(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttendanceRepository(db)
	ctx := context.Background()

	clockOut := time.Date(2024, 1, 10, 17, 5, 0, 0, time.UTC)
	hours := 9.05
	fields := attendance.UpdateFields{ClockOut: &clockOut, HoursWorked: &hours}

	mock.ExpectExec(`UPDATE attendance\s+SET clock_in = COALESCE\(\$2, clock_in\)`).
		WithArgs("att-1", fields.ClockIn, fields.ClockOut, fields.HoursWorked, fields.Status, fields.Notes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.Update(ctx, "att-1", fields))

	mock.ExpectExec(`UPDATE attendance`).
		WithArgs("missing", fields.ClockIn, fields.ClockOut, fields.HoursWorked, fields.Status, fields.Notes).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := r.Update(ctx, "missing", fields)
	require.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_GetStats(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttendanceRepository(db)
	ctx := context.Background()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(&from, &to).
		WillReturnRows(pgxmock.NewRows([]string{"total", "present", "late", "absent", "early_departure"}).
			AddRow(int64(20), int64(14), int64(3), int64(2), int64(1)))

	stats, err := r.GetStats(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(20), stats.Total)
	assert.Equal(t, int64(3), stats.Late)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_BulkCreateAbsences(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttendanceRepository(db)
	ctx := context.Background()

	date := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	records := []attendance.Attendance{
		{ID: "abs-1", EmployeeID: "emp-1", Date: date, Status: attendance.StatusAbsent},
		{ID: "abs-2", EmployeeID: "emp-2", Date: date, Status: attendance.StatusAbsent},
	}

	for _, rec := range records {
		mock.ExpectExec(`ON CONFLICT ON CONSTRAINT unique_employee_date DO NOTHING`).
			WithArgs(rec.ID, rec.EmployeeID, rec.Date, rec.Status).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	require.NoError(t, r.BulkCreateAbsences(ctx, records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewAttendanceRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM attendance WHERE id = \$1`).
		WithArgs("att-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, "att-1"))

	mock.ExpectExec(`DELETE FROM attendance WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, "missing"), attendance.ErrAttendanceNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
