package attendance

import (
	"math"
	"time"
)

type Status string

const (
	StatusPresent        Status = "present"
	StatusAbsent         Status = "absent"
	StatusLate           Status = "late"
	StatusEarlyDeparture Status = "early_departure"
)

// Valid reports whether s is one of the persisted status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusEarlyDeparture:
		return true
	}
	return false
}

// Attendance is the persisted daily record. At most one row exists per
// (EmployeeID, Date); ClockIn and ClockOut stay nil until the matching
// punch arrives and are never reset to nil afterwards.
type Attendance struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	ClockIn     *time.Time
	ClockOut    *time.Time
	HoursWorked *float64
	Status      Status
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Join fields populated by list queries
	EmployeeName *string
	Department   *string
}

// HoursWorkedBetween returns the worked span in hours, rounded to two
// decimals. ok is false when out precedes in; callers log the anomaly and
// leave the field null instead of storing a negative duration.
func HoursWorkedBetween(in, out time.Time) (float64, bool) {
	d := out.Sub(in)
	if d < 0 {
		return 0, false
	}
	return math.Round(d.Hours()*100) / 100, true
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
