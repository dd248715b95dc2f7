package attendance

import (
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/pkg/validator"
)

// RecordRequest is the manual upsert used by administrators to record or
// correct a day's attendance. Empty optional fields keep whatever the
// existing record holds.
type RecordRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	ClockIn    *string `json:"clock_in"`
	ClockOut   *string `json:"clock_out"`
	Status     *string `json:"status"`
	Notes      *string `json:"notes"`
}

func (r *RecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if r.Status != nil && !Status(*r.Status).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of present, absent, late, early_departure",
		})
	}

	for field, v := range map[string]*string{"clock_in": r.ClockIn, "clock_out": r.ClockOut} {
		if v == nil {
			continue
		}
		if !validator.IsValidClock(*v) {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must be in HH:MM or HH:MM:SS format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ListFilter narrows List queries. Zero time bounds mean unbounded.
type ListFilter struct {
	From       time.Time
	To         time.Time
	Department *string
}

// Stats is the status breakdown over a date range.
type Stats struct {
	Total          int64 `json:"total"`
	Present        int64 `json:"present"`
	Late           int64 `json:"late"`
	Absent         int64 `json:"absent"`
	EarlyDeparture int64 `json:"early_departure"`
}

type AttendanceResponse struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	EmployeeName *string  `json:"employee_name,omitempty"`
	Department   *string  `json:"department,omitempty"`
	Date         string   `json:"date"`
	ClockIn      *string  `json:"clock_in"`
	ClockOut     *string  `json:"clock_out"`
	HoursWorked  *float64 `json:"hours_worked"`
	Status       string   `json:"status"`
	Notes        *string  `json:"notes,omitempty"`
}

// ToResponse converts an entity to its API shape.
func ToResponse(att Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:           att.ID,
		EmployeeID:   att.EmployeeID,
		EmployeeName: att.EmployeeName,
		Department:   att.Department,
		Date:         att.Date.Format("2006-01-02"),
		ClockIn:      timePtrToString(att.ClockIn),
		ClockOut:     timePtrToString(att.ClockOut),
		HoursWorked:  att.HoursWorked,
		Status:       string(att.Status),
		Notes:        att.Notes,
	}
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format("2006-01-02 15:04:05")
	return &format
}
