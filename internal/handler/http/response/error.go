package response

import (
	"errors"
	"net/http"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/attendance"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
	"github.com/medicore-hms/attendance-backend-go/internal/domain/employee"
	"github.com/medicore-hms/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrInvalidStatus):
		BadRequest(w, "Invalid attendance status", nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Device errors
	case errors.Is(err, device.ErrDeviceUnavailable):
		ServiceUnavailable(w, "Attendance device is unreachable")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
