package attendance

import (
	"context"
	"time"
)

// AttendanceService is the administrative surface over the attendance
// store. The device sync pipeline writes through the repository directly.
type AttendanceService interface {
	// Record upserts a day's record with coalesce semantics: supplied
	// fields replace, omitted fields keep the stored value.
	Record(ctx context.Context, req RecordRequest) (AttendanceResponse, error)

	List(ctx context.Context, filter ListFilter) ([]AttendanceResponse, error)

	GetByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceResponse, error)

	Stats(ctx context.Context, from, to time.Time) (Stats, error)

	Delete(ctx context.Context, id string) error
}
