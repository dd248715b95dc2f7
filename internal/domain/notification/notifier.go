// Package notification defines the outbound notification contract the
// sync pipeline depends on. Delivery is best-effort: a failure is logged
// by the caller and never rolls back an attendance write.
package notification

import (
	"context"
	"time"

	"github.com/medicore-hms/attendance-backend-go/internal/domain/device"
)

type Notifier interface {
	SendAttendancePunch(ctx context.Context, to, employeeName string, direction device.Direction, punchedAt time.Time, location string) error
}
