package employee

import "time"

type Employee struct {
	ID            string
	EmpNo         string
	UserID        *string
	FirstName     string
	LastName      string
	Email         string
	Department    *string
	Unit          *string
	Position      *string
	FingerprintID *string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName returns the display name used in notifications.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
