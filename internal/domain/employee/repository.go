package employee

import "context"

// EmployeeRepository is the read-only directory the sync pipeline resolves
// punches against. Employee management itself is owned elsewhere.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)

	// GetByFingerprintID resolves the terminal's device identifier to an
	// employee. This is the primary mapping.
	GetByFingerprintID(ctx context.Context, fingerprintID string) (Employee, error)

	// GetByUserID is the secondary mapping, used when a terminal was
	// enrolled with the employee's login identity instead.
	GetByUserID(ctx context.Context, userID string) (Employee, error)

	GetActive(ctx context.Context) ([]Employee, error)
}
