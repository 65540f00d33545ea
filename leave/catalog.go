package leave

import "context"

// =============================================================================
// CATALOG - Reference data supplied by the surrounding application
// =============================================================================

// Catalog stores the leave-type configuration and holiday list. Both are
// reference data: written by administrative configuration, read-only to the
// core components.
type Catalog interface {
	PutLeaveType(ctx context.Context, lt LeaveType) error
	GetLeaveType(ctx context.Context, code string) (*LeaveType, error)
	ListLeaveTypes(ctx context.Context) ([]LeaveType, error)

	AddHoliday(ctx context.Context, h Holiday) error

	// ListHolidays returns holidays for a year, ordered by date.
	// year 0 means all years.
	ListHolidays(ctx context.Context, year int) ([]Holiday, error)
}
