package appointments

import (
	"errors"
	"fmt"

	"dern-backend/internal/schedule"
)

var (
	ErrTechnicianNotFound        = errors.New("technician not found")
	ErrTechnicianUnavailable     = errors.New("technician unavailable")
	ErrSchedulingConflict        = errors.New("scheduling conflict")
	ErrNotFound                  = errors.New("appointment not found")
	ErrAlreadyCanceled           = errors.New("appointment already canceled")
	ErrCancellationWindowExpired = errors.New("cancellation window expired")
	ErrImmutableState            = errors.New("appointment is in a terminal state")
	ErrInvalidInterval           = schedule.ErrInvalidInterval
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrForbidden                 = errors.New("not a party to this appointment")
	ErrConcurrentUpdate          = errors.New("appointment was changed by another request")
	ErrInvalidStatus             = errors.New("invalid status")
	ErrInvalidServiceType        = errors.New("invalid service type")
	ErrInvalidPriority           = errors.New("invalid priority")
)

// ConflictError reports the first existing appointment that overlaps the requested
// interval. It matches ErrSchedulingConflict with errors.Is.
type ConflictError struct {
	AppointmentID string
	Interval      schedule.Interval
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict with appointment %s (%s)", e.AppointmentID, e.Interval)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrSchedulingConflict
}

// isRejection reports whether err is a business rule rejection rather than a fault.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrTechnicianNotFound,
		ErrTechnicianUnavailable,
		ErrSchedulingConflict,
		ErrNotFound,
		ErrAlreadyCanceled,
		ErrCancellationWindowExpired,
		ErrImmutableState,
		ErrInvalidInterval,
		ErrInvalidTransition,
		ErrForbidden,
		ErrConcurrentUpdate,
		ErrInvalidStatus,
		ErrInvalidServiceType,
		ErrInvalidPriority,
		schedule.ErrInvalidDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
