package booking

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden     = errors.New("caller may not act on this appointment")
	ErrInvalidAction = errors.New("invalid action, use 'cancel' or 'complete'")

	// ErrActorBusy means another request currently holds the quota lock for
	// one of the actors involved. Nothing happened; safe to retry.
	ErrActorBusy = errors.New("actor is being booked concurrently, please retry")
)

// QuotaError reports which side of the quota pair was exhausted.
type QuotaError struct {
	Actor string // "doctor" or "patient"
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s has no quota left", e.Actor)
}

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RescheduleDiscardedError reports the destructive reschedule fallback: the
// original appointment was deleted and its quotas stay refunded. The caller
// must NOT retry as if nothing happened; the appointment no longer exists.
type RescheduleDiscardedError struct {
	AppointmentID int64
	Cause         error
}

func (e *RescheduleDiscardedError) Error() string {
	return fmt.Sprintf("reschedule failed, appointment %d deleted: %v", e.AppointmentID, e.Cause)
}

func (e *RescheduleDiscardedError) Unwrap() error { return e.Cause }
