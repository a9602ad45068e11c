package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wellnest/clinic-backend/internal/redisclient"
)

const (
	EventBooked      = "APPOINTMENT_BOOKED"
	EventRescheduled = "APPOINTMENT_RESCHEDULED"
	EventDiscarded   = "APPOINTMENT_DISCARDED"
	EventCancelled   = "APPOINTMENT_CANCELLED"
	EventCompleted   = "APPOINTMENT_COMPLETED"
)

// Actions accepted by Resolve.
const (
	ActionCancel   = "cancel"
	ActionComplete = "complete"
)

// Caller is the authenticated identity acting on the engine.
type Caller struct {
	Role   string // "doctor", "patient" or "leader"
	RoleID int64
}

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
	RoleLeader  = "leader"
)

// Service is the appointment lifecycle engine. Every mutating operation holds
// the Redis locks of the actors it touches and runs its reads and writes in
// one store transaction, so the quota relationship (doctor remaining ==
// capacity minus booked) survives concurrent requests.
type Service struct {
	store  Store
	locker redisclient.Locker
	ledger Ledger
	log    zerolog.Logger
}

func NewService(store Store, locker redisclient.Locker, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		locker: locker,
		log:    log.With().Str("component", "booking").Logger(),
	}
}

// Book reserves a doctor/patient quota pair and records a new appointment.
// patientID always comes from the caller identity; a patient can never book
// on behalf of someone else. A validation failure after the reserve rolls the
// whole transaction back, so no quota leaks.
func (s *Service) Book(ctx context.Context, patientID int64, req BookingRequest) (*Appointment, error) {
	keys := []string{
		redisclient.DoctorKey(req.DoctorID),
		redisclient.PatientKey(patientID),
	}

	var created *Appointment

	err := s.locker.WithActorLocks(ctx, keys, func(lockCtx context.Context) error {
		return s.store.InTx(lockCtx, func(tx Store) error {
			doctor, err := tx.GetDoctorForUpdate(lockCtx, req.DoctorID)
			if err != nil {
				return err
			}
			patient, err := tx.GetPatientForUpdate(lockCtx, patientID)
			if err != nil {
				return err
			}

			if err := s.ledger.Reserve(lockCtx, tx, doctor, patient); err != nil {
				return err
			}

			if err := validateRequest(lockCtx, tx, req); err != nil {
				return err
			}

			appt, err := tx.CreateAppointment(lockCtx, &Appointment{
				DoctorID:  req.DoctorID,
				PatientID: patientID,
				ServiceID: req.ServiceID,
				At:        req.At,
				Urgent:    req.Urgent,
				Comment:   req.Comment,
			})
			if err != nil {
				return fmt.Errorf("create appointment: %w", err)
			}
			created = appt

			s.logEvent(lockCtx, tx, appt.ID, EventBooked, map[string]any{
				"doctor_id":  req.DoctorID,
				"patient_id": patientID,
				"at":         req.At,
			})
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrActorBusy
		}
		return nil, err
	}

	return created, nil
}

// rescheduleFallback marks a redo-phase failure inside Reschedule: the old
// quotas were already refunded, so the destructive fallback must run.
type rescheduleFallback struct {
	cause error
}

func (e *rescheduleFallback) Error() string { return e.cause.Error() }
func (e *rescheduleFallback) Unwrap() error { return e.cause }

// Reschedule rewrites an appointment with an undo-then-redo strategy: refund
// the old quota pair, then reserve the new pair and persist the new fields.
// If the redo fails for any reason the original appointment is DELETED and
// the refunds stand; the caller gets a RescheduleDiscardedError and must not
// treat the operation as retryable. This destructive fallback is the
// documented contract with existing clients.
func (s *Service) Reschedule(ctx context.Context, apptID, patientID int64, req BookingRequest) (*Appointment, error) {
	// Pre-read just to learn which actors to lock; everything is re-read
	// under the locks inside the transaction.
	current, err := s.store.GetAppointment(ctx, apptID)
	if err != nil {
		return nil, err
	}

	keys := []string{
		redisclient.DoctorKey(current.DoctorID),
		redisclient.PatientKey(current.PatientID),
		redisclient.DoctorKey(req.DoctorID),
		redisclient.PatientKey(patientID),
	}

	var updated *Appointment

	err = s.locker.WithActorLocks(ctx, keys, func(lockCtx context.Context) error {
		err := s.store.InTx(lockCtx, func(tx Store) error {
			cur, err := tx.GetAppointment(lockCtx, apptID)
			if err != nil {
				return err
			}

			oldDoctor, err := tx.GetDoctorForUpdate(lockCtx, cur.DoctorID)
			if err != nil {
				return err
			}
			oldPatient, err := tx.GetPatientForUpdate(lockCtx, cur.PatientID)
			if err != nil {
				return err
			}

			if err := s.ledger.Refund(lockCtx, tx, oldDoctor, oldPatient); err != nil {
				return err
			}

			// Redo phase: any failure from here on triggers the fallback.
			newDoctor := oldDoctor
			if req.DoctorID != oldDoctor.ID {
				newDoctor, err = tx.GetDoctorForUpdate(lockCtx, req.DoctorID)
				if err != nil {
					if errors.Is(err, ErrDoctorNotFound) {
						return &rescheduleFallback{cause: &ValidationError{Field: "doctor_id", Reason: "doctor does not exist"}}
					}
					return err
				}
			}
			newPatient := oldPatient
			if patientID != oldPatient.ID {
				newPatient, err = tx.GetPatientForUpdate(lockCtx, patientID)
				if err != nil {
					if errors.Is(err, ErrPatientNotFound) {
						return &rescheduleFallback{cause: ErrPatientNotFound}
					}
					return err
				}
			}

			if err := s.ledger.Reserve(lockCtx, tx, newDoctor, newPatient); err != nil {
				var qe *QuotaError
				if errors.As(err, &qe) {
					return &rescheduleFallback{cause: err}
				}
				return err
			}

			if err := validateRequest(lockCtx, tx, req); err != nil {
				var ve *ValidationError
				if errors.As(err, &ve) {
					return &rescheduleFallback{cause: err}
				}
				return err
			}

			cur.DoctorID = req.DoctorID
			cur.PatientID = patientID
			cur.ServiceID = req.ServiceID
			cur.At = req.At
			cur.Urgent = req.Urgent
			cur.Comment = req.Comment

			updated, err = tx.UpdateAppointment(lockCtx, cur)
			if err != nil {
				return fmt.Errorf("update appointment: %w", err)
			}

			s.logEvent(lockCtx, tx, cur.ID, EventRescheduled, map[string]any{
				"doctor_id":  req.DoctorID,
				"patient_id": patientID,
				"at":         req.At,
			})
			return nil
		})

		var fb *rescheduleFallback
		if errors.As(err, &fb) {
			// The optimistic transaction rolled back, so refunds and the
			// record are untouched. Commit the fallback on its own: refund
			// the old pair for real and delete the appointment.
			if derr := s.discard(lockCtx, apptID); derr != nil {
				return derr
			}
			return &RescheduleDiscardedError{AppointmentID: apptID, Cause: fb.cause}
		}
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrActorBusy
		}
		return nil, err
	}

	return updated, nil
}

// discard refunds an appointment's quota pair and deletes the record. Runs
// with the actor locks already held.
func (s *Service) discard(ctx context.Context, apptID int64) error {
	return s.store.InTx(ctx, func(tx Store) error {
		cur, err := tx.GetAppointment(ctx, apptID)
		if err != nil {
			return err
		}

		doctor, err := tx.GetDoctorForUpdate(ctx, cur.DoctorID)
		if err != nil {
			return err
		}
		patient, err := tx.GetPatientForUpdate(ctx, cur.PatientID)
		if err != nil {
			return err
		}

		if err := s.ledger.Refund(ctx, tx, doctor, patient); err != nil {
			return err
		}
		if err := tx.DeleteAppointment(ctx, cur.ID); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}

		s.logEvent(ctx, tx, cur.ID, EventDiscarded, map[string]any{
			"doctor_id":  cur.DoctorID,
			"patient_id": cur.PatientID,
		})
		return nil
	})
}

// Cancel removes a patient's own appointment and refunds the quota pair.
// Only the owning patient may cancel through this entry.
func (s *Service) Cancel(ctx context.Context, apptID, patientID int64) error {
	return s.cancelAuthorized(ctx, apptID, func(a *Appointment) error {
		if a.PatientID != patientID {
			return ErrForbidden
		}
		return nil
	})
}

func (s *Service) cancelAuthorized(ctx context.Context, apptID int64, authorize func(*Appointment) error) error {
	current, err := s.store.GetAppointment(ctx, apptID)
	if err != nil {
		return err
	}
	if err := authorize(current); err != nil {
		return err
	}

	keys := []string{
		redisclient.DoctorKey(current.DoctorID),
		redisclient.PatientKey(current.PatientID),
	}

	err = s.locker.WithActorLocks(ctx, keys, func(lockCtx context.Context) error {
		return s.store.InTx(lockCtx, func(tx Store) error {
			cur, err := tx.GetAppointment(lockCtx, apptID)
			if err != nil {
				return err
			}
			// Re-check under the lock; the record may have changed hands
			// between the pre-read and here.
			if err := authorize(cur); err != nil {
				return err
			}

			doctor, err := tx.GetDoctorForUpdate(lockCtx, cur.DoctorID)
			if err != nil {
				return err
			}
			patient, err := tx.GetPatientForUpdate(lockCtx, cur.PatientID)
			if err != nil {
				return err
			}

			if err := s.ledger.Refund(lockCtx, tx, doctor, patient); err != nil {
				return err
			}
			if err := tx.DeleteAppointment(lockCtx, cur.ID); err != nil {
				return fmt.Errorf("delete appointment: %w", err)
			}

			s.logEvent(lockCtx, tx, cur.ID, EventCancelled, map[string]any{
				"doctor_id":  cur.DoctorID,
				"patient_id": cur.PatientID,
			})
			return nil
		})
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrActorBusy
	}
	return err
}

// Complete flips the appointment to completed. Quota-neutral; completing an
// already-completed appointment is a no-op with the same outcome.
func (s *Service) Complete(ctx context.Context, apptID int64) (*Appointment, error) {
	var done *Appointment
	err := s.store.InTx(ctx, func(tx Store) error {
		appt, err := tx.MarkAppointmentCompleted(ctx, apptID)
		if err != nil {
			return err
		}
		done = appt
		s.logEvent(ctx, tx, appt.ID, EventCompleted, map[string]any{})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

// Resolve is the single cancel-or-complete entry used by staff screens.
// One authorization policy for both actions: a patient must own the
// appointment, a doctor must be the appointment's doctor, a leader may
// always act.
func (s *Service) Resolve(ctx context.Context, apptID int64, action string, caller Caller) (*Appointment, error) {
	authorize := func(a *Appointment) error {
		switch caller.Role {
		case RolePatient:
			if a.PatientID != caller.RoleID {
				return ErrForbidden
			}
		case RoleDoctor:
			if a.DoctorID != caller.RoleID {
				return ErrForbidden
			}
		case RoleLeader:
		default:
			return ErrForbidden
		}
		return nil
	}

	switch action {
	case ActionCancel:
		return nil, s.cancelAuthorized(ctx, apptID, authorize)
	case ActionComplete:
		appt, err := s.store.GetAppointment(ctx, apptID)
		if err != nil {
			return nil, err
		}
		if err := authorize(appt); err != nil {
			return nil, err
		}
		return s.Complete(ctx, apptID)
	default:
		return nil, ErrInvalidAction
	}
}

// GetAppointment loads one appointment record.
func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	return s.store.GetAppointment(ctx, id)
}

// TodaySchedule lists a doctor's appointments for one calendar day.
func (s *Service) TodaySchedule(ctx context.Context, doctorID int64, day time.Time) ([]Appointment, error) {
	return s.store.ListByDoctorAndDate(ctx, doctorID, day)
}

// PatientAppointments lists a patient's appointments, optionally filtered by
// completion, newest first.
func (s *Service) PatientAppointments(ctx context.Context, patientID int64, completed *bool, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 4 // the portal shows the last few
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.ListByPatient(ctx, patientID, completed, limit)
}

func validateRequest(ctx context.Context, s Store, req BookingRequest) error {
	if req.At.IsZero() {
		return &ValidationError{Field: "at", Reason: "timestamp is required"}
	}
	svc, err := s.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return &ValidationError{Field: "service_id", Reason: "service does not exist"}
		}
		return err
	}
	if svc.DoctorID != req.DoctorID {
		return &ValidationError{Field: "service_id", Reason: "service is not offered by this doctor"}
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, tx Store, appointmentID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := BookingEvent{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := tx.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Int64("appointment_id", appointmentID).Msg("insert event log")
	}
}
