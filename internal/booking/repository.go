package booking

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrStorageUnavailable wraps infrastructure failures of the store so
	// callers can tell an outage apart from an absent row. The engine never
	// retries; that is the caller's call.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Store contains all persistence the lifecycle engine needs. Implemented by
// PgStore against Postgres and by MemStore for tests and local runs.
type Store interface {
	// Actor rows. The ForUpdate variants take a row lock for the duration of
	// the surrounding InTx unit of work.
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	GetDoctorForUpdate(ctx context.Context, id int64) (*Doctor, error)
	GetPatient(ctx context.Context, id int64) (*Patient, error)
	GetPatientForUpdate(ctx context.Context, id int64) (*Patient, error)
	SetDoctorRemaining(ctx context.Context, id int64, remaining int) error
	SetPatientRemaining(ctx context.Context, id int64, remaining int) error

	GetService(ctx context.Context, id int64) (*MedicalService, error)

	// Appointment records. No cross-entity invariant lives here; the engine
	// owns the quota relationship.
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) error
	MarkAppointmentCompleted(ctx context.Context, id int64) (*Appointment, error)

	ListByDoctorAndDate(ctx context.Context, doctorID int64, day time.Time) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID int64, completed *bool, limit int) ([]Appointment, error)

	// CountBookedForDoctor returns the number of non-completed appointments
	// currently held against a doctor. Used by the quota auditor.
	CountBookedForDoctor(ctx context.Context, doctorID int64) (int, error)
	ListDoctorIDs(ctx context.Context) ([]int64, error)

	InsertEvent(ctx context.Context, ev BookingEvent) error

	// InTx runs fn against a transactional view of the store. Everything fn
	// does commits together or not at all.
	InTx(ctx context.Context, fn func(s Store) error) error
}
