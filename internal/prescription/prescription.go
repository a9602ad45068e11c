package prescription

import (
	"context"
	"errors"
	"time"
)

var ErrPrescriptionNotFound = errors.New("prescription not found")

// Prescription is an artifact a doctor attaches to an appointment. The file
// bytes are stored opaque; this service never renders them.
type Prescription struct {
	ID            int64
	AppointmentID int64
	Description   string
	File          []byte
}

// PatientEntry groups the prescriptions of one appointment with the issuing
// doctor's name, the shape the patient portal displays.
type PatientEntry struct {
	Prescriptions []Prescription
	DoctorName    string
	At            time.Time
}

type Repository interface {
	Create(ctx context.Context, p *Prescription) (*Prescription, error)
	ListByAppointment(ctx context.Context, appointmentID int64) ([]Prescription, error)
	// ListForPatient returns one entry per appointment of the patient that
	// has at least one prescription attached.
	ListForPatient(ctx context.Context, patientID int64) ([]PatientEntry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Attach(ctx context.Context, appointmentID int64, description string, file []byte) (*Prescription, error) {
	return s.repo.Create(ctx, &Prescription{
		AppointmentID: appointmentID,
		Description:   description,
		File:          file,
	})
}

func (s *Service) ForAppointment(ctx context.Context, appointmentID int64) ([]Prescription, error) {
	return s.repo.ListByAppointment(ctx, appointmentID)
}

func (s *Service) ForPatient(ctx context.Context, patientID int64) ([]PatientEntry, error) {
	return s.repo.ListForPatient(ctx, patientID)
}
