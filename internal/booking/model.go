package booking

import (
	"time"
)

// Doctor carries the quota counters the engine mutates. Remaining starts at
// Capacity and is decremented per booked appointment, refunded on cancel.
type Doctor struct {
	ID           int64
	Region       string
	SpecialityID int64
	Capacity     int
	Remaining    int
	Address      string
	Phone        string
}

// Patient has a personal booking quota unless Exempt is set, in which case
// Remaining is never read or written by the engine.
type Patient struct {
	ID        int64
	Region    string
	Exempt    bool
	Remaining int
	BirthDate time.Time
	Address   string
	Phone     string
}

// MedicalService is a bookable act offered by one doctor.
type MedicalService struct {
	ID          int64
	DoctorID    int64
	Name        string
	Duration    time.Duration
	Price       int
	Description string
}

type Appointment struct {
	ID        int64
	DoctorID  int64
	PatientID int64
	ServiceID int64
	At        time.Time
	Urgent    bool
	Completed bool
	Comment   string
}

// BookingEvent is an append-only audit row written for every engine transition.
type BookingEvent struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}

// BookingRequest are the caller-supplied fields of a booking or reschedule.
// The patient is always taken from the authenticated identity, never from
// the request body.
type BookingRequest struct {
	DoctorID  int64
	ServiceID int64
	At        time.Time
	Comment   string
	Urgent    bool
}
