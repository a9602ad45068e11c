package directory

import (
	"context"
	"errors"
	"time"

	"github.com/wellnest/clinic-backend/internal/booking"
)

var (
	ErrSpecialityNotFound = errors.New("speciality not found")
	ErrLeaderNotFound     = errors.New("leader not found")
)

// Leader is a regional administrator; Region scopes every listing a leader
// may see.
type Leader struct {
	ID     int64
	Region string
	Active bool
}

type Speciality struct {
	ID   int64
	Name string
}

// DoctorAccount merges a doctor profile with its login account, the shape
// the clinic screens display.
type DoctorAccount struct {
	booking.Doctor
	Username  string
	FirstName string
	LastName  string
	Email     string
}

type PatientAccount struct {
	booking.Patient
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// RegionPatient annotates a patient with their visit history against one
// doctor.
type RegionPatient struct {
	PatientAccount
	LastVisit *time.Time
}

// OverviewCounts are the leader dashboard counters.
type OverviewCounts struct {
	Patients        int
	Doctors         int
	Appointments    int
	DoctorMessages  int
	PatientMessages int
}

// OverviewRow is one line of the leader dashboard's today table.
type OverviewRow struct {
	PatientName string
	DoctorName  string
	At          time.Time
	ServiceName string
	Completed   bool
}

// Repository is the read side: region- and role-scoped listings assembled
// with their account info.
type Repository interface {
	ListSpecialities(ctx context.Context) ([]Speciality, error)
	DoctorsBySpeciality(ctx context.Context, specialityID int64) ([]DoctorAccount, error)
	ListDoctors(ctx context.Context) ([]DoctorAccount, error)
	ListPatients(ctx context.Context) ([]PatientAccount, error)
	DoctorAccountByID(ctx context.Context, id int64) (*DoctorAccount, error)
	PatientAccountByID(ctx context.Context, id int64) (*PatientAccount, error)
	GetLeader(ctx context.Context, id int64) (*Leader, error)
	ServicesByDoctor(ctx context.Context, doctorID int64) ([]booking.MedicalService, error)
	PatientsByRegion(ctx context.Context, region string) ([]PatientAccount, error)
	LastVisit(ctx context.Context, patientID, doctorID int64) (*time.Time, error)
	Counts(ctx context.Context) (OverviewCounts, error)
	AppointmentsOn(ctx context.Context, day time.Time) ([]OverviewRow, error)
}
