package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wellnest/clinic-backend/internal/booking"
)

// Service is the role-scoped query layer: everything the clinic screens read
// but the lifecycle engine does not own.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "directory").Logger(),
	}
}

func (s *Service) Specialities(ctx context.Context) ([]Speciality, error) {
	return s.repo.ListSpecialities(ctx)
}

func (s *Service) DoctorsBySpeciality(ctx context.Context, specialityID int64) ([]DoctorAccount, error) {
	return s.repo.DoctorsBySpeciality(ctx, specialityID)
}

func (s *Service) Doctors(ctx context.Context) ([]DoctorAccount, error) {
	return s.repo.ListDoctors(ctx)
}

func (s *Service) Patients(ctx context.Context) ([]PatientAccount, error) {
	return s.repo.ListPatients(ctx)
}

func (s *Service) DoctorProfile(ctx context.Context, id int64) (*DoctorAccount, error) {
	return s.repo.DoctorAccountByID(ctx, id)
}

func (s *Service) PatientProfile(ctx context.Context, id int64) (*PatientAccount, error) {
	return s.repo.PatientAccountByID(ctx, id)
}

func (s *Service) ServicesByDoctor(ctx context.Context, doctorID int64) ([]booking.MedicalService, error) {
	return s.repo.ServicesByDoctor(ctx, doctorID)
}

// LeaderRegion resolves the region a leader administers.
func (s *Service) LeaderRegion(ctx context.Context, leaderID int64) (string, error) {
	leader, err := s.repo.GetLeader(ctx, leaderID)
	if err != nil {
		return "", err
	}
	return leader.Region, nil
}

// RegionPatients lists the patients in a doctor's own region, each annotated
// with their last visit to that doctor, if any.
func (s *Service) RegionPatients(ctx context.Context, doctorID int64) ([]RegionPatient, error) {
	doctor, err := s.repo.DoctorAccountByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	patients, err := s.repo.PatientsByRegion(ctx, doctor.Region)
	if err != nil {
		return nil, fmt.Errorf("patients in region %s: %w", doctor.Region, err)
	}

	out := make([]RegionPatient, 0, len(patients))
	for _, p := range patients {
		last, err := s.repo.LastVisit(ctx, p.ID, doctorID)
		if err != nil {
			return nil, fmt.Errorf("last visit for patient %d: %w", p.ID, err)
		}
		out = append(out, RegionPatient{PatientAccount: p, LastVisit: last})
	}
	return out, nil
}

// Overview assembles the leader dashboard: global counters plus today's
// appointment table.
type Overview struct {
	Counts OverviewCounts
	Today  []OverviewRow
}

func (s *Service) Overview(ctx context.Context, now time.Time) (*Overview, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("overview counts: %w", err)
	}

	today, err := s.repo.AppointmentsOn(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("today's appointments: %w", err)
	}

	return &Overview{Counts: counts, Today: today}, nil
}
