package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo   Repository
	tokens *TokenManager
	log    zerolog.Logger
}

func NewService(repo Repository, tokens *TokenManager, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		log:    log.With().Str("component", "identity").Logger(),
	}
}

// Login verifies credentials and returns a signed access token with the user.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("username", username).Str("role", user.Role).Msg("login")
	return token, user, nil
}

// ProvisionPatientInput carries everything a leader submits to enroll a
// patient.
type ProvisionPatientInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Profile   PatientProfile
}

// ProvisionPatientResult returns the generated credentials so the leader can
// hand them to the patient.
type ProvisionPatientResult struct {
	PatientID int64
	Username  string
	Password  string
}

// ProvisionPatient creates the patient profile and its login account in one
// unit of work, so a failed user insert never leaves an orphan profile. The
// default password derives from the patient's company id, matching the
// clinic's enrollment routine.
func (s *Service) ProvisionPatient(ctx context.Context, in ProvisionPatientInput) (*ProvisionPatientResult, error) {
	if in.Username == "" {
		return nil, errors.New("username is required")
	}

	defaultPassword := fmt.Sprintf("Pat@%d", in.Profile.CompanyID)
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var result ProvisionPatientResult

	err = s.repo.InTx(ctx, func(r Repository) error {
		patientID, err := r.CreatePatientProfile(ctx, in.Profile)
		if err != nil {
			return fmt.Errorf("create patient profile: %w", err)
		}

		user, err := r.CreateUser(ctx, &User{
			Username:     in.Username,
			Email:        in.Email,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Role:         RolePatient,
			RoleID:       patientID,
			PasswordHash: string(hash),
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		result = ProvisionPatientResult{
			PatientID: patientID,
			Username:  user.Username,
			Password:  defaultPassword,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("patient_id", result.PatientID).Msg("patient provisioned")
	return &result, nil
}

// UserForRole resolves the login account linked to a role profile, used by
// the read side to attach names to doctors and patients.
func (s *Service) UserForRole(ctx context.Context, role string, roleID int64) (*User, error) {
	return s.repo.GetUserByRole(ctx, role, roleID)
}
