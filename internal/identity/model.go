package identity

import (
	"context"
	"errors"
	"time"
)

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
	RoleLeader  = "leader"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is a login account linked to exactly one role profile by RoleID.
type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	Role         string
	RoleID       int64
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is what the rest of the system consumes about a caller: the role
// and the role-scoped numeric id, nothing session related.
type Identity struct {
	UserID int64
	Role   string
	RoleID int64
}

// Repository holds user accounts plus the patient provisioning write.
type Repository interface {
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByRole(ctx context.Context, role string, roleID int64) (*User, error)
	CreateUser(ctx context.Context, u *User) (*User, error)

	// CreatePatientProfile inserts the patient row and returns its id; the
	// service links a User to it in the same unit of work.
	CreatePatientProfile(ctx context.Context, p PatientProfile) (int64, error)
	InTx(ctx context.Context, fn func(r Repository) error) error
}

// PatientProfile are the clinic-side fields of a newly provisioned patient.
type PatientProfile struct {
	Region    string
	Exempt    bool
	Remaining int
	BirthDate time.Time
	Address   string
	Phone     string
	CompanyID int64
}
