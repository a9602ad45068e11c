package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// memRepo is a map-backed Repository for service tests. InTx replays the
// mutation set only on success, mirroring the transactional repository.
type memRepo struct {
	users      map[string]*User
	nextUserID int64
	nextPatID  int64

	failCreateUser bool
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]*User), nextUserID: 1, nextPatID: 1}
}

func (r *memRepo) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) GetUserByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) GetUserByRole(ctx context.Context, role string, roleID int64) (*User, error) {
	for _, u := range r.users {
		if u.Role == role && u.RoleID == roleID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) CreateUser(ctx context.Context, u *User) (*User, error) {
	if r.failCreateUser {
		return nil, errors.New("user insert failed")
	}
	created := *u
	created.ID = r.nextUserID
	r.nextUserID++
	created.CreatedAt = time.Now()
	r.users[created.Username] = &created
	cp := created
	return &cp, nil
}

func (r *memRepo) CreatePatientProfile(ctx context.Context, p PatientProfile) (int64, error) {
	id := r.nextPatID
	r.nextPatID++
	return id, nil
}

func (r *memRepo) InTx(ctx context.Context, fn func(repo Repository) error) error {
	// Work on a shallow copy of the user map; keep it only when fn succeeds.
	snapshot := make(map[string]*User, len(r.users))
	for k, v := range r.users {
		snapshot[k] = v
	}
	snapUserID, snapPatID := r.nextUserID, r.nextPatID

	if err := fn(r); err != nil {
		r.users = snapshot
		r.nextUserID, r.nextPatID = snapUserID, snapPatID
		return err
	}
	return nil
}

func newTestIdentityService(repo Repository) *Service {
	return NewService(repo, NewTokenManager("unit-test-secret", time.Hour), zerolog.Nop())
}

func seedUser(t *testing.T, repo *memRepo, username, password, role string, roleID int64) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := repo.CreateUser(context.Background(), &User{
		Username:     username,
		Role:         role,
		RoleID:       roleID,
		PasswordHash: string(hash),
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "amel", "s3cret", RolePatient, 10)
	svc := newTestIdentityService(repo)

	token, user, err := svc.Login(context.Background(), "amel", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != RolePatient || user.RoleID != 10 {
		t.Errorf("user = %s/%d, want patient/10", user.Role, user.RoleID)
	}

	ident, err := NewTokenManager("unit-test-secret", time.Hour).Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ident.RoleID != 10 {
		t.Errorf("token role id = %d, want 10", ident.RoleID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "amel", "s3cret", RolePatient, 10)
	svc := newTestIdentityService(repo)

	if _, _, err := svc.Login(context.Background(), "amel", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestIdentityService(newMemRepo())

	// Unknown users get the same error as bad passwords.
	if _, _, err := svc.Login(context.Background(), "nobody", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestProvisionPatientDefaultPassword(t *testing.T) {
	repo := newMemRepo()
	svc := newTestIdentityService(repo)

	result, err := svc.ProvisionPatient(context.Background(), ProvisionPatientInput{
		Username: "new.patient",
		Profile:  PatientProfile{Region: "Algiers", Remaining: 3, CompanyID: 4821},
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	if result.Password != "Pat@4821" {
		t.Errorf("generated password = %q, want Pat@4821", result.Password)
	}
	if result.PatientID == 0 {
		t.Error("patient id not assigned")
	}

	// The generated password must actually log in.
	if _, _, err := svc.Login(context.Background(), "new.patient", result.Password); err != nil {
		t.Errorf("login with generated password: %v", err)
	}
}

func TestProvisionPatientRequiresUsername(t *testing.T) {
	svc := newTestIdentityService(newMemRepo())

	_, err := svc.ProvisionPatient(context.Background(), ProvisionPatientInput{
		Profile: PatientProfile{CompanyID: 1},
	})
	if err == nil || !strings.Contains(err.Error(), "username") {
		t.Fatalf("err = %v, want username requirement", err)
	}
}

func TestProvisionPatientRollsBackOnUserFailure(t *testing.T) {
	repo := newMemRepo()
	repo.failCreateUser = true
	svc := newTestIdentityService(repo)

	_, err := svc.ProvisionPatient(context.Background(), ProvisionPatientInput{
		Username: "new.patient",
		Profile:  PatientProfile{CompanyID: 1},
	})
	if err == nil {
		t.Fatal("expected error from failing user insert")
	}

	// Ids must rewind so no orphan profile id was consumed.
	if repo.nextPatID != 1 {
		t.Errorf("patient id sequence = %d, want rolled back 1", repo.nextPatID)
	}
	if len(repo.users) != 0 {
		t.Error("no user should survive the rollback")
	}
}
