package identity

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundtrip(t *testing.T) {
	m := NewTokenManager("unit-test-secret", time.Hour)

	token, err := m.Issue(&User{ID: 7, Role: RoleDoctor, RoleID: 42})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ident, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ident.UserID != 7 || ident.Role != RoleDoctor || ident.RoleID != 42 {
		t.Errorf("identity = %+v, want user 7 doctor 42", ident)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue(&User{ID: 1, Role: RolePatient, RoleID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("unit-test-secret", -time.Minute)

	token, err := m.Issue(&User{ID: 1, Role: RolePatient, RoleID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	m := NewTokenManager("unit-test-secret", time.Hour)

	token, err := m.Issue(&User{ID: 1, Role: "superuser", RoleID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewTokenManager("unit-test-secret", time.Hour)

	if _, err := m.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
