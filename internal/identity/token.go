package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenManager issues and verifies the HS256 access tokens carried on every
// request. Claims carry only what Identity needs.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type accessClaims struct {
	Role   string `json:"role"`
	RoleID int64  `json:"role_id"`
	jwt.RegisteredClaims
}

func (m *TokenManager) Issue(u *User) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role:   u.Role,
		RoleID: u.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(raw string) (Identity, error) {
	var claims accessClaims

	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	var userID int64
	fmt.Sscanf(claims.Subject, "%d", &userID)

	switch claims.Role {
	case RoleDoctor, RolePatient, RoleLeader:
	default:
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID: userID,
		Role:   claims.Role,
		RoleID: claims.RoleID,
	}, nil
}
