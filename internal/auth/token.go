package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RolePatient Role = "PATIENT"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the resolved identity attached to a request: a medical
// center admin or a patient.
type Principal struct {
	ID     uuid.UUID
	Role   Role
	Mobile string // patients only
}

type claims struct {
	Role   Role   `json:"role"`
	Mobile string `json:"mobile,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 principal tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (t *TokenIssuer) Sign(p Principal) (string, error) {
	now := time.Now()
	c := claims{
		Role:   p.Role,
		Mobile: p.Mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) Verify(raw string) (*Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if c.Role != RoleAdmin && c.Role != RolePatient {
		return nil, ErrInvalidToken
	}

	return &Principal{ID: id, Role: c.Role, Mobile: c.Mobile}, nil
}
