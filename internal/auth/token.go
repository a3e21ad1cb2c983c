package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/flicky/hortifruti-api/internal/model"
)

var (
	ErrMissingToken = errors.New("token not provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrForbidden    = errors.New("access denied")
)

type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool { return c.Role == model.RoleAdmin }

// TokenManager issues and verifies HS256 tokens. Admin tokens and customer
// tokens have separate lifetimes.
type TokenManager struct {
	secret      []byte
	adminTTL    time.Duration
	customerTTL time.Duration
	now         func() time.Time
}

func NewTokenManager(secret string, adminTTL, customerTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:      []byte(secret),
		adminTTL:    adminTTL,
		customerTTL: customerTTL,
		now:         time.Now,
	}
}

func (m *TokenManager) Issue(userID uuid.UUID, role model.Role) (string, time.Time, error) {
	ttl := m.customerTTL
	if role == model.RoleAdmin {
		ttl = m.adminTTL
	}
	now := m.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// FromHeader verifies an "Authorization: Bearer <token>" header value.
func (m *TokenManager) FromHeader(header string) (*Claims, error) {
	if strings.TrimSpace(header) == "" {
		return nil, ErrMissingToken
	}
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidToken
	}
	return m.Parse(strings.TrimSpace(raw))
}
