package mockapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/users"
)

const (
	issuer             = "visitor-dashboard-mock"
	refreshTokenLength = 32 // 32 bytes = 256 bits
)

// AccessClaims are the claims carried by mock access tokens.
type AccessClaims struct {
	Role     users.RoleType `json:"role"`
	SchoolID string         `json:"school_id,omitempty"`
	jwtlib.RegisteredClaims
}

// TokenIssuer signs and parses HS256 access tokens.
type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	nowTime func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration, nowTime func() time.Time) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, nowTime: nowTime}
}

// Issue creates an access token for user.
func (ti *TokenIssuer) Issue(user *users.User) (string, *AccessClaims, error) {
	now := ti.nowTime()
	claims := &AccessClaims{
		Role:     user.Role,
		SchoolID: user.SchoolID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ti.ttl)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, claims, nil
}

// Parse validates signature, issuer and expiry.
func (ti *TokenIssuer) Parse(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims,
		func(*jwtlib.Token) (interface{}, error) { return ti.secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithTimeFunc(ti.nowTime),
	)
	switch {
	case err == nil:
		return claims, nil
	case apperrors.Is(err, jwtlib.ErrTokenExpired):
		return nil, apperrors.ErrTokenExpired
	default:
		return nil, apperrors.Wrapf(apperrors.ErrInvalidToken, "%v", err)
	}
}

func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
