package mockapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/users"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	ti := NewTokenIssuer("secret", time.Minute, func() time.Time { return now })

	raw, issued, err := ti.Issue(&users.User{ID: "u1", Role: users.RoleTeacher, SchoolID: DemoSchoolID})
	require.NoError(t, err)

	claims, err := ti.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, issued.ID, claims.ID)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, users.RoleTeacher, claims.Role)

	now = now.Add(2 * time.Minute)
	_, err = ti.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)

	other := NewTokenIssuer("other", time.Minute, time.Now)
	_, err = other.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRevokedTokensCleanup(t *testing.T) {
	now := time.Now()
	r := newRevokedTokens()
	r.Add("a", now.Add(-time.Minute))
	r.Add("b", now.Add(time.Minute))

	r.Cleanup(now)
	require.False(t, r.IsRevoked("a"))
	require.True(t, r.IsRevoked("b"))
}
