package session

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/visitor-session/users"
)

func requireConsistent(t *testing.T, s Session) {
	t.Helper()
	require.Equal(t, s.User != nil && s.AccessToken != "", s.IsAuthenticated)
	if !s.IsAuthenticated {
		require.Nil(t, s.User)
		require.Empty(t, s.AccessToken)
		require.Empty(t, s.RefreshToken)
	}
}

func TestReduceTransitions(t *testing.T) {
	alice := &users.User{ID: "u1", Role: users.RoleAdmin, FirstName: "Alice"}

	s := reduce(Session{Error: "old"}, action{typ: actionStartLogin})
	require.True(t, s.IsLoading)
	require.Empty(t, s.Error)
	require.False(t, s.IsAuthenticated)

	s = reduce(s, action{typ: actionLoginSuccess, user: alice, accessToken: "a1", refreshToken: "r1"})
	require.True(t, s.IsAuthenticated)
	require.False(t, s.IsLoading)
	require.Empty(t, s.Error)
	require.Equal(t, "a1", s.AccessToken)
	require.Equal(t, "r1", s.RefreshToken)

	alice.FirstName = "Mutated"
	require.Equal(t, "Alice", s.User.FirstName, "reducer must not alias the action user")

	s = reduce(s, action{typ: actionProfileUpdated, user: &users.User{ID: "u1", Role: users.RoleAdmin, Phone: "555"}})
	require.Equal(t, "555", s.User.Phone)
	require.Equal(t, "a1", s.AccessToken)
	require.True(t, s.IsAuthenticated)

	s = reduce(s, action{typ: actionLoginFailure, message: "Invalid credentials"})
	require.Equal(t, Session{Error: "Invalid credentials"}, s)

	s = reduce(s, action{typ: actionClearError})
	require.Equal(t, Session{}, s)

	s = reduce(s, action{typ: actionProfileUpdated, user: alice})
	require.Nil(t, s.User, "profile update without a session is ignored")
	require.False(t, s.IsAuthenticated)

	s = reduce(s, action{typ: actionProfileRefreshed, user: alice})
	require.Nil(t, s.User)
}

func TestReduceLoginSuccessWithoutTokenIsAnonymous(t *testing.T) {
	s := reduce(Session{}, action{typ: actionLoginSuccess, user: &users.User{ID: "u1"}})
	require.False(t, s.IsAuthenticated)
	require.Nil(t, s.User)
}

func TestReduceProfileRefreshedClearsError(t *testing.T) {
	s := Session{User: &users.User{ID: "u1"}, AccessToken: "a", IsAuthenticated: true, Error: "stale"}
	s = reduce(s, action{typ: actionProfileRefreshed, user: &users.User{ID: "u1", Phone: "1"}})
	require.Empty(t, s.Error)
	require.Equal(t, "1", s.User.Phone)
	require.True(t, s.IsAuthenticated)
}

func TestReduceInvariantHoldsForAnySequence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	actions := []action{
		{typ: actionStartLogin},
		{typ: actionLoginSuccess, user: &users.User{ID: "u1", Role: users.RoleTeacher}, accessToken: "a", refreshToken: "r"},
		{typ: actionLoginSuccess, user: &users.User{ID: "u2"}, accessToken: "b"},
		{typ: actionLoginFailure, message: "nope"},
		{typ: actionLogout},
		{typ: actionProfileUpdated, user: &users.User{ID: "u1", Phone: "2"}},
		{typ: actionProfileUpdated},
		{typ: actionClearError},
		{typ: actionProfileRefreshed, user: &users.User{ID: "u1", LastName: "X"}},
	}

	for run := 0; run < 200; run++ {
		var s Session
		for step := 0; step < 20; step++ {
			a := actions[rng.Intn(len(actions))]
			before := s
			s = reduce(s, a)
			requireConsistent(t, s)
			if s.IsAuthenticated && !before.IsAuthenticated {
				require.Empty(t, s.Error)
			}
		}
	}
}

func TestClearErrorIdempotent(t *testing.T) {
	states := []Session{
		{},
		{Error: "x", IsLoading: true},
		reduce(Session{}, action{typ: actionLoginSuccess, user: &users.User{ID: "u1"}, accessToken: "a"}),
	}
	for _, s := range states {
		once := reduce(s, action{typ: actionClearError})
		twice := reduce(once, action{typ: actionClearError})
		require.Equal(t, once, twice)
	}
}

func TestActionString(t *testing.T) {
	require.Equal(t, "LOGOUT", actionLogout.String())
	require.Equal(t, "UNKNOWN", actionType(99).String())
}
