package fakeuserrepo_test

import (
	"testing"

	apperrors "github.com/jrsteele09/visitor-session/internal/errors"
	"github.com/jrsteele09/visitor-session/users"
	fakeuserrepo "github.com/jrsteele09/visitor-session/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	u := &users.User{Email: "Admin@School.com", Role: users.RoleAdmin, IsActive: true, PasswordHash: "hash"}
	require.NoError(t, repo.Upsert(u))
	require.NotEmpty(t, u.ID)

	got, err := repo.GetByEmail("admin@school.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "hash", got.PasswordHash)

	// Returned records are copies
	got.FirstName = "Changed"
	again, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Empty(t, again.FirstName)

	require.NoError(t, repo.SetActive("admin@school.com", false))
	again, err = repo.GetByID(u.ID)
	require.NoError(t, err)
	require.False(t, again.IsActive)

	_, err = repo.GetByEmail("nobody@school.com")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	require.ErrorIs(t, repo.SetActive("nobody@school.com", true), apperrors.ErrUserNotFound)
}

func TestFakeUserRepoList(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	for _, e := range []string{"c@school.com", "a@school.com", "b@school.com"} {
		require.NoError(t, repo.Upsert(&users.User{Email: e}))
	}

	all, err := repo.List(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "a@school.com", all[0].Email)

	page, err := repo.List(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "b@school.com", page[0].Email)

	empty, err := repo.List(5, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}
