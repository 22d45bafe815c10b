package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow_IsIdempotentAndDirected(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewFollowRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	require.NoError(t, repo.Follow(alice.ID, bob.ID))
	require.NoError(t, repo.Follow(alice.ID, bob.ID))

	following, err := repo.IsFollowing(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// The edge is directed; Bob doesn't follow Alice back.
	following, err = repo.IsFollowing(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)

	count, err := repo.FollowerCount(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = repo.FollowingCount(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestFollow_SurfacesStorageErrors(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewFollowRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	// With the table gone both the insert and the duplicate check fail;
	// that must come back as an error, not a silent no-op.
	require.NoError(t, gdb.DB.Exec("DROP TABLE follows").Error)
	assert.Error(t, repo.Follow(alice.ID, bob.ID))
}

func TestUnfollow_RemovesEdge(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewFollowRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	require.NoError(t, repo.Follow(alice.ID, bob.ID))
	require.NoError(t, repo.Unfollow(alice.ID, bob.ID))

	following, err := repo.IsFollowing(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestSuggestedUsers_ExcludesSelfAndFollowed(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewFollowRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")
	carol := createTestUser(t, gdb, "carol")

	require.NoError(t, repo.Follow(alice.ID, bob.ID))

	suggested, err := repo.SuggestedUsers(alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	assert.Equal(t, carol.Username, suggested[0].Username)
}

func TestSearchUsers_MatchesUsernameAndNameCaseInsensitive(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewFollowRepo(gdb)
	createTestUser(t, gdb, "alice")
	createTestUser(t, gdb, "alicia")
	createTestUser(t, gdb, "bob")

	users, err := repo.SearchUsers("ALI", 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.SearchUsers("bob", 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
}
