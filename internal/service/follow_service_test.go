package service

import (
	"testing"

	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFollow_TwiceRestoresState(t *testing.T) {
	e := newTestEnv(t)
	a := e.newUser("alice")
	b := e.newUser("bobby")

	res, err := e.follow.ToggleFollow(e.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, res.Following)

	status, err := e.follow.GetStatus(e.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, status.Following)

	reverse, err := e.follow.GetStatus(e.ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, reverse.Following, "edges are directed")

	res, err = e.follow.ToggleFollow(e.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, res.Following)
	assert.Zero(t, e.count(&models.Follow{}, "follower_id = ?", a.ID))

	notes := e.notificationRows()
	require.Len(t, notes, 1, "only the created edge notifies")
	assert.Equal(t, models.NotificationFollow, notes[0].Type)
	assert.Equal(t, b.ID, notes[0].RecipientID)
	assert.Nil(t, notes[0].PostID)
}

func TestToggleFollow_SelfAlwaysRejected(t *testing.T) {
	e := newTestEnv(t)
	a := e.newUser("alice")

	for i := 0; i < 2; i++ {
		_, err := e.follow.ToggleFollow(e.ctx, a.ID, a.ID)
		assert.True(t, models.HasCode(err, models.CodeSelfActionDenied))
	}
	assert.Zero(t, e.count(&models.Follow{}, "1 = 1"))
	assert.Empty(t, e.notificationRows())
}

func TestToggleFollow_UnknownTarget(t *testing.T) {
	e := newTestEnv(t)
	a := e.newUser("alice")

	_, err := e.follow.ToggleFollow(e.ctx, a.ID, "ghost")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	_, err = e.follow.ToggleFollow(e.ctx, "", a.ID)
	assert.True(t, models.HasCode(err, models.CodeInvalidInput))
}

func TestToggleFollow_UnknownFollower(t *testing.T) {
	e := newTestEnv(t)
	a := e.newUser("alice")

	_, err := e.follow.ToggleFollow(e.ctx, "ghost", a.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Zero(t, e.count(&models.Follow{}, "follower_id = ?", "ghost"))
	assert.Empty(t, e.notificationRows())

	status, err := e.follow.GetStatus(e.ctx, "ghost", a.ID)
	require.NoError(t, err)
	assert.False(t, status.Following)
}

func TestFollowListsAndCounts(t *testing.T) {
	e := newTestEnv(t)
	a := e.newUser("alice")
	b := e.newUser("bobby")
	c := e.newUser("carol")

	for _, pair := range [][2]*models.User{{a, c}, {b, c}, {c, a}} {
		_, err := e.follow.ToggleFollow(e.ctx, pair[0].ID, pair[1].ID)
		require.NoError(t, err)
	}

	followers, err := e.follow.ListFollowers(e.ctx, c.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, userIDs(followers))

	following, err := e.follow.ListFollowing(e.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, userIDs(following))

	profile, err := e.user.GetUser(e.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.FollowersCount)
	assert.Equal(t, 1, profile.FollowingCount)

	_, err = e.follow.ListFollowers(e.ctx, "ghost")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func userIDs(users []models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
