package service

import (
	"context"
	"testing"

	"pulse/internal/models"
	"pulse/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLike_LikeThenUnlikeScenario(t *testing.T) {
	e := newTestEnv(t)
	u2 := e.newUser("user2")
	u3 := e.newUser("user3")
	post := e.newPost(u3)

	res, err := e.engagement.ToggleLike(e.ctx, post.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Likes: 1, IsLiked: true}, res)

	notes := e.notificationRows()
	require.Len(t, notes, 1)
	assert.Equal(t, u3.ID, notes[0].RecipientID)
	assert.Equal(t, u2.ID, notes[0].SenderID)
	assert.Equal(t, models.NotificationLike, notes[0].Type)
	require.NotNil(t, notes[0].PostID)
	assert.Equal(t, post.ID, *notes[0].PostID)

	res, err = e.engagement.ToggleLike(e.ctx, post.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Likes: 0, IsLiked: false}, res)
	assert.Len(t, e.notificationRows(), 1)
}

func TestToggleLike_TwiceRestoresState(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	fan := e.newUser("fan")
	other := e.newUser("other")
	post := e.newPost(author)

	_, err := e.engagement.ToggleLike(e.ctx, post.ID, other.ID)
	require.NoError(t, err)
	before := e.stored(post.ID)

	for i := 0; i < 2; i++ {
		_, err := e.engagement.ToggleLike(e.ctx, post.ID, fan.ID)
		require.NoError(t, err)
	}

	after := e.stored(post.ID)
	assert.Equal(t, before.Likes, after.Likes)
	assert.Equal(t, int64(0), e.count(&models.Like{}, "post_id = ? AND user_id = ?", post.ID, fan.ID))
	assert.Equal(t, int64(1), e.likeRows(post.ID))
}

func TestToggleLike_CounterMatchesMembership(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	post := e.newPost(author)
	users := []*models.User{e.newUser("alice"), e.newUser("bobby"), e.newUser("carol")}

	sequence := []int{0, 1, 2, 1, 0, 0, 2, 1, 1}
	for _, i := range sequence {
		res, err := e.engagement.ToggleLike(e.ctx, post.ID, users[i].ID)
		require.NoError(t, err)
		assert.Equal(t, int(e.likeRows(post.ID)), res.Likes)
		assert.Equal(t, int(e.likeRows(post.ID)), e.stored(post.ID).Likes)
	}
}

// racingLikeRepo lets a concurrent toggle insert the like between this
// toggle's remove and add.
type racingLikeRepo struct {
	repository.PostRepository
	raced bool
}

func (r *racingLikeRepo) RemoveLike(ctx context.Context, postID, userID string) (bool, int, error) {
	if !r.raced {
		r.raced = true
		if _, _, err := r.PostRepository.AddLike(ctx, postID, userID); err != nil {
			return false, 0, err
		}
		return false, 0, nil
	}
	return r.PostRepository.RemoveLike(ctx, postID, userID)
}

func TestToggleLike_ConcurrentInsertStillFlips(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	fan := e.newUser("fan")
	post := e.newPost(author)

	notifier := &recordingNotifier{}
	svc := NewEngagementService(&racingLikeRepo{PostRepository: e.posts}, notifier)

	res, err := svc.ToggleLike(e.ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Likes: 0, IsLiked: false}, res)
	assert.Zero(t, e.likeRows(post.ID))
	assert.Equal(t, 0, e.stored(post.ID).Likes)
	assert.Empty(t, notifier.events)
}

func TestToggleLike_OwnPostIsNotNotified(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	post := e.newPost(author)

	res, err := e.engagement.ToggleLike(e.ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, res.IsLiked)
	assert.Empty(t, e.notificationRows())
}

func TestToggleLike_Errors(t *testing.T) {
	e := newTestEnv(t)
	u := e.newUser("someone")

	_, err := e.engagement.ToggleLike(e.ctx, "missing", u.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	_, err = e.engagement.ToggleLike(e.ctx, "post", " ")
	assert.True(t, models.HasCode(err, models.CodeInvalidInput))
}

func TestToggleBookmark(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	reader := e.newUser("reader")
	post := e.newPost(author)

	res, err := e.engagement.ToggleBookmark(e.ctx, post.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, res.Bookmarked)

	got, err := e.post.GetPost(e.ctx, post.ID, reader.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBookmarked)
	assert.False(t, got.IsLiked)

	res, err = e.engagement.ToggleBookmark(e.ctx, post.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, res.Bookmarked)
	assert.Empty(t, e.notificationRows())
}

func TestRecordView(t *testing.T) {
	e := newTestEnv(t)
	post := e.newPost(e.newUser("author"))

	for want := 1; want <= 3; want++ {
		res, err := e.engagement.RecordView(e.ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, want, res.Views)
	}

	_, err := e.engagement.RecordView(e.ctx, "missing")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
