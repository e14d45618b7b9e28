package service

import (
	"context"
	"errors"
	"testing"

	"pulse/internal/models"
	"pulse/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletePost_RemovesDependents(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	fan := e.newUser("fan")
	post := e.newPost(author)
	keep := e.newPost(author)

	_, err := e.engagement.ToggleLike(e.ctx, post.ID, fan.ID)
	require.NoError(t, err)
	_, err = e.engagement.ToggleBookmark(e.ctx, post.ID, fan.ID)
	require.NoError(t, err)
	_, err = e.comment.AddComment(e.ctx, AddCommentInput{PostID: post.ID, UserID: fan.ID, Text: "hi"})
	require.NoError(t, err)
	_, err = e.comment.AddComment(e.ctx, AddCommentInput{PostID: keep.ID, UserID: fan.ID, Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, e.cascade.DeletePost(e.ctx, post.ID))

	assert.Zero(t, e.count(&models.Post{}, "id = ?", post.ID))
	assert.Zero(t, e.count(&models.Comment{}, "post_id = ?", post.ID))
	assert.Zero(t, e.count(&models.Notification{}, "post_id = ?", post.ID))
	assert.Zero(t, e.count(&models.Like{}, "post_id = ?", post.ID))
	assert.Zero(t, e.count(&models.Bookmark{}, "post_id = ?", post.ID))
	assert.Equal(t, int64(1), e.count(&models.Comment{}, "post_id = ?", keep.ID))

	profile, err := e.user.GetUser(e.ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Stats.PostsCount)

	err = e.cascade.DeletePost(e.ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestDeleteUser_FollowScenario(t *testing.T) {
	e := newTestEnv(t)
	u1 := e.newUser("user1")
	u2 := e.newUser("user2")

	_, err := e.follow.ToggleFollow(e.ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	_, err = e.follow.ToggleFollow(e.ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	require.Len(t, e.notificationRows(), 2)

	require.NoError(t, e.cascade.DeleteUser(e.ctx, u2.ID))

	assert.Zero(t, e.count(&models.Follow{}, "follower_id = ? OR following_id = ?", u2.ID, u2.ID))
	assert.Zero(t, e.count(&models.Notification{}, "recipient_id = ? OR sender_id = ?", u2.ID, u2.ID))

	status, err := e.follow.GetStatus(e.ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, status.Following)

	_, err = e.user.GetUser(e.ctx, u2.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestDeleteUser_CleansContentAndCounters(t *testing.T) {
	e := newTestEnv(t)
	doomed := e.newUser("doomed")
	other := e.newUser("other")
	own := e.newPost(doomed)
	theirs := e.newPost(other)

	_, err := e.engagement.ToggleLike(e.ctx, own.ID, other.ID)
	require.NoError(t, err)
	_, err = e.comment.AddComment(e.ctx, AddCommentInput{PostID: own.ID, UserID: other.ID, Text: "x"})
	require.NoError(t, err)
	_, err = e.engagement.ToggleLike(e.ctx, theirs.ID, doomed.ID)
	require.NoError(t, err)
	_, err = e.engagement.ToggleBookmark(e.ctx, theirs.ID, doomed.ID)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = e.comment.AddComment(e.ctx, AddCommentInput{PostID: theirs.ID, UserID: doomed.ID, Text: "x"})
		require.NoError(t, err)
	}

	require.NoError(t, e.cascade.DeleteUser(e.ctx, doomed.ID))

	assert.Zero(t, e.count(&models.Post{}, "author_id = ?", doomed.ID))
	assert.Zero(t, e.count(&models.Comment{}, "author_id = ? OR post_id = ?", doomed.ID, own.ID))
	assert.Zero(t, e.count(&models.Like{}, "user_id = ?", doomed.ID))
	assert.Zero(t, e.count(&models.Bookmark{}, "user_id = ?", doomed.ID))

	stored := e.stored(theirs.ID)
	assert.Equal(t, 0, stored.Likes)
	assert.Equal(t, 0, stored.Stats.CommentsCount)

	err = e.cascade.DeleteUser(e.ctx, doomed.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

// flakyCommentRepo fails the bulk comment delete.
type flakyCommentRepo struct {
	repository.CommentRepository
}

func (flakyCommentRepo) DeleteByPost(context.Context, string) (int64, error) {
	return 0, models.NewInternalError(errors.New("connection reset"))
}

func TestDeletePost_PartialFailure(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	fan := e.newUser("fan")
	post := e.newPost(author)
	_, err := e.comment.AddComment(e.ctx, AddCommentInput{PostID: post.ID, UserID: fan.ID, Text: "x"})
	require.NoError(t, err)

	cascade := NewCascadeService(e.posts, flakyCommentRepo{e.comments}, e.follows, e.notifications, e.users)
	err = cascade.DeletePost(e.ctx, post.ID)
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodePartialCascadeFailure, appErr.Code)
	assert.Equal(t, []string{StepDeleteComments}, appErr.FailedSteps)
	assert.ErrorContains(t, err, "connection reset")

	// Later steps still ran.
	assert.Zero(t, e.count(&models.Post{}, "id = ?", post.ID))
	assert.Zero(t, e.count(&models.Notification{}, "post_id = ?", post.ID))

	// The sweep finishes the job.
	report, err := e.cascade.SweepOrphans(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.CommentsRemoved)
	assert.Zero(t, e.count(&models.Comment{}, "post_id = ?", post.ID))
}

// stuckPostRepo fails the post row delete.
type stuckPostRepo struct {
	repository.PostRepository
}

func (stuckPostRepo) Delete(context.Context, string) (bool, error) {
	return false, errors.New("lock timeout")
}

// stuckUserRepo fails the user row delete.
type stuckUserRepo struct {
	repository.UserRepository
}

func (stuckUserRepo) Delete(context.Context, string) (bool, error) {
	return false, errors.New("lock timeout")
}

func TestDeletePost_PrimaryDeleteFailureIsInternal(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	fan := e.newUser("fan")
	post := e.newPost(author)
	_, err := e.comment.AddComment(e.ctx, AddCommentInput{PostID: post.ID, UserID: fan.ID, Text: "x"})
	require.NoError(t, err)

	cascade := NewCascadeService(stuckPostRepo{e.posts}, e.comments, e.follows, e.notifications, e.users)
	err = cascade.DeletePost(e.ctx, post.ID)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)
	assert.Equal(t, []string{StepDeletePost}, appErr.FailedSteps)
	assert.NotContains(t, appErr.Message, "deleted with")
	assert.ErrorContains(t, err, "lock timeout")

	assert.Equal(t, int64(1), e.count(&models.Post{}, "id = ?", post.ID))
	profile, err := e.user.GetUser(e.ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Stats.PostsCount)
}

func TestDeleteUser_PrimaryDeleteFailureIsInternal(t *testing.T) {
	e := newTestEnv(t)
	doomed := e.newUser("doomed")
	other := e.newUser("other")
	_, err := e.follow.ToggleFollow(e.ctx, other.ID, doomed.ID)
	require.NoError(t, err)

	cascade := NewCascadeService(e.posts, e.comments, e.follows, e.notifications, stuckUserRepo{e.users})
	err = cascade.DeleteUser(e.ctx, doomed.ID)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeInternal, appErr.Code)
	assert.Equal(t, []string{StepDeleteUser}, appErr.FailedSteps)
	assert.Equal(t, int64(1), e.count(&models.User{}, "id = ?", doomed.ID))
}

func TestDeleteUser_PartialFailurePrefixesPostSteps(t *testing.T) {
	e := newTestEnv(t)
	doomed := e.newUser("doomed")
	post := e.newPost(doomed)

	cascade := NewCascadeService(e.posts, flakyCommentRepo{e.comments}, e.follows, e.notifications, e.users)
	err := cascade.DeleteUser(e.ctx, doomed.ID)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"post:" + post.ID + ":" + StepDeleteComments}, appErr.FailedSteps)
	assert.Zero(t, e.count(&models.User{}, "id = ?", doomed.ID))
}

func TestSweepOrphans(t *testing.T) {
	e := newTestEnv(t)
	author := e.newUser("author")
	fan := e.newUser("fan")
	post := e.newPost(author)
	_, err := e.engagement.ToggleLike(e.ctx, post.ID, fan.ID)
	require.NoError(t, err)

	// Simulate a cascade that stopped after removing the user row.
	require.NoError(t, e.db.Where("id = ?", author.ID).Delete(&models.User{}).Error)
	// And a drifted counter on a surviving post.
	survivor := e.newPost(fan)
	require.NoError(t, e.db.Model(&models.Post{}).Where("id = ?", survivor.ID).UpdateColumn("likes", 5).Error)
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", fan.ID).UpdateColumn("stats_posts_count", 7).Error)

	report, err := e.cascade.SweepOrphans(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.OrphanPostsDeleted)
	assert.Equal(t, int64(1), report.PostCountersCorrected)
	assert.Equal(t, int64(1), report.UserCountersCorrected)
	assert.Empty(t, report.FailedSteps)

	assert.Zero(t, e.count(&models.Post{}, "id = ?", post.ID))
	assert.Zero(t, e.count(&models.Like{}, "post_id = ?", post.ID))
	assert.Zero(t, e.count(&models.Notification{}, "recipient_id = ?", author.ID))
	assert.Equal(t, 0, e.stored(survivor.ID).Likes)

	again, err := e.cascade.SweepOrphans(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, &SweepReport{}, again)
}
