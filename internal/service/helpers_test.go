package service

import (
	"context"
	"testing"
	"time"

	"pulse/internal/models"
	"pulse/internal/repository"
	"pulse/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv wires every service against one private sqlite database.
type testEnv struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB

	posts         repository.PostRepository
	comments      repository.CommentRepository
	follows       repository.FollowRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository

	notify     *NotificationService
	engagement *EngagementService
	comment    *CommentService
	follow     *FollowService
	feed       *FeedService
	post       *PostService
	user       *UserService
	cascade    *CascadeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	e := &testEnv{
		t:             t,
		ctx:           context.Background(),
		db:            db,
		posts:         repository.NewPostRepository(db),
		comments:      repository.NewCommentRepository(db),
		follows:       repository.NewFollowRepository(db),
		notifications: repository.NewNotificationRepository(db),
		users:         repository.NewUserRepository(db),
	}
	e.notify = NewNotificationService(e.notifications, nil, nil, 0)
	e.engagement = NewEngagementService(e.posts, e.notify)
	e.comment = NewCommentService(e.comments, e.posts, e.notify)
	e.follow = NewFollowService(e.follows, e.users, e.notify)
	e.feed = NewFeedService(e.posts, e.users, 0)
	e.post = NewPostService(e.posts, e.users)
	e.user = NewUserService(e.users)
	e.cascade = NewCascadeService(e.posts, e.comments, e.follows, e.notifications, e.users)
	return e
}

func (e *testEnv) newUser(name string, interests ...string) *models.User {
	e.t.Helper()
	u, err := e.user.CreateUser(e.ctx, CreateUserInput{
		Username:  name,
		Email:     name + "@example.com",
		Interests: interests,
	})
	require.NoError(e.t, err)
	return u
}

func (e *testEnv) newPost(author *models.User, tags ...string) *models.Post {
	e.t.Helper()
	p, err := e.post.CreatePost(e.ctx, CreatePostInput{
		AuthorID: author.ID,
		Title:    "post by " + author.Username,
		Body:     "body",
		Tags:     tags,
	})
	require.NoError(e.t, err)
	return p
}

// postAt inserts a post with a fixed creation time, bypassing the service.
func (e *testEnv) postAt(author *models.User, createdAt time.Time, title string, tags ...string) *models.Post {
	e.t.Helper()
	p := &models.Post{AuthorID: author.ID, Title: title, Tags: tags, CreatedAt: createdAt}
	require.NoError(e.t, e.db.Create(p).Error)
	return p
}

// stored reads the post's persisted counters without recomputation.
func (e *testEnv) stored(postID string) models.Post {
	e.t.Helper()
	var p models.Post
	require.NoError(e.t, e.db.Where("id = ?", postID).First(&p).Error)
	return p
}

func (e *testEnv) count(model interface{}, query string, args ...interface{}) int64 {
	e.t.Helper()
	var n int64
	require.NoError(e.t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (e *testEnv) likeRows(postID string) int64 {
	return e.count(&models.Like{}, "post_id = ?", postID)
}

func (e *testEnv) notificationRows() []models.Notification {
	e.t.Helper()
	var out []models.Notification
	require.NoError(e.t, e.db.Order("created_at").Find(&out).Error)
	return out
}

// recordingNotifier captures engagement events instead of storing them.
type recordingNotifier struct {
	events []NotifyInput
}

func (r *recordingNotifier) Notify(_ context.Context, in NotifyInput) {
	r.events = append(r.events, in)
}
