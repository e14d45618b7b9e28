package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"pulse/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_AddLike_SkipsIncrementOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "likes" .*ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "likes" FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"likes"}).AddRow(3))
	mock.ExpectCommit()

	added, likes, err := repo.AddLike(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 3, likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_RemoveLike_FloorsCounter(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes"`)).
		WithArgs("p1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "likes"=CASE WHEN likes > 0 THEN likes - 1 ELSE 0 END`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "likes" FROM "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"likes"}).AddRow(0))
	mock.ExpectCommit()

	removed, likes, err := repo.RemoveLike(context.Background(), "p1", "u1")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_LikeRoundTrip(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	author := f.user("author")
	fan := f.user("fan")
	post := f.post(author, time.Now(), "")

	added, likes, err := repo.AddLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, likes)

	added, likes, err = repo.AddLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, added, "second insert must be a no-op")
	assert.Equal(t, 1, likes)

	removed, likes, err := repo.RemoveLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 0, likes)

	removed, likes, err = repo.RemoveLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 0, likes)
}

func TestPostRepository_AddLike_MissingPost(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)

	_, _, err := repo.AddLike(context.Background(), "missing", "u1")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	var count int64
	require.NoError(t, f.db.Model(&models.Like{}).Count(&count).Error)
	assert.Zero(t, count, "like row must be rolled back")
}

func TestPostRepository_List_FiltersAndOrders(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	alice := f.user("alice")
	bob := f.user("bob")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	p1 := f.post(alice, base.Add(3*time.Hour), "Tech")
	p2 := f.post(bob, base.Add(2*time.Hour), "music")
	p3 := f.post(alice, base.Add(1*time.Hour), "tech")

	ids := func(posts []*models.Post) []string {
		out := make([]string, len(posts))
		for i, p := range posts {
			out[i] = p.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter FeedFilter
		want   []string
	}{
		{name: "no filter", filter: FeedFilter{}, want: []string{p1.ID, p2.ID, p3.ID}},
		{name: "all category", filter: FeedFilter{Category: "ALL"}, want: []string{p1.ID, p2.ID, p3.ID}},
		{name: "category case-insensitive", filter: FeedFilter{Category: "TECH"}, want: []string{p1.ID, p3.ID}},
		{name: "author", filter: FeedFilter{AuthorID: bob.ID}, want: []string{p2.ID}},
		{name: "paged", filter: FeedFilter{Limit: 1, Offset: 1}, want: []string{p2.ID}},
		{name: "ids", filter: FeedFilter{IDs: []string{p3.ID, p1.ID}}, want: []string{p1.ID, p3.ID}},
		{name: "empty ids", filter: FeedFilter{IDs: []string{}}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := repo.List(ctx, tt.filter, "")
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, ids(posts)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPostRepository_ListTags(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	alice := f.user("alice")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	older := f.post(alice, base, "tech")
	newer := f.post(alice, base.Add(time.Hour), "music", "go", "web")

	posts, err := repo.ListTags(ctx, FeedFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer.ID, posts[0].ID)
	assert.Equal(t, []string{"go", "web"}, []string(posts[0].Tags))
	assert.Empty(t, posts[0].Title)
	assert.Equal(t, older.ID, posts[1].ID)

	posts, err = repo.ListTags(ctx, FeedFilter{Category: "tech"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, older.ID, posts[0].ID)
}

func TestPostRepository_GetByID_RecomputesCounters(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	author := f.user("author")
	viewer := f.user("viewer")
	post := f.post(author, time.Now(), "")
	f.comment(post, viewer)
	require.NoError(t, f.db.Create(&models.Like{PostID: post.ID, UserID: viewer.ID}).Error)

	// Stored counters drift from the rows.
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumns(map[string]interface{}{"likes": 7, "stats_comments_count": 9}).Error)

	got, err := repo.GetByID(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, 1, got.Stats.CommentsCount)
	assert.True(t, got.IsLiked)
	assert.False(t, got.IsBookmarked)
	require.NotNil(t, got.Author)
	assert.Equal(t, "author", got.Author.Username)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)

	_, err := repo.GetByID(context.Background(), "nope", "")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_ReconcileCounters(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	author := f.user("author")
	other := f.user("other")
	post := f.post(author, time.Now(), "")
	f.comment(post, other)
	f.comment(post, author)
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumns(map[string]interface{}{"likes": 4, "stats_comments_count": 0}).Error)

	counters, err := repo.ReconcileCounters(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &PostCounters{
		PostID:            post.ID,
		Likes:             0,
		CommentsCount:     2,
		LikesCorrected:    true,
		CommentsCorrected: true,
	}, counters)

	stored := f.storedPost(post.ID)
	assert.Equal(t, 0, stored.Likes)
	assert.Equal(t, 2, stored.Stats.CommentsCount)

	counters, err = repo.ReconcileCounters(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, counters.LikesCorrected)
	assert.False(t, counters.CommentsCorrected)
}

func TestPostRepository_ReconcileAllCounters(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	author := f.user("author")
	clean := f.post(author, time.Now(), "")
	drifted := f.post(author, time.Now(), "")
	require.NoError(t, f.db.Model(&models.Post{}).Where("id = ?", drifted.ID).UpdateColumn("likes", 5).Error)

	corrected, err := repo.ReconcileAllCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), corrected)
	assert.Equal(t, 0, f.storedPost(drifted.ID).Likes)
	assert.Equal(t, 0, f.storedPost(clean.ID).Likes)
}

func TestPostRepository_CommentCounterFloor(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	post := f.post(f.user("author"), time.Now(), "")

	require.NoError(t, repo.DecrementCommentsCount(ctx, post.ID))
	assert.Equal(t, 0, f.storedPost(post.ID).Stats.CommentsCount)

	require.NoError(t, repo.IncrementCommentsCount(ctx, post.ID))
	assert.Equal(t, 1, f.storedPost(post.ID).Stats.CommentsCount)
}

func TestPostRepository_IncrementViews(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	post := f.post(f.user("author"), time.Now(), "")
	views, err := repo.IncrementViews(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	_, err = repo.IncrementViews(ctx, "missing")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_DeleteOrphanEngagement(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	author := f.user("author")
	fan := f.user("fan")
	post := f.post(author, time.Now(), "")
	require.NoError(t, f.db.Create(&models.Like{PostID: post.ID, UserID: fan.ID}).Error)
	require.NoError(t, f.db.Create(&models.Like{PostID: "gone", UserID: fan.ID}).Error)
	require.NoError(t, f.db.Create(&models.Bookmark{PostID: post.ID, UserID: "ghost"}).Error)

	removed, err := repo.DeleteOrphanEngagement(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var likes int64
	require.NoError(t, f.db.Model(&models.Like{}).Count(&likes).Error)
	assert.Equal(t, int64(1), likes)
}

func TestPostRepository_DeleteEngagementByUser(t *testing.T) {
	f := newFixture(t)
	repo := NewPostRepository(f.db)
	ctx := context.Background()

	author := f.user("author")
	fan := f.user("fan")
	p1 := f.post(author, time.Now(), "")
	p2 := f.post(author, time.Now(), "")
	_, _, err := repo.AddLike(ctx, p1.ID, fan.ID)
	require.NoError(t, err)
	_, err = repo.AddBookmark(ctx, p2.ID, fan.ID)
	require.NoError(t, err)

	liked, err := repo.DeleteEngagementByUser(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p1.ID}, liked)

	bookmarked, err := repo.GetBookmarkedPostIDs(ctx, fan.ID, []string{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Empty(t, bookmarked)
}
