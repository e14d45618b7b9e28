package repository

import (
	"context"
	"strings"

	"pulse/internal/models"
	"pulse/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// postColumns are the stored post columns read back on every query.
	postColumns = "posts.id, posts.author_id, posts.title, posts.body, posts.media_url, " +
		"posts.tags, posts.category, posts.stats_views, posts.created_at, posts.updated_at"
	// postCounts recomputes the denormalized counters from source rows so
	// reads never trust a drifted cache.
	postCounts = "(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS stats_comments_count"

	likesSubquery    = "(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id)"
	commentsSubquery = "(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)"
)

// FeedFilter narrows a post listing. Empty fields do not filter.
type FeedFilter struct {
	Category string
	AuthorID string
	// IDs restricts the listing to these posts.
	IDs    []string
	Limit  int
	Offset int
}

// PostCounters is the result of reconciling one post's counters.
type PostCounters struct {
	PostID            string `json:"postId"`
	Likes             int    `json:"likes"`
	CommentsCount     int    `json:"commentsCount"`
	LikesCorrected    bool   `json:"likesCorrected"`
	CommentsCorrected bool   `json:"commentsCorrected"`
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, viewerID string) (*models.Post, error)
	GetAuthorID(ctx context.Context, id string) (string, error)
	List(ctx context.Context, filter FeedFilter, viewerID string) ([]*models.Post, error)
	ListTags(ctx context.Context, filter FeedFilter) ([]*models.Post, error)
	ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error)
	ListOrphanIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) (bool, error)

	AddLike(ctx context.Context, postID, userID string) (added bool, likes int, err error)
	RemoveLike(ctx context.Context, postID, userID string) (removed bool, likes int, err error)
	AddBookmark(ctx context.Context, postID, userID string) (bool, error)
	RemoveBookmark(ctx context.Context, postID, userID string) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error)
	GetBookmarkedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error)
	DeleteEngagementForPost(ctx context.Context, postID string) error
	DeleteEngagementByUser(ctx context.Context, userID string) ([]string, error)
	DeleteOrphanEngagement(ctx context.Context) (int64, error)

	IncrementViews(ctx context.Context, postID string) (int, error)
	IncrementCommentsCount(ctx context.Context, postID string) error
	DecrementCommentsCount(ctx context.Context, postID string) error
	ReconcileCommentsCount(ctx context.Context, postID string) (int, error)
	ReconcileCounters(ctx context.Context, postID string) (*PostCounters, error)
	ReconcileAllCounters(ctx context.Context) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"post_id": post.ID, "author_id": post.AuthorID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id, viewerID string) (*models.Post, error) {
	var post models.Post
	err := r.withCounts(r.db.WithContext(ctx)).
		Preload("Author").
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, translate(err, "Post", id)
	}
	if err := r.markViewerState(ctx, viewerID, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetAuthorID(ctx context.Context, id string) (string, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Select("id", "author_id").Where("id = ?", id).First(&post).Error
	if err != nil {
		return "", translate(err, "Post", id)
	}
	return post.AuthorID, nil
}

func (r *postRepository) List(ctx context.Context, filter FeedFilter, viewerID string) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()
	q := applyFeedFilter(r.withCounts(r.db.WithContext(ctx)).Preload("Author"), filter)

	var posts []*models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.markViewerState(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListTags returns only the id and tags of the filtered posts, in feed order.
func (r *postRepository) ListTags(ctx context.Context, filter FeedFilter) ([]*models.Post, error) {
	defer observability.TrackQuery("list_tags", "posts")()
	q := applyFeedFilter(r.db.WithContext(ctx).Model(&models.Post{}).Select("posts.id, posts.tags"), filter)

	var posts []*models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func applyFeedFilter(q *gorm.DB, filter FeedFilter) *gorm.DB {
	if category := strings.TrimSpace(filter.Category); category != "" && !strings.EqualFold(category, "all") {
		q = q.Where("LOWER(posts.category) = ?", strings.ToLower(category))
	}
	if filter.AuthorID != "" {
		q = q.Where("posts.author_id = ?", filter.AuthorID)
	}
	if filter.IDs != nil {
		q = q.Where("posts.id IN ?", filter.IDs)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	return q.Order("posts.created_at DESC").Order("posts.id DESC")
}

func (r *postRepository) ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("author_id = ?", authorID).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ListOrphanIDs returns posts whose author no longer exists.
func (r *postRepository) ListOrphanIDs(ctx context.Context) ([]string, error) {
	db := r.db.WithContext(ctx)
	var ids []string
	err := db.Model(&models.Post{}).
		Where("author_id NOT IN (?)", db.Model(&models.User{}).Select("id")).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// Delete removes the post row and reports whether this call removed it.
func (r *postRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return false, models.NewInternalError(res.Error)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"post_id": id, "rows": res.RowsAffected})
	return res.RowsAffected > 0, nil
}

// withCounts selects the stored columns plus recomputed counters.
func (r *postRepository) withCounts(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).Select(postColumns + ", " + postCounts)
}

func (r *postRepository) markViewerState(ctx context.Context, viewerID string, posts []*models.Post) error {
	if viewerID == "" || len(posts) == 0 {
		return nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	liked, err := r.GetLikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	bookmarked, err := r.GetBookmarkedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}

	likedSet := toSet(liked)
	bookmarkedSet := toSet(bookmarked)
	for _, p := range posts {
		_, p.IsLiked = likedSet[p.ID]
		_, p.IsBookmarked = bookmarkedSet[p.ID]
	}
	return nil
}

// AddLike inserts the (post, user) pair and, only when the row is new,
// increments the post's like counter in the same transaction.
func (r *postRepository) AddLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var added bool
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Like{PostID: postID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected == 1
		if added {
			upd := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("likes", gorm.Expr("likes + 1"))
			if upd.Error != nil {
				return upd.Error
			}
			if upd.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).Select("likes").Scan(&likes).Error
	})
	if err != nil {
		return false, 0, translate(err, "Post", postID)
	}
	return added, likes, nil
}

// RemoveLike deletes the (post, user) pair and, only when a row was removed,
// decrements the counter floored at zero.
func (r *postRepository) RemoveLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var removed bool
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		if removed {
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("likes", floorDecrement("likes")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).Select("likes").Scan(&likes).Error
	})
	if err != nil {
		return false, 0, translate(err, "Post", postID)
	}
	return removed, likes, nil
}

func (r *postRepository) AddBookmark(ctx context.Context, postID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Bookmark{PostID: postID, UserID: userID})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *postRepository) RemoveBookmark(ctx context.Context, postID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Bookmark{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *postRepository) GetLikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error) {
	return r.memberPostIDs(ctx, &models.Like{}, userID, postIDs)
}

func (r *postRepository) GetBookmarkedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error) {
	return r.memberPostIDs(ctx, &models.Bookmark{}, userID, postIDs)
}

func (r *postRepository) memberPostIDs(ctx context.Context, model interface{}, userID string, postIDs []string) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// DeleteEngagementForPost removes every like and bookmark of the post.
func (r *postRepository) DeleteEngagementForPost(ctx context.Context, postID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("post_id = ?", postID).Delete(&models.Bookmark{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteEngagementByUser removes the user's likes and bookmarks and returns
// the ids of posts whose like counter is now stale.
func (r *postRepository) DeleteEngagementByUser(ctx context.Context, userID string) ([]string, error) {
	db := r.db.WithContext(ctx)
	var liked []string
	if err := db.Model(&models.Like{}).Where("user_id = ?", userID).Pluck("post_id", &liked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Where("user_id = ?", userID).Delete(&models.Bookmark{}).Error; err != nil {
		return liked, models.NewInternalError(err)
	}
	return liked, nil
}

// DeleteOrphanEngagement removes likes and bookmarks whose post or user no longer exists.
func (r *postRepository) DeleteOrphanEngagement(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	posts := db.Model(&models.Post{}).Select("id")
	users := db.Model(&models.User{}).Select("id")

	var total int64
	for _, model := range []interface{}{&models.Like{}, &models.Bookmark{}} {
		res := r.db.WithContext(ctx).
			Where("post_id NOT IN (?) OR user_id NOT IN (?)", posts, users).
			Delete(model)
		if res.Error != nil {
			return total, models.NewInternalError(res.Error)
		}
		total += res.RowsAffected
	}
	return total, nil
}

func (r *postRepository) IncrementViews(ctx context.Context, postID string) (int, error) {
	var views int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("stats_views", gorm.Expr("stats_views + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).Select("stats_views").Scan(&views).Error
	})
	if err != nil {
		return 0, translate(err, "Post", postID)
	}
	return views, nil
}

func (r *postRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("stats_comments_count", gorm.Expr("stats_comments_count + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) DecrementCommentsCount(ctx context.Context, postID string) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("stats_comments_count", floorDecrement("stats_comments_count")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ReconcileCommentsCount stores count(comments of post) and returns it.
func (r *postRepository) ReconcileCommentsCount(ctx context.Context, postID string) (int, error) {
	counters, err := r.reconcile(ctx, postID, false)
	if err != nil {
		return 0, err
	}
	return counters.CommentsCount, nil
}

// ReconcileCounters recomputes likes and stats.commentsCount from source rows.
func (r *postRepository) ReconcileCounters(ctx context.Context, postID string) (*PostCounters, error) {
	return r.reconcile(ctx, postID, true)
}

func (r *postRepository) reconcile(ctx context.Context, postID string, includeLikes bool) (*PostCounters, error) {
	var before, after models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "likes", "stats_comments_count").Where("id = ?", postID).First(&before).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"stats_comments_count": gorm.Expr(commentsSubquery),
		}
		if includeLikes {
			updates["likes"] = gorm.Expr(likesSubquery)
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumns(updates).Error; err != nil {
			return err
		}
		return tx.Select("id", "likes", "stats_comments_count").Where("id = ?", postID).First(&after).Error
	})
	if err != nil {
		return nil, translate(err, "Post", postID)
	}
	return &PostCounters{
		PostID:            postID,
		Likes:             after.Likes,
		CommentsCount:     after.Stats.CommentsCount,
		LikesCorrected:    before.Likes != after.Likes,
		CommentsCorrected: before.Stats.CommentsCount != after.Stats.CommentsCount,
	}, nil
}

// ReconcileAllCounters rewrites every drifted post counter and returns the
// number of posts that were corrected.
func (r *postRepository) ReconcileAllCounters(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("likes <> " + likesSubquery + " OR stats_comments_count <> " + commentsSubquery).
		UpdateColumns(map[string]interface{}{
			"likes":                gorm.Expr(likesSubquery),
			"stats_comments_count": gorm.Expr(commentsSubquery),
		})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
