package repository

import (
	"context"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	CountByPost(ctx context.Context, postID string) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
	DeleteByAuthor(ctx context.Context, authorID string) ([]string, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func authorSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "avatar_url")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author", authorSummary).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, translate(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns the post's comments newest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.WithContext(ctx).
		Preload("Author", authorSummary).
		Where("post_id = ?", postID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) CountByPost(ctx context.Context, postID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByAuthor removes the author's comments and returns the distinct ids
// of the posts they were attached to.
func (r *commentRepository) DeleteByAuthor(ctx context.Context, authorID string) ([]string, error) {
	db := r.db.WithContext(ctx)
	var postIDs []string
	if err := db.Model(&models.Comment{}).Where("author_id = ?", authorID).Distinct().Pluck("post_id", &postIDs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Where("author_id = ?", authorID).Delete(&models.Comment{}).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return postIDs, nil
}

// DeleteOrphans removes comments whose post or author no longer exists.
func (r *commentRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	res := db.
		Where("post_id NOT IN (?) OR author_id NOT IN (?)",
			db.Model(&models.Post{}).Select("id"),
			db.Model(&models.User{}).Select("id")).
		Delete(&models.Comment{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
