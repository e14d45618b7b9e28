package repository

import (
	"context"

	"pulse/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow edge operations
type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID string) (bool, error)
	Delete(ctx context.Context, followerID, followingID string) (bool, error)
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowers(ctx context.Context, userID string) ([]models.User, error)
	ListFollowing(ctx context.Context, userID string) ([]models.User, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge unless it already exists and reports whether this call created it.
func (r *followRepository) Create(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID string) ([]models.User, error) {
	return r.listEdgeUsers(ctx, "follows.following_id = ?", "follows.follower_id", userID)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID string) ([]models.User, error) {
	return r.listEdgeUsers(ctx, "follows.follower_id = ?", "follows.following_id", userID)
}

func (r *followRepository) listEdgeUsers(ctx context.Context, cond, joinColumn, userID string) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Select("users.*").
		Joins("JOIN follows ON "+joinColumn+" = users.id").
		Where(cond, userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// DeleteByUser removes every edge where the user is follower or following.
func (r *followRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *followRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	users := db.Model(&models.User{}).Select("id")
	res := db.
		Where("follower_id NOT IN (?) OR following_id NOT IN (?)", users, users).
		Delete(&models.Follow{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
