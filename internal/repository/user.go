package repository

import (
	"context"
	"strings"

	"pulse/internal/cache"
	"pulse/internal/models"
	"pulse/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const postsSubquery = "(SELECT COUNT(*) FROM posts WHERE posts.author_id = users.id)"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	GetInterests(ctx context.Context, id string) ([]string, error)
	UpdateInterests(ctx context.Context, id string, interests []string) (*models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Delete(ctx context.Context, id string) (bool, error)
	IncrementPostsCount(ctx context.Context, id string) error
	DecrementPostsCount(ctx context.Context, id string) error
	ReconcileAllPostsCounts(ctx context.Context) (int64, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewInvalidInputError("User already exists")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"user_id": user.ID})
	return nil
}

// GetByID loads the user with follower and following counts derived from edges.
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	db := r.db.WithContext(ctx)
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err, "User", id)
	}

	var followers, following int64
	if err := db.Model(&models.Follow{}).Where("following_id = ?", id).Count(&followers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", id).Count(&following).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	user.FollowersCount = int(followers)
	user.FollowingCount = int(following)
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// GetInterests returns the user's normalized interests through the cache.
func (r *userRepository) GetInterests(ctx context.Context, id string) ([]string, error) {
	var interests []string
	err := cache.Aside(ctx, cache.UserInterestsKey(id), &interests, cache.UserInterestsTTL, func() error {
		var user models.User
		if err := r.db.WithContext(ctx).Select("id", "interests").Where("id = ?", id).First(&user).Error; err != nil {
			return translate(err, "User", id)
		}
		interests = append([]string{}, user.Interests...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return interests, nil
}

func (r *userRepository) UpdateInterests(ctx context.Context, id string, interests []string) (*models.User, error) {
	normalized := models.NormalizeTerms(interests)
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Update("interests", datatypes.JSONSlice[string](normalized))
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	r.log.LogUpdate(ctx, map[string]interface{}{"user_id": id, "interests": len(normalized)})
	return r.GetByID(ctx, id)
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("username ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Delete removes the user row and its cache entries. It reports whether this call removed the row.
func (r *userRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "delete")
		return false, models.NewInternalError(res.Error)
	}
	cache.InvalidateUser(ctx, id)
	r.log.LogDelete(ctx, map[string]interface{}{"user_id": id})
	return res.RowsAffected > 0, nil
}

func (r *userRepository) IncrementPostsCount(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("stats_posts_count", gorm.Expr("stats_posts_count + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) DecrementPostsCount(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("stats_posts_count", floorDecrement("stats_posts_count")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ReconcileAllPostsCounts rewrites drifted stats.postsCount values and returns
// how many users were corrected.
func (r *userRepository) ReconcileAllPostsCounts(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("stats_posts_count <> "+postsSubquery).
		UpdateColumn("stats_posts_count", gorm.Expr(postsSubquery))
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
