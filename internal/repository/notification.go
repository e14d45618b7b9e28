package repository

import (
	"context"

	"pulse/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByRecipient returns newest notifications first with sender and post title resolved.
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*models.Notification, error) {
	notifications := []*models.Notification{}
	err := r.db.WithContext(ctx).
		Preload("Sender", authorSummary).
		Preload("Post", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title") }).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// MarkAllRead flips unread rows to read and returns how many changed.
func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		UpdateColumn("read", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Notification{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByUser removes notifications the user received or sent.
func (r *notificationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("recipient_id = ? OR sender_id = ?", userID, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteOrphans removes notifications whose users or referenced post are gone.
func (r *notificationRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	db := r.db.WithContext(ctx)
	users := db.Model(&models.User{}).Select("id")
	res := db.
		Where("recipient_id NOT IN (?) OR sender_id NOT IN (?) OR (post_id IS NOT NULL AND post_id NOT IN (?))",
			users, users, db.Model(&models.Post{}).Select("id")).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
