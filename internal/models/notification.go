package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType identifies the engagement event that produced a notification.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow:
		return true
	}
	return false
}

// DefaultMessage returns the display text used when none is supplied.
func (t NotificationType) DefaultMessage() string {
	switch t {
	case NotificationLike:
		return "liked your post"
	case NotificationComment:
		return "commented on your post"
	case NotificationFollow:
		return "started following you"
	}
	return ""
}

// Notification tells a recipient that a sender engaged with them.
type Notification struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RecipientID string           `gorm:"not null;type:varchar(36);index:idx_notifications_recipient,priority:1" json:"recipientId"`
	SenderID    string           `gorm:"not null;type:varchar(36);index" json:"senderId"`
	Sender      *User            `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	PostID      *string          `gorm:"type:varchar(36);index" json:"postId,omitempty"`
	Post        *Post            `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Message     string           `json:"message"`
	Read        bool             `gorm:"not null;default:false;index:idx_notifications_recipient,priority:2" json:"read"`
	CreatedAt   time.Time        `gorm:"index:idx_notifications_recipient,priority:3,sort:desc" json:"createdAt"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	ensureID(&n.ID)
	if n.Message == "" {
		n.Message = n.Type.DefaultMessage()
	}
	return nil
}
