package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply on a post. It references its post and author by ID only.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"not null;index;type:varchar(36)" json:"postId"`
	AuthorID  string    `gorm:"not null;index;type:varchar(36)" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
