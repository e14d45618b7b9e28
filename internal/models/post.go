package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultCategory is used when a post is created without a category.
const DefaultCategory = "general"

// PostStats holds the denormalized per-post counters. They are a cache:
// read paths recompute them from source rows.
type PostStats struct {
	CommentsCount int `gorm:"not null;default:0" json:"commentsCount"`
	Views         int `gorm:"not null;default:0" json:"views"`
}

// Post represents a piece of published content.
type Post struct {
	ID       string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AuthorID string                      `gorm:"not null;index;type:varchar(36)" json:"authorId"`
	Author   *User                       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title    string                      `gorm:"not null" json:"title"`
	Body     string                      `gorm:"type:text" json:"body"`
	MediaURL string                      `json:"mediaUrl,omitempty"`
	Tags     datatypes.JSONSlice[string] `json:"tags"`
	Category string                      `gorm:"index;default:'general'" json:"category"`
	// Likes must equal the number of Like rows for the post once an
	// engagement operation completes.
	Likes int       `gorm:"not null;default:0" json:"likes"`
	Stats PostStats `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	// IsLiked and IsBookmarked are computed for the requesting user
	IsLiked      bool      `gorm:"-" json:"isLiked"`
	IsBookmarked bool      `gorm:"-" json:"isBookmarked"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an ID and normalizes tags.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ID)
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	p.Tags = NormalizeTerms(p.Tags)
	return nil
}

// Like is one member of a post's likedBy set.
type Like struct {
	PostID    string    `gorm:"primaryKey;type:varchar(36)" json:"postId"`
	UserID    string    `gorm:"primaryKey;type:varchar(36);index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Bookmark is one member of a post's bookmarkedBy set.
type Bookmark struct {
	PostID    string    `gorm:"primaryKey;type:varchar(36)" json:"postId"`
	UserID    string    `gorm:"primaryKey;type:varchar(36);index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
