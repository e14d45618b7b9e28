package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a directed edge follower -> following. At most one edge exists per
// ordered pair.
type Follow struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FollowerID  string    `gorm:"not null;type:varchar(36);uniqueIndex:idx_follow_pair" json:"followerId"`
	FollowingID string    `gorm:"not null;type:varchar(36);uniqueIndex:idx_follow_pair;index" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
