// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultAvatarURL is assigned to profiles created without an avatar.
const DefaultAvatarURL = "https://api.dicebear.com/7.x/big-ears/svg?seed=Lucky"

// Role is a coarse user role. It is informational only.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// UserStats holds per-user denormalized counters.
type UserStats struct {
	PostsCount int `gorm:"not null;default:0" json:"postsCount"`
}

// User is a profile. Followers and following are derived from Follow rows.
type User struct {
	ID        string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username  string                      `gorm:"not null" json:"username"`
	Email     string                      `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role                        `gorm:"type:varchar(20);default:'user'" json:"role"`
	AvatarURL string                      `json:"avatarUrl"`
	Interests datatypes.JSONSlice[string] `json:"interests"`
	Stats     UserStats                   `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	// FollowersCount and FollowingCount are computed from follow edges on read.
	FollowersCount int       `gorm:"-" json:"followersCount"`
	FollowingCount int       `gorm:"-" json:"followingCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an ID and fills profile defaults.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.ID)
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.AvatarURL == "" {
		u.AvatarURL = DefaultAvatarURL
	}
	u.Interests = NormalizeTerms(u.Interests)
	return nil
}

// NormalizeTerms lowercases, trims and de-duplicates tags or interests,
// keeping first-seen order. Empty entries are dropped.
func NormalizeTerms(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
