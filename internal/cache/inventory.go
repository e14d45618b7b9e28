package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserInterestsKeyPrefix = "user:%s:interests"
)

const (
	UserInterestsTTL = 10 * time.Minute
)

// UserInterestsKey is the cache key for a user's normalized interest list.
func UserInterestsKey(userID string) string {
	return fmt.Sprintf(UserInterestsKeyPrefix, userID)
}

// Invalidate drops key from the cache; a no-op without Redis.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser drops every cached entry derived from the user row.
func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserInterestsKey(userID))
}
