// Package seed provides helpers to create demo and fixture data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"

	"pulse/internal/database"
	"pulse/internal/repository"
	"pulse/internal/service"

	"gorm.io/gorm"
)

// Services are the write paths seeding goes through, so counters and
// notifications stay consistent with the seeded rows.
type Services struct {
	Users      *service.UserService
	Posts      *service.PostService
	Comments   *service.CommentService
	Engagement *service.EngagementService
	Follows    *service.FollowService
}

// NewServices wires the services against db. Notifications are stored but
// never published.
func NewServices(db *gorm.DB) *Services {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	notify := service.NewNotificationService(repository.NewNotificationRepository(db), nil, nil, 0)
	return &Services{
		Users:      service.NewUserService(userRepo),
		Posts:      service.NewPostService(postRepo, userRepo),
		Comments:   service.NewCommentService(repository.NewCommentRepository(db), postRepo, notify),
		Engagement: service.NewEngagementService(postRepo, notify),
		Follows:    service.NewFollowService(repository.NewFollowRepository(db), userRepo, notify),
	}
}

// Clean deletes every row of every managed table, dependents first.
func Clean(ctx context.Context, db *gorm.DB) error {
	models := database.PersistentModels()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(models[i]).Error; err != nil {
			return fmt.Errorf("clean %T: %w", models[i], err)
		}
	}
	return nil
}
