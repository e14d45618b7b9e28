package service

import (
	"context"
	"strings"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

// FollowResult reports whether the follower follows the target after the call.
type FollowResult struct {
	Following bool `json:"following"`
}

// FollowService maintains directed follow edges.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier   Notifier
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, notifier Notifier) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

// ToggleFollow removes the edge when present, otherwise creates it and
// notifies the followed user. Following yourself is rejected.
func (s *FollowService) ToggleFollow(ctx context.Context, followerID, followingID string) (*FollowResult, error) {
	if err := requirePair(followerID, followingID); err != nil {
		return nil, err
	}
	if followerID == followingID {
		return nil, models.NewSelfActionError("You cannot follow yourself")
	}

	for _, id := range []string{followerID, followingID} {
		if err := s.requireUser(ctx, id); err != nil {
			return nil, err
		}
	}

	removed, err := s.followRepo.Delete(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}
	if removed {
		observability.RecordToggle("follow", false)
		return &FollowResult{Following: false}, nil
	}

	created, err := s.followRepo.Create(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}
	observability.RecordToggle("follow", true)
	if created && s.notifier != nil {
		s.notifier.Notify(ctx, NotifyInput{
			RecipientID: followingID,
			SenderID:    followerID,
			Type:        models.NotificationFollow,
		})
	}
	return &FollowResult{Following: true}, nil
}

// GetStatus reports whether followerID follows followingID.
func (s *FollowService) GetStatus(ctx context.Context, followerID, followingID string) (*FollowResult, error) {
	if err := requirePair(followerID, followingID); err != nil {
		return nil, err
	}
	exists, err := s.followRepo.Exists(ctx, followerID, followingID)
	if err != nil {
		return nil, err
	}
	return &FollowResult{Following: exists}, nil
}

func (s *FollowService) ListFollowers(ctx context.Context, userID string) ([]models.User, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowers(ctx, userID)
}

func (s *FollowService) ListFollowing(ctx context.Context, userID string) ([]models.User, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.ListFollowing(ctx, userID)
}

func (s *FollowService) requireUser(ctx context.Context, userID string) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

func requirePair(followerID, followingID string) error {
	if strings.TrimSpace(followerID) == "" || strings.TrimSpace(followingID) == "" {
		return models.NewInvalidInputError("followerId and followingId are required")
	}
	return nil
}
