package service

import (
	"context"
	"strings"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// LikeResult is the post's like state after a toggle.
type LikeResult struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}

// BookmarkResult is the viewer's bookmark state after a toggle.
type BookmarkResult struct {
	Bookmarked bool `json:"bookmarked"`
}

// ViewResult carries the post's view count after recording a view.
type ViewResult struct {
	Views int `json:"views"`
}

// EngagementService flips like and bookmark membership and counts views.
type EngagementService struct {
	postRepo repository.PostRepository
	notifier Notifier
}

// NewEngagementService returns a new EngagementService.
func NewEngagementService(postRepo repository.PostRepository, notifier Notifier) *EngagementService {
	return &EngagementService{postRepo: postRepo, notifier: notifier}
}

// ToggleLike removes the user's like if present, otherwise adds it. Only a
// newly added like on someone else's post notifies the author.
func (s *EngagementService) ToggleLike(ctx context.Context, postID, userID string) (res *LikeResult, err error) {
	ctx, finish := observability.StartSpan(ctx, "engagement.toggle_like",
		attribute.String("post.id", postID), attribute.String("user.id", userID))
	defer func() { finish(err) }()

	if err := requireIDs(postID, userID); err != nil {
		return nil, err
	}
	authorID, err := s.postRepo.GetAuthorID(ctx, postID)
	if err != nil {
		return nil, err
	}

	removed, likes, err := s.postRepo.RemoveLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if removed {
		observability.RecordToggle("like", false)
		return &LikeResult{Likes: likes, IsLiked: false}, nil
	}

	added, likes, err := s.postRepo.AddLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if !added {
		// A concurrent toggle inserted the like first; remove it so this
		// toggle still flips state.
		if _, likes, err = s.postRepo.RemoveLike(ctx, postID, userID); err != nil {
			return nil, err
		}
		observability.RecordToggle("like", false)
		return &LikeResult{Likes: likes, IsLiked: false}, nil
	}
	observability.RecordToggle("like", true)
	if userID != authorID && s.notifier != nil {
		s.notifier.Notify(ctx, NotifyInput{
			RecipientID: authorID,
			SenderID:    userID,
			Type:        models.NotificationLike,
			PostID:      &postID,
		})
	}
	return &LikeResult{Likes: likes, IsLiked: true}, nil
}

// ToggleBookmark flips the user's bookmark on the post. Bookmarks never notify.
func (s *EngagementService) ToggleBookmark(ctx context.Context, postID, userID string) (*BookmarkResult, error) {
	if err := requireIDs(postID, userID); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetAuthorID(ctx, postID); err != nil {
		return nil, err
	}

	removed, err := s.postRepo.RemoveBookmark(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if removed {
		observability.RecordToggle("bookmark", false)
		return &BookmarkResult{Bookmarked: false}, nil
	}
	if _, err := s.postRepo.AddBookmark(ctx, postID, userID); err != nil {
		return nil, err
	}
	observability.RecordToggle("bookmark", true)
	return &BookmarkResult{Bookmarked: true}, nil
}

// RecordView atomically increments the post's view counter.
func (s *EngagementService) RecordView(ctx context.Context, postID string) (*ViewResult, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, models.NewInvalidInputError("post id is required")
	}
	views, err := s.postRepo.IncrementViews(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &ViewResult{Views: views}, nil
}

func requireIDs(postID, userID string) error {
	if strings.TrimSpace(postID) == "" {
		return models.NewInvalidInputError("post id is required")
	}
	if strings.TrimSpace(userID) == "" {
		return models.NewInvalidInputError("userId is required")
	}
	return nil
}
