package service

import (
	"context"
	"log/slog"
	"strings"

	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	notifier    Notifier
}

type AddCommentInput struct {
	PostID string
	UserID string
	Text   string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	notifier Notifier,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		notifier:    notifier,
	}
}

// AddComment stores the comment, bumps the post's comment counter and
// notifies the post author when someone else commented.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewInvalidInputError("Comment text is required")
	}
	if len(text) > maxCommentLen {
		return nil, models.NewInvalidInputError("Comment too long (max 10000 characters)")
	}
	if err := requireIDs(in.PostID, in.UserID); err != nil {
		return nil, err
	}

	authorID, err := s.postRepo.GetAuthorID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		AuthorID: in.UserID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.postRepo.IncrementCommentsCount(ctx, in.PostID); err != nil {
		recordDrift(ctx, "comments_count", in.PostID, err)
	}

	if authorID != in.UserID && s.notifier != nil {
		postID := in.PostID
		s.notifier.Notify(ctx, NotifyInput{
			RecipientID: authorID,
			SenderID:    in.UserID,
			Type:        models.NotificationComment,
			PostID:      &postID,
		})
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment decrements the post counter and removes the row. Both steps
// are attempted; only a failed row delete is returned.
func (s *CommentService) DeleteComment(ctx context.Context, commentID string) (*models.Comment, error) {
	if strings.TrimSpace(commentID) == "" {
		return nil, models.NewInvalidInputError("comment id is required")
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.DecrementCommentsCount(ctx, comment.PostID); err != nil {
		recordDrift(ctx, "comments_count", comment.PostID, err)
	}

	if _, err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, models.NewInvalidInputError("post id is required")
	}
	return s.commentRepo.ListByPost(ctx, postID)
}

// ReconcileCommentCount rewrites stats.commentsCount from the comment rows.
func (s *CommentService) ReconcileCommentCount(ctx context.Context, postID string) (int, error) {
	return s.postRepo.ReconcileCommentsCount(ctx, postID)
}

// recordDrift logs a counter write that failed after its source row changed.
func recordDrift(ctx context.Context, counter, id string, err error) {
	observability.CounterDrift.WithLabelValues(counter).Inc()
	middleware.Logger.WarnContext(ctx, "counter update failed, value will drift until reconciled",
		slog.String("counter", counter),
		slog.String("id", id),
		slog.String("error", err.Error()),
	)
}
