package service

import (
	"context"
	"strings"

	"pulse/internal/models"
	"pulse/internal/observability"
	"pulse/internal/repository"
)

const (
	maxTitleLen = 300
	maxBodyLen  = 50000
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

type CreatePostInput struct {
	AuthorID string
	Title    string
	Body     string
	MediaURL string
	Tags     []string
	Category string
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

// CreatePost stores the post and bumps the author's stats.postsCount.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if strings.TrimSpace(in.AuthorID) == "" {
		return nil, models.NewInvalidInputError("authorId is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewInvalidInputError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewInvalidInputError("Title too long (max 300 characters)")
	}
	if len(in.Body) > maxBodyLen {
		return nil, models.NewInvalidInputError("Body too long (max 50000 characters)")
	}

	exists, err := s.userRepo.Exists(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User", in.AuthorID)
	}

	post := &models.Post{
		AuthorID: in.AuthorID,
		Title:    title,
		Body:     in.Body,
		MediaURL: strings.TrimSpace(in.MediaURL),
		Tags:     in.Tags,
		Category: strings.TrimSpace(in.Category),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if err := s.userRepo.IncrementPostsCount(ctx, in.AuthorID); err != nil {
		recordDrift(ctx, "posts_count", in.AuthorID, err)
	}

	return s.postRepo.GetByID(ctx, post.ID, in.AuthorID)
}

// GetPost returns the post with counters recomputed and viewer flags set.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, models.NewInvalidInputError("post id is required")
	}
	return s.postRepo.GetByID(ctx, postID, viewerID)
}

// ReconcilePostCounters rewrites likes and stats.commentsCount from source rows.
func (s *PostService) ReconcilePostCounters(ctx context.Context, postID string) (*repository.PostCounters, error) {
	counters, err := s.postRepo.ReconcileCounters(ctx, postID)
	if err != nil {
		return nil, err
	}
	if counters.LikesCorrected {
		observability.CounterDrift.WithLabelValues("likes").Inc()
	}
	if counters.CommentsCorrected {
		observability.CounterDrift.WithLabelValues("comments_count").Inc()
	}
	return counters, nil
}
