package service

import (
	"context"
	"log/slog"
	"strings"

	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/repository"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

// FeedQuery selects and personalizes a page of posts.
type FeedQuery struct {
	Category string
	AuthorID string
	ViewerID string
	Limit    int
	Offset   int
}

// FeedService composes the content feed. It never writes.
type FeedService struct {
	postRepo     repository.PostRepository
	userRepo     repository.UserRepository
	defaultLimit int
}

// NewFeedService returns a new FeedService.
func NewFeedService(postRepo repository.PostRepository, userRepo repository.UserRepository, defaultLimit int) *FeedService {
	if defaultLimit <= 0 || defaultLimit > maxFeedLimit {
		defaultLimit = defaultFeedLimit
	}
	return &FeedService{postRepo: postRepo, userRepo: userRepo, defaultLimit: defaultLimit}
}

// ComposeFeed lists posts newest first and, for a viewer with interests,
// moves posts sharing a tag with those interests ahead of the rest. The
// partition covers every post that passes the filters; limit and offset
// then select a page of the partitioned order.
func (s *FeedService) ComposeFeed(ctx context.Context, q FeedQuery) ([]*models.Post, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	filter := repository.FeedFilter{Category: q.Category, AuthorID: q.AuthorID}

	interests := s.viewerInterests(ctx, q.ViewerID)
	if len(interests) == 0 {
		filter.Limit, filter.Offset = limit, offset
		return s.postRepo.List(ctx, filter, q.ViewerID)
	}

	tagged, err := s.postRepo.ListTags(ctx, filter)
	if err != nil {
		return nil, err
	}
	ordered := PartitionByInterests(tagged, interests)
	if offset >= len(ordered) {
		return []*models.Post{}, nil
	}
	ordered = ordered[offset:min(offset+limit, len(ordered))]

	filter.IDs = make([]string, len(ordered))
	for i, p := range ordered {
		filter.IDs[i] = p.ID
	}
	posts, err := s.postRepo.List(ctx, filter, q.ViewerID)
	if err != nil {
		return nil, err
	}
	return inOrder(posts, filter.IDs), nil
}

// viewerInterests returns nil for anonymous or unknown viewers and when the
// lookup fails; the feed is then served newest first.
func (s *FeedService) viewerInterests(ctx context.Context, viewerID string) []string {
	if viewerID == "" {
		return nil
	}
	interests, err := s.userRepo.GetInterests(ctx, viewerID)
	if err != nil {
		if !models.HasCode(err, models.CodeNotFound) {
			middleware.Logger.WarnContext(ctx, "feed served unpersonalized: interests unavailable",
				slog.String("viewer_id", viewerID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return interests
}

// inOrder arranges posts to follow ids. Posts deleted since the ids were
// read are dropped.
func inOrder(posts []*models.Post, ids []string) []*models.Post {
	byID := make(map[string]*models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	out := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PartitionByInterests is a stable two-bucket partition: posts with at least
// one tag in interests (case-insensitive) come first, the rest follow, and
// each bucket keeps its input order. The input slice is not modified.
func PartitionByInterests(posts []*models.Post, interests []string) []*models.Post {
	wanted := make(map[string]struct{}, len(interests))
	for _, interest := range interests {
		if term := strings.ToLower(strings.TrimSpace(interest)); term != "" {
			wanted[term] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return posts
	}

	matches := make([]*models.Post, 0, len(posts))
	var others []*models.Post
	for _, p := range posts {
		if sharesTag(p.Tags, wanted) {
			matches = append(matches, p)
		} else {
			others = append(others, p)
		}
	}
	return append(matches, others...)
}

func sharesTag(tags []string, wanted map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := wanted[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return true
		}
	}
	return false
}
