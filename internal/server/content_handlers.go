package server

import (
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

type userRequest struct {
	UserID string `json:"userId"`
}

type createPostRequest struct {
	AuthorID string   `json:"authorId"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	MediaURL string   `json:"mediaUrl"`
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
}

// ListFeed handles GET /api/content
// @Summary List the content feed
// @Description Newest first; with userId, posts sharing a tag with the viewer's interests come first.
// @Tags content
// @Produce json
// @Param category query string false "Category filter (All = no filter)"
// @Param authorId query string false "Author filter"
// @Param userId query string false "Viewer id"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /content [get]
func (s *Server) ListFeed(c *fiber.Ctx) error {
	viewerID, err := actingUser(c, c.Query("userId"))
	if err != nil {
		return respondError(c, err)
	}
	page := parsePagination(c, 0)

	posts, err := s.feedService.ComposeFeed(c.UserContext(), service.FeedQuery{
		Category: c.Query("category"),
		AuthorID: c.Query("authorId"),
		ViewerID: viewerID,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/content
// @Summary Create a post
// @Tags content
// @Accept json
// @Produce json
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /content [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	authorID, err := actingUser(c, req.AuthorID)
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		AuthorID: authorID,
		Title:    req.Title,
		Body:     req.Body,
		MediaURL: req.MediaURL,
		Tags:     req.Tags,
		Category: req.Category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/content/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	viewerID, err := actingUser(c, c.Query("userId"))
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.GetPost(c.UserContext(), id, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// ToggleLike handles POST /api/content/:id/like
// @Summary Toggle a like
// @Tags content
// @Accept json
// @Produce json
// @Param id path string true "Post id"
// @Success 200 {object} service.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, userID, err := s.postAndUser(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := s.engagementService.ToggleLike(c.UserContext(), postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ToggleBookmark handles POST /api/content/:id/bookmark
func (s *Server) ToggleBookmark(c *fiber.Ctx) error {
	postID, userID, err := s.postAndUser(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := s.engagementService.ToggleBookmark(c.UserContext(), postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// RecordView handles POST /api/content/:id/view
func (s *Server) RecordView(c *fiber.Ctx) error {
	postID, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	res, err := s.engagementService.RecordView(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// DeletePost handles DELETE /api/content/:id. A partially failed cascade
// answers 207 with the failed steps.
// @Summary Delete a post and its dependents
// @Tags content
// @Param id path string true "Post id"
// @Success 200 {object} map[string]bool
// @Success 207 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /content/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.cascadeService.DeletePost(c.UserContext(), postID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ReconcilePost handles POST /api/content/:id/reconcile
func (s *Server) ReconcilePost(c *fiber.Ctx) error {
	postID, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	counters, err := s.postService.ReconcilePostCounters(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(counters)
}

// postAndUser reads the :id param and the acting user from the body.
func (s *Server) postAndUser(c *fiber.Ctx) (string, string, error) {
	postID, err := requireParam(c, "id")
	if err != nil {
		return "", "", err
	}
	var req userRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return "", "", err
		}
	}
	userID, err := actingUser(c, req.UserID)
	if err != nil {
		return "", "", err
	}
	if userID == "" {
		return "", "", models.NewInvalidInputError("userId is required")
	}
	return postID, userID, nil
}
