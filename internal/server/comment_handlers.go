package server

import (
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

type addCommentRequest struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

// AddComment handles POST /api/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req addCommentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	userID, err := actingUser(c, req.UserID)
	if err != nil {
		return respondError(c, err)
	}

	comment, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		PostID: req.PostID,
		UserID: userID,
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ListComments handles GET /api/comments/:postId
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := requireParam(c, "postId")
	if err != nil {
		return respondError(c, err)
	}
	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if _, err := s.commentService.DeleteComment(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
