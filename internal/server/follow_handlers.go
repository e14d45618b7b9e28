package server

import (
	"github.com/gofiber/fiber/v2"
)

type followRequest struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId"`
}

// ToggleFollow handles POST /api/follow
// @Summary Follow or unfollow a user
// @Tags follow
// @Accept json
// @Produce json
// @Success 200 {object} service.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Router /follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	var req followRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	followerID, err := actingUser(c, req.FollowerID)
	if err != nil {
		return respondError(c, err)
	}
	res, err := s.followService.ToggleFollow(c.UserContext(), followerID, req.FollowingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// FollowStatus handles GET /api/follow/status?followerId=&followingId=
func (s *Server) FollowStatus(c *fiber.Ctx) error {
	followerID, err := actingUser(c, c.Query("followerId"))
	if err != nil {
		return respondError(c, err)
	}
	res, err := s.followService.GetStatus(c.UserContext(), followerID, c.Query("followingId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// ListFollowers handles GET /api/users/:id/followers
func (s *Server) ListFollowers(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	users, err := s.followService.ListFollowers(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ListFollowing handles GET /api/users/:id/following
func (s *Server) ListFollowing(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	users, err := s.followService.ListFollowing(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
