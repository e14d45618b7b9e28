package server

import (
	"pulse/internal/models"
	"pulse/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createUserRequest struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	AvatarURL string   `json:"avatarUrl"`
	Interests []string `json:"interests"`
	Role      string   `json:"role"`
}

type interestsRequest struct {
	Interests []string `json:"interests"`
}

// CreateUser handles POST /api/users
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := s.userService.CreateUser(c.UserContext(), service.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
		Interests: req.Interests,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUser handles GET /api/users/:id
// @Summary Get a user profile with follower counts
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateInterests handles PATCH /api/users/:id/interests
func (s *Server) UpdateInterests(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if id, err = actingUser(c, id); err != nil {
		return respondError(c, err)
	}
	var req interestsRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.UpdateInterests(c.UserContext(), id, req.Interests)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// DeleteUser handles DELETE /api/users/:id
// @Summary Delete a user and everything they own
// @Tags users
// @Param id path string true "User id"
// @Success 200 {object} map[string]bool
// @Success 207 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := s.cascadeService.DeleteUser(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
