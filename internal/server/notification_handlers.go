package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/notifications/:userId
// @Summary List a user's notifications, newest first
// @Tags notifications
// @Produce json
// @Param userId path string true "Recipient id"
// @Param limit query int false "Max items (default 20, max 100)"
// @Success 200 {array} models.Notification
// @Router /notifications/{userId} [get]
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	userID, err := s.recipient(c)
	if err != nil {
		return respondError(c, err)
	}
	list, err := s.notificationService.List(c.UserContext(), userID, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// UnreadNotificationCount handles GET /api/notifications/:userId/unread-count
func (s *Server) UnreadNotificationCount(c *fiber.Ctx) error {
	userID, err := s.recipient(c)
	if err != nil {
		return respondError(c, err)
	}
	n, err := s.notificationService.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"unread": n})
}

// MarkNotificationsRead handles PUT /api/notifications/read-all/:userId
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	userID, err := s.recipient(c)
	if err != nil {
		return respondError(c, err)
	}
	n, err := s.notificationService.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": n})
}

func (s *Server) recipient(c *fiber.Ctx) (string, error) {
	userID, err := requireParam(c, "userId")
	if err != nil {
		return "", err
	}
	return actingUser(c, userID)
}
