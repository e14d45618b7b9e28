package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/admin/feature-flags. Flags are evaluated
// for ?userId when given, otherwise for the calling admin.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		userID, _ = c.Locals("userID").(string)
	}
	return c.JSON(fiber.Map{
		"userId":    userID,
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
