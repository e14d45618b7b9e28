package server

import (
	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SweepOrphans handles POST /api/admin/sweep. It removes rows left behind by
// interrupted cascades and reconciles every counter.
func (s *Server) SweepOrphans(c *fiber.Ctx) error {
	report, err := s.cascadeService.SweepOrphans(c.UserContext())
	if err != nil {
		if models.HasCode(err, models.CodePartialCascadeFailure) && report != nil {
			return c.Status(fiber.StatusMultiStatus).JSON(report)
		}
		return respondError(c, err)
	}
	return c.JSON(report)
}
