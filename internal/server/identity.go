package server

import (
	"strings"

	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Identity resolves an optional HS256 bearer token. A valid token stores its
// subject in c.Locals("userID"); absent or invalid tokens leave the request
// anonymous and the caller-supplied ids are used as given.
func (s *Server) Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sub, ok := s.bearerSubject(c); ok {
			c.Locals("userID", sub)
		}
		return c.Next()
	}
}

func (s *Server) bearerSubject(c *fiber.Ctx) (string, bool) {
	if s.config == nil || s.config.JWTSecret == "" {
		return "", false
	}
	authHeader := c.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", false
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return "", false
	}
	return sub, true
}

// actingUser returns the identity performing the request. With a bearer
// identity, a different supplied id is rejected.
func actingUser(c *fiber.Ctx, supplied string) (string, error) {
	supplied = strings.TrimSpace(supplied)
	sub, _ := c.Locals("userID").(string)
	if sub == "" {
		return supplied, nil
	}
	if supplied != "" && supplied != sub {
		return "", models.NewInvalidInputError("userId does not match the authenticated user")
	}
	return sub, nil
}

// AdminRequired rejects requests whose bearer identity is not an admin user.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(string)
		if userID == "" {
			return respondError(c, models.NewForbiddenError("Admin access required"))
		}

		user, err := s.userRepo.GetByID(c.UserContext(), userID)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return respondError(c, models.NewForbiddenError("Admin access required"))
			}
			return respondError(c, err)
		}
		if user.Role != models.RoleAdmin {
			return respondError(c, models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}
