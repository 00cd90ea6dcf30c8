package handlers

import (
	"handmade/internal/domain"
	applog "handmade/internal/log"
	"handmade/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Authenticate attaches the session's user, if any, to the request.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("userID", u.ID)
			}
		}
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		return c.Next()
	}
}

func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		if u.Role != role {
			applog.Security(c, "access.denied."+role, map[string]any{"role": u.Role})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler { return RequireRole(domain.RoleAdmin) }

// RequireAdminPage guards HTML admin pages.
func RequireAdminPage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil || !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		return c.Next()
	}
}
