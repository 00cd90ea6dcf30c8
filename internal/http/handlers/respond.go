package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"handmade/internal/domain"
	applog "handmade/internal/log"
	"handmade/internal/services"
)

// fail maps service errors to a status and a user-safe message. Anything
// unrecognised is logged and reported as a generic 500.
func fail(c *fiber.Ctx, action string, err error) error {
	status, msg := fiber.StatusInternalServerError, "Something went wrong. Please try again."
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status, msg = fiber.StatusBadRequest, strings.TrimSuffix(err.Error(), ": "+services.ErrInvalidInput.Error())
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrNotFound):
		status, msg = fiber.StatusNotFound, errors.Cause(err).Error()
	case errors.Is(err, services.ErrOutOfStock), errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrCategoryInUse), errors.Is(err, services.ErrProtectedUser),
		errors.Is(err, services.ErrEmptyCart):
		status, msg = fiber.StatusConflict, errors.Cause(err).Error()
	case errors.Is(err, services.ErrBadCreds):
		status, msg = fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrForbidden):
		applog.Security(c, action+".forbidden", nil)
		status, msg = fiber.StatusForbidden, "forbidden"
	}
	if status == fiber.StatusInternalServerError {
		applog.Error(c, action+".fail", err, nil)
	} else {
		applog.Info(c, action+".rejected", map[string]any{"status": status, "reason": msg})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func currentUserID(c *fiber.Ctx) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}
