package handlers

import (
	"handmade/internal/services"
	"handmade/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	Catalog  *services.CatalogService
	Feedback *services.FeedbackService
}

// GET /api/v1/categories
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "catalog.categories", err)
	}
	return c.JSON(cats)
}

// GET /api/v1/products?category=&page=
func (h *CatalogHandler) Browse(c *fiber.Ctx) error {
	cat := c.Query("category")
	if cat != "" {
		var ok bool
		if cat, ok = validate.Category(cat); !ok {
			return badRequest(c, "invalid category")
		}
	}
	page, err := h.Catalog.Browse(c.UserContext(), currentUserID(c), cat, validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "catalog.browse", err)
	}
	return c.JSON(page)
}

// GET /api/v1/products/:id
func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	card, err := h.Catalog.Product(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, "catalog.product", err)
	}
	return c.JSON(card)
}

// GET /api/v1/products/:id/feedback
func (h *CatalogHandler) ProductFeedback(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	if _, err := h.Catalog.Product(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, "catalog.feedback", err)
	}
	rows, err := h.Feedback.ListForProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.feedback", err)
	}
	return c.JSON(rows)
}

// GET /api/v1/search?q=&category=
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		return badRequest(c, "invalid search term")
	}
	cat := c.Query("category")
	if cat != "" {
		var ok bool
		if cat, ok = validate.Category(cat); !ok {
			return badRequest(c, "invalid category")
		}
	}
	items, err := h.Catalog.Search(c.UserContext(), currentUserID(c), q, cat)
	if err != nil {
		return fail(c, "catalog.search", err)
	}
	return c.JSON(fiber.Map{"q": q, "items": items})
}

// GET /api/v1/availability?productId=
func (h *CatalogHandler) Availability(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Query("productId"))
	if !ok {
		return badRequest(c, "invalid productId")
	}
	av, err := h.Catalog.Availability(c.UserContext(), pid)
	if err != nil {
		return fail(c, "catalog.availability", err)
	}
	return c.JSON(av)
}
