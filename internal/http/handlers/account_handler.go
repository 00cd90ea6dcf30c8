package handlers

import (
	applog "handmade/internal/log"
	"handmade/internal/services"
	"handmade/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type FavoriteHandler struct {
	Favs *services.FavoriteService
}

// GET /api/v1/favorites
func (h *FavoriteHandler) List(c *fiber.Ctx) error {
	favs, err := h.Favs.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, "favorites.list", err)
	}
	return c.JSON(favs)
}

// POST /api/v1/favorites/:productId/toggle
func (h *FavoriteHandler) Toggle(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "invalid productId")
	}
	on, err := h.Favs.Toggle(c.UserContext(), currentUserID(c), pid)
	if err != nil {
		return fail(c, "favorites.toggle", err)
	}
	applog.Info(c, "favorites.toggle", map[string]any{"product_id": pid, "favorite": on})
	return c.JSON(fiber.Map{"productId": pid, "favorite": on})
}

type FeedbackHandler struct {
	Feedback *services.FeedbackService
}

type feedbackRequest struct {
	Rating  int    `json:"rating" form:"rating"`
	Comment string `json:"comment" form:"comment"`
}

// POST /api/v1/products/:id/feedback
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	fb, err := h.Feedback.Submit(c.UserContext(), currentUserID(c), pid, req.Rating, req.Comment)
	if err != nil {
		return fail(c, "feedback.submit", err)
	}
	applog.Info(c, "feedback.submit", map[string]any{"product_id": pid, "rating": fb.Rating})
	return c.Status(fiber.StatusCreated).JSON(fb)
}

type VendorHandler struct {
	Vendor *services.VendorService
}

// GET /api/v1/vendor/products
func (h *VendorHandler) List(c *fiber.Ctx) error {
	prods, err := h.Vendor.ListOwn(c.UserContext(), currentUser(c))
	if err != nil {
		return fail(c, "vendor.products.list", err)
	}
	return c.JSON(prods)
}

// POST /api/v1/vendor/products
func (h *VendorHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	p, err := h.Vendor.Create(c.UserContext(), currentUser(c), in)
	if err != nil {
		return fail(c, "vendor.products.create", err)
	}
	applog.Audit(c, "vendor.products.create", map[string]any{"product_id": p.ID, "title": p.Title})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /api/v1/vendor/products/:id
func (h *VendorHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	p, err := h.Vendor.Update(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return fail(c, "vendor.products.update", err)
	}
	applog.Audit(c, "vendor.products.update", map[string]any{"product_id": p.ID, "status": p.Status})
	return c.JSON(p)
}

// DELETE /api/v1/vendor/products/:id
func (h *VendorHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	if err := h.Vendor.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, "vendor.products.delete", err)
	}
	applog.Audit(c, "vendor.products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
