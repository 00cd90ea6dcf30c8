package handlers

import (
	"strings"

	applog "handmade/internal/log"
	"handmade/internal/services"
	"handmade/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Admin    *services.AdminService
	Catalog  *services.CatalogService
	Feedback *services.FeedbackService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	ov, err := h.Admin.Overview(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.overview.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	q, _ := validate.Search(c.Query("q"))
	customers, err := h.Admin.Customers(c.UserContext(), q, validate.Page(c.Query("page")))
	if err != nil {
		applog.Error(c, "admin.customers.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load customers"})
	}
	return render(c, "admin_dashboard", fiber.Map{"Overview": ov, "Customers": customers, "Q": q})
}

// GET /api/v1/admin/overview
func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	ov, err := h.Admin.Overview(c.UserContext())
	if err != nil {
		return fail(c, "admin.overview", err)
	}
	return c.JSON(ov)
}

// GET /api/v1/admin/users?q=&page=
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	q, ok := validate.Search(c.Query("q"))
	if !ok {
		return badRequest(c, "invalid search term")
	}
	page, err := h.Admin.Customers(c.UserContext(), q, validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.users.list", err)
	}
	return c.JSON(page)
}

// GET /api/v1/admin/users/:id
func (h *AdminHandler) User(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid user id")
	}
	d, err := h.Admin.User(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.users.get", err)
	}
	return c.JSON(d)
}

// DELETE /api/v1/admin/users/:id cancels the user's open orders and removes their data.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid user id")
	}
	if err := h.Admin.DeleteUser(c.UserContext(), id); err != nil {
		return fail(c, "admin.users.delete", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/admin/orders?status=&page=
func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	page, err := h.Admin.Orders(c.UserContext(), strings.ToUpper(c.Query("status")), validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.orders.list", err)
	}
	return c.JSON(page)
}

type statusRequest struct {
	Status string `json:"status" form:"status"`
}

// POST /api/v1/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid order id")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return badRequest(c, "missing status")
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if err := h.Admin.UpdateOrderStatus(c.UserContext(), id, status); err != nil {
		return fail(c, "admin.orders.update", err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.JSON(fiber.Map{"id": id, "status": status})
}

// GET /api/v1/admin/products?status=&page=
func (h *AdminHandler) Products(c *fiber.Ctx) error {
	page, err := h.Admin.Products(c.UserContext(), strings.ToLower(c.Query("status")), validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.products.list", err)
	}
	return c.JSON(page)
}

type reviewRequest struct {
	Approve bool `json:"approve" form:"approve"`
}

// POST /api/v1/admin/products/:id/review
func (h *AdminHandler) ReviewProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.Admin.ReviewProduct(c.UserContext(), id, req.Approve); err != nil {
		return fail(c, "admin.products.review", err)
	}
	applog.Audit(c, "admin.products.review", map[string]any{"product_id": id, "approve": req.Approve})
	return c.JSON(fiber.Map{"id": id, "approved": req.Approve})
}

// GET /api/v1/admin/feedback?page=
func (h *AdminHandler) FeedbackList(c *fiber.Ctx) error {
	page, err := h.Feedback.List(c.UserContext(), validate.Page(c.Query("page")))
	if err != nil {
		return fail(c, "admin.feedback.list", err)
	}
	return c.JSON(page)
}

// DELETE /api/v1/admin/feedback/:id
func (h *AdminHandler) DeleteFeedback(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid feedback id")
	}
	if err := h.Feedback.Delete(c.UserContext(), id); err != nil {
		return fail(c, "admin.feedback.delete", err)
	}
	applog.Audit(c, "admin.feedback.delete", map[string]any{"feedback_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name" form:"name"`
}

// POST /api/v1/admin/categories
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return fail(c, "admin.categories.create", err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID})
	return c.Status(fiber.StatusCreated).JSON(cat)
}

// DELETE /api/v1/admin/categories/:id; categories still holding products are kept.
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "invalid category id")
	}
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return fail(c, "admin.categories.delete", err)
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
