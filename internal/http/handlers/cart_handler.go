package handlers

import (
	applog "handmade/internal/log"
	"handmade/internal/services"
	"handmade/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart     *services.CartService
	OrderSvc *services.OrderService
}

type addRequest struct {
	ProductID string `json:"productId" form:"productId"`
}

// POST /api/v1/cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	pid, ok := validate.ID(req.ProductID)
	if !ok {
		return badRequest(c, "missing productId")
	}
	item, err := h.Cart.Add(c.UserContext(), currentUserID(c), pid)
	if err != nil {
		return fail(c, "cart.add", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": pid, "qty": item.Quantity})
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GET /api/v1/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, "cart.view", err)
	}
	return c.JSON(cv)
}

// DELETE /api/v1/cart/:productId
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "invalid productId")
	}
	if err := h.Cart.Remove(c.UserContext(), currentUserID(c), pid); err != nil {
		return fail(c, "cart.remove", err)
	}
	applog.Info(c, "cart.remove", map[string]any{"product_id": pid})
	return c.SendStatus(fiber.StatusNoContent)
}

// POST /api/v1/checkout
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	var contact services.Contact
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&contact); err != nil {
			return badRequest(c, "invalid request body")
		}
	}
	order, err := h.OrderSvc.Checkout(c.UserContext(), currentUser(c), contact)
	if err != nil {
		return fail(c, "orders.place", err)
	}
	applog.Audit(c, "orders.place", map[string]any{"order_id": order.ID, "total": order.Total, "items": len(order.Items)})
	return c.Status(fiber.StatusCreated).JSON(order)
}

// GET /api/v1/orders
func (h *CartHandler) Orders(c *fiber.Ctx) error {
	orders, err := h.OrderSvc.ListMine(c.UserContext(), currentUserID(c))
	if err != nil {
		return fail(c, "orders.list", err)
	}
	return c.JSON(orders)
}
