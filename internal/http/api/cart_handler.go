package api

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cart, err := h.Cart.View(currentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, cart)
}

// POST /cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in struct {
		ProductID string `json:"product_id"`
		Quantity  *int   `json:"quantity"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	pid, okID := validate.ID(in.ProductID)
	if !okID {
		return apperr.Validation("product_id", "product_id is required")
	}
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	it, err := h.Cart.Add(currentUser(c).ID, pid, qty)
	if err != nil {
		return err
	}
	applog.Audit(c, "cart.add", map[string]any{"product_id": pid, "qty": qty})
	return created(c, it)
}

// PUT /cart/items/:id
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		Quantity *int `json:"quantity"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	if in.Quantity == nil {
		return apperr.Validation("quantity", "quantity is required")
	}
	it, err := h.Cart.Update(currentUser(c).ID, id, *in.Quantity)
	if err != nil {
		return err
	}
	applog.Audit(c, "cart.update", map[string]any{"item_id": id, "qty": *in.Quantity})
	if it == nil {
		return respond(c, fiber.StatusOK, nil, "Item removed from cart")
	}
	return ok(c, it)
}

// DELETE /cart/items/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	if err := h.Cart.Remove(currentUser(c).ID, id); err != nil {
		return err
	}
	applog.Audit(c, "cart.remove", map[string]any{"item_id": id})
	return respond(c, fiber.StatusOK, nil, "Item removed from cart")
}

// DELETE /cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(currentUser(c).ID); err != nil {
		return err
	}
	applog.Audit(c, "cart.clear", nil)
	return respond(c, fiber.StatusOK, nil, "Cart cleared")
}
