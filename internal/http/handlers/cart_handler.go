package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	u := sessionUser(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "missing productId")
	}
	qty := validate.Qty(c.FormValue("qty"), 1)
	if _, err := h.Cart.Add(u.ID, productID, qty); err != nil {
		applog.Security(c, "cart.add.fail", map[string]any{"product": productID, "error": err.Error()})
		return flashErr(c, err, back(c, "/products/"+productID))
	}
	applog.Audit(c, "cart.add", map[string]any{"product": productID, "qty": qty})
	setFlash(c, "Added to cart")
	return c.Redirect("/cart")
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(sessionUser(c).ID)
	if err != nil {
		return failErr(c, "cart.view.fail", err)
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}

// Update sets a line's quantity; zero removes it.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Cart item not found")
	}
	qty := validate.Qty(c.FormValue("qty"), 0)
	if _, err := h.Cart.Update(sessionUser(c).ID, id, qty); err != nil {
		return flashErr(c, err, "/cart")
	}
	applog.Audit(c, "cart.update", map[string]any{"item": id, "qty": qty})
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Cart item not found")
	}
	if err := h.Cart.Remove(sessionUser(c).ID, id); err != nil {
		return flashErr(c, err, "/cart")
	}
	applog.Audit(c, "cart.remove", map[string]any{"item": id})
	return c.Redirect("/cart")
}
