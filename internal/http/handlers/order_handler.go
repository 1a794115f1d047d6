package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
}

// Place turns the cart into an order.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	u := sessionUser(c)
	o, err := h.Order.Create(u.ID)
	if err != nil {
		// business rule errors (e.g., insufficient stock) go back to the cart
		applog.Security(c, "order.place.fail", map[string]any{"error": err.Error()})
		if apperr.StatusOf(err) >= 500 {
			return failErr(c, "order.place.fail", err)
		}
		return flashErr(c, err, "/cart")
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"total":    o.Total.StringFixed(2),
	})
	setFlash(c, "Thanks! Your order has been placed.")
	return c.Redirect("/orders/" + o.ID)
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "Order not found")
	}
	o, err := h.Order.Get(sessionUser(c), oid)
	if err != nil {
		if apperr.StatusOf(err) == fiber.StatusForbidden {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		}
		return failErr(c, "order.view.fail", err)
	}
	return render(c, "order", fiber.Map{"Order": o})
}

// History lists orders for the current logged-in user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	pg := services.NewPage(validate.Page(c.Query("page"), 1), services.DefaultPerPage)
	orders, pager, err := h.Order.ListMine(sessionUser(c).ID, pg)
	if err != nil {
		return failErr(c, "orders.history.fail", err)
	}
	return render(c, "order_history", fiber.Map{"Orders": orders, "Pager": pager})
}
