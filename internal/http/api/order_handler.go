package api

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// POST /orders
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	o, err := h.Orders.Create(currentUser(c).ID)
	if err != nil {
		applog.Security(c, "order.place.fail", map[string]any{"error": err.Error()})
		return err
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"total":    o.Total.StringFixed(2),
		"lines":    len(o.Items),
	})
	return created(c, o)
}

// GET /orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	items, pg, err := h.Orders.ListMine(currentUser(c).ID, pageOf(c))
	if err != nil {
		return err
	}
	return list(c, "orders", items, pg)
}

// GET /orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	o, err := h.Orders.Get(currentUser(c), id)
	if err != nil {
		return err
	}
	return ok(c, o)
}

// PUT /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	if in.Status == "" {
		return apperr.Validation("status", "status is required")
	}
	o, err := h.Orders.UpdateStatus(id, in.Status)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": o.Status})
	return ok(c, o)
}

// POST /admin/orders/:id/cancel
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	o, err := h.Orders.Cancel(id)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.orders.cancel", map[string]any{"order_id": id})
	return ok(c, o)
}

// GET /admin/orders
func (h *OrderHandler) ListAll(c *fiber.Ctx) error {
	items, pg, err := h.Orders.ListAll(c.Query("status"), pageOf(c))
	if err != nil {
		return err
	}
	return list(c, "orders", items, pg)
}
