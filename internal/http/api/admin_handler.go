package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

type AdminHandler struct {
	Admin     *services.AdminService
	Inventory *services.InventoryService
}

// GET /admin/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Admin.Stats()
	if err != nil {
		return err
	}
	return ok(c, st)
}

// GET /admin/inventory?low_stock_threshold=5
func (h *AdminHandler) InventoryReport(c *fiber.Ctx) error {
	threshold := services.DefaultLowStock
	if raw := c.Query("low_stock_threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return apperr.Validation("low_stock_threshold", "low_stock_threshold must be a non-negative integer")
		}
		threshold = n
	}
	rep, err := h.Inventory.Report(threshold)
	if err != nil {
		return err
	}
	return ok(c, rep)
}

// PUT /admin/inventory/:id
func (h *AdminHandler) SetStock(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		Stock *int `json:"stock"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	if in.Stock == nil {
		return apperr.Validation("stock", "stock is required")
	}
	if err := h.Inventory.SetStock(id, *in.Stock); err != nil {
		return err
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product_id": id, "qty": *in.Stock})
	return respond(c, fiber.StatusOK, fiber.Map{"id": id, "stock": *in.Stock}, "Stock updated")
}
