package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type AdminHandler struct {
	Admin  *services.AdminService
	Orders *services.OrderService
	Inv    *services.InventoryService
	Users  *services.UserService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	st, err := h.Admin.Stats()
	if err != nil {
		return failErr(c, "admin.stats.fail", err)
	}
	return render(c, "admin_dashboard", fiber.Map{"Stats": st})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	status := c.Query("status")
	pg := services.NewPage(validate.Page(c.Query("page"), 1), 50)
	ords, pager, err := h.Orders.ListAll(status, pg)
	if err != nil {
		return failErr(c, "admin.orders.list.fail", err)
	}
	return render(c, "admin_orders", fiber.Map{
		"Orders":   ords,
		"Pager":    pager,
		"Status":   status,
		"Statuses": []string{"pending", "processing", "shipped", "delivered", "cancelled"},
	})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	status := c.FormValue("status")
	if !ok || status == "" {
		return fail(c, fiber.StatusBadRequest, "missing id or status")
	}
	if _, err := h.Orders.UpdateStatus(id, status); err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return flashErr(c, err, "/admin/orders")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	setFlash(c, "Order updated")
	return c.Redirect("/admin/orders")
}

// GET /admin/inventory
func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	threshold := validate.Page(c.Query("threshold"), services.DefaultLowStock)
	rep, err := h.Inv.Report(threshold)
	if err != nil {
		return failErr(c, "admin.inventory.list.fail", err)
	}
	return render(c, "admin_inventory", fiber.Map{"Report": rep})
}

// POST /admin/inventory
func (h *AdminHandler) UpdateInventory(c *fiber.Ctx) error {
	pid, okID := validate.ID(c.FormValue("product_id"))
	qty, err := strconv.Atoi(c.FormValue("qty"))
	if !okID || err != nil || qty < 0 {
		return fail(c, fiber.StatusBadRequest, "invalid input")
	}
	if err := h.Inv.SetStock(pid, qty); err != nil {
		applog.Error(c, "admin.inventory.save.fail", err, map[string]any{"product": pid, "qty": qty})
		return flashErr(c, err, "/admin/inventory")
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "qty": qty})
	return c.Redirect("/admin/inventory")
}

// UsersPage lists every account with activate and delete controls.
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	pg := services.NewPage(validate.Page(c.Query("page"), 1), 50)
	users, pager, err := h.Users.List(pg)
	if err != nil {
		return failErr(c, "admin.users.list.fail", err)
	}
	return render(c, "admin_users", fiber.Map{"Users": users, "Pager": pager})
}

// POST /admin/users/:id/active
func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "missing id")
	}
	active := c.FormValue("active") == "true"
	if _, err := h.Users.SetActive(sessionUser(c), id, active); err != nil {
		return flashErr(c, err, "/admin/users")
	}
	applog.Audit(c, "admin.users.active", map[string]any{"user_id": id, "active": active})
	return c.Redirect("/admin/users")
}

// DeleteUser deletes a user and related data, cancels their orders.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "missing id")
	}
	if err := h.Users.Delete(sessionUser(c), id); err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return flashErr(c, err, "/admin/users")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	setFlash(c, "User deleted")
	return c.Redirect("/admin/users")
}
