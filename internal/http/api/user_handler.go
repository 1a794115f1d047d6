package api

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

type UserHandler struct {
	Users *services.UserService
}

// PUT /users/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var p domain.UserPatch
	if err := bind(c, &p); err != nil {
		return err
	}
	u, err := h.Users.UpdateProfile(currentUser(c).ID, p)
	if err != nil {
		return err
	}
	applog.Audit(c, "users.me.update", nil)
	return ok(c, u)
}

// GET /users
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, pg, err := h.Users.List(pageOf(c))
	if err != nil {
		return err
	}
	return list(c, "users", users, pg)
}

func (h *UserHandler) setActive(active bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := param(c, "id")
		if err != nil {
			return err
		}
		u, err := h.Users.SetActive(currentUser(c), id, active)
		if err != nil {
			return err
		}
		applog.Audit(c, "admin.users.active", map[string]any{"target": id, "active": active})
		return ok(c, u)
	}
}

// PATCH /users/:id/activate
func (h *UserHandler) Activate(c *fiber.Ctx) error { return h.setActive(true)(c) }

// PATCH /users/:id/deactivate
func (h *UserHandler) Deactivate(c *fiber.Ctx) error { return h.setActive(false)(c) }

// PATCH /users/:id/role
func (h *UserHandler) SetRole(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var in struct {
		Role string `json:"role"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := h.Users.SetRole(currentUser(c), id, in.Role)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.users.role", map[string]any{"target": id, "role": u.Role})
	return ok(c, u)
}

// DELETE /users/:id
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	if err := h.Users.Delete(currentUser(c), id); err != nil {
		return err
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"target": id})
	return respond(c, fiber.StatusOK, nil, "User deleted")
}
