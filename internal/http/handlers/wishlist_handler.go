package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(sessionUser(c).ID)
	if err != nil {
		return failErr(c, "wishlist.list.fail", err)
	}
	return render(c, "wishlist", fiber.Map{"Items": items})
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "missing productId")
	}
	if _, _, err := h.Wish.Save(sessionUser(c).ID, pid); err != nil {
		applog.Error(c, "wishlist.save.fail", err, map[string]any{"product": pid})
		return flashErr(c, err, back(c, "/wishlist"))
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product": pid})
	setFlash(c, "Saved to your wishlist")
	return c.Redirect(back(c, "/wishlist"))
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return fail(c, fiber.StatusBadRequest, "missing productId")
	}
	if err := h.Wish.Unsave(sessionUser(c).ID, pid); err != nil {
		return flashErr(c, err, "/wishlist")
	}
	applog.Audit(c, "wishlist.unsave", map[string]any{"product": pid})
	return c.Redirect("/wishlist")
}
