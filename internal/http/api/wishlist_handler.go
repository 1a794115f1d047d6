package api

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/apperr"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

// GET /wishlist
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(currentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, items)
}

// POST /wishlist
func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	var in struct {
		ProductID string `json:"product_id"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	pid, okID := validate.ID(in.ProductID)
	if !okID {
		return apperr.Validation("product_id", "product_id is required")
	}
	it, isNew, err := h.Wish.Save(currentUser(c).ID, pid)
	if err != nil {
		return err
	}
	if !isNew {
		return ok(c, it)
	}
	applog.Audit(c, "wishlist.save", map[string]any{"product_id": pid})
	return created(c, it)
}

// DELETE /wishlist/:product_id
func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	pid, err := param(c, "product_id")
	if err != nil {
		return err
	}
	if err := h.Wish.Unsave(currentUser(c).ID, pid); err != nil {
		return err
	}
	applog.Audit(c, "wishlist.remove", map[string]any{"product_id": pid})
	return respond(c, fiber.StatusOK, nil, "Removed from wishlist")
}
