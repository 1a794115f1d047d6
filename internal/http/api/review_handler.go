package api

import (
	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

// GET /products/:id/reviews
func (h *ReviewHandler) List(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	items, pg, err := h.Reviews.List(id, pageOf(c))
	if err != nil {
		return err
	}
	return list(c, "reviews", items, pg)
}

// POST /products/:id/reviews
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var in services.ReviewInput
	if err := bind(c, &in); err != nil {
		return err
	}
	rv, err := h.Reviews.Create(currentUser(c), id, in)
	if err != nil {
		return err
	}
	applog.Audit(c, "reviews.create", map[string]any{"product_id": id, "review_id": rv.ID})
	return created(c, rv)
}

// DELETE /products/:id/reviews/:review_id
func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	rid, err := param(c, "review_id")
	if err != nil {
		return err
	}
	if err := h.Reviews.Delete(currentUser(c), id, rid); err != nil {
		return err
	}
	applog.Audit(c, "reviews.delete", map[string]any{"product_id": id, "review_id": rid})
	return respond(c, fiber.StatusOK, nil, "Review deleted")
}
