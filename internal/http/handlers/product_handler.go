package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	p, err := h.Catalog.ProductDetail(id)
	if err != nil || !p.IsActive {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	reviews, pager, err := h.Reviews.List(id, services.NewPage(validate.Page(c.Query("page"), 1), 10))
	if err != nil {
		return failErr(c, "product.reviews.fail", err)
	}
	return render(c, "product", fiber.Map{"P": p, "Reviews": reviews, "ReviewPager": pager})
}

// PostReview handles the review form on the product page.
func (h *ProductHandler) PostReview(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, fiber.StatusNotFound, "This item is no longer available")
	}
	rating, _ := strconv.Atoi(c.FormValue("rating"))
	in := services.ReviewInput{Rating: rating, Comment: c.FormValue("comment")}
	rv, err := h.Reviews.Create(sessionUser(c), id, in)
	if err != nil {
		log.Security(c, "reviews.create.fail", map[string]any{"product": id, "error": err.Error()})
		return flashErr(c, err, "/products/"+id)
	}
	log.Audit(c, "reviews.create", map[string]any{"product": id, "review": rv.ID})
	setFlash(c, "Thanks for your review!")
	return c.Redirect("/products/" + id)
}

// DeleteReview removes the caller's own review (admins may remove any).
func (h *ProductHandler) DeleteReview(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	rid, okR := validate.ID(c.Params("review_id"))
	if !ok || !okR {
		return fail(c, fiber.StatusNotFound, "Review not found")
	}
	if err := h.Reviews.Delete(sessionUser(c), id, rid); err != nil {
		return flashErr(c, err, "/products/"+id)
	}
	log.Audit(c, "reviews.delete", map[string]any{"product": id, "review": rid})
	setFlash(c, "Review deleted")
	return c.Redirect("/products/" + id)
}
