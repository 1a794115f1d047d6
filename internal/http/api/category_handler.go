package api

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return err
	}
	return ok(c, cats)
}

// GET /categories/:id
func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.Catalog.GetCategory(id)
	if err != nil {
		return err
	}
	return ok(c, cat)
}

// POST /categories
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := h.Catalog.CreateCategory(in)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID})
	return created(c, cat)
}

// PUT /categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var p domain.CategoryPatch
	if err := bind(c, &p); err != nil {
		return err
	}
	cat, err := h.Catalog.UpdateCategory(id, p)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": id})
	return ok(c, cat)
}

// DELETE /categories/:id
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteCategory(id); err != nil {
		return err
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id})
	return respond(c, fiber.StatusOK, nil, "Category deleted")
}
