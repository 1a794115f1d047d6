package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

const catalogPageSize = 12

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// Home is the catalog: search, category filter and pagination.
func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return failErr(c, "catalog.categories.fail", err)
	}

	var f domain.ProductFilter
	data := fiber.Map{"Categories": cats, "Q": "", "CategoryID": ""}
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		q, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q", "value": raw})
			data["Err"] = "Enter a valid keyword (letters/numbers only)"
			data["Products"] = []domain.Product{}
			c.Status(fiber.StatusBadRequest)
			return render(c, "home", data)
		}
		f.Q = q
	}
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category_id"})
			data["Err"] = "Invalid category"
			data["Products"] = []domain.Product{}
			c.Status(fiber.StatusBadRequest)
			return render(c, "home", data)
		}
		f.CategoryID = id
	}
	f.InStockOnly = c.Query("in_stock_only") == "on" || c.QueryBool("in_stock_only", false)

	pg := services.NewPage(validate.Page(c.Query("page"), 1), catalogPageSize)
	products, pager, err := h.Catalog.ListProducts(f, pg)
	if err != nil {
		return failErr(c, "catalog.list.fail", err)
	}
	data["Q"] = f.Q
	data["CategoryID"] = f.CategoryID
	data["InStockOnly"] = f.InStockOnly
	data["Products"] = products
	data["Pager"] = pager
	data["PrevPage"] = pager.Page - 1
	data["NextPage"] = pager.Page + 1
	return render(c, "home", data)
}
