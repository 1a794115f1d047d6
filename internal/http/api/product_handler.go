package api

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

// MaxUploadSize caps product image uploads.
const MaxUploadSize = 5 << 20

type ProductHandler struct {
	Catalog   *services.CatalogService
	Inventory *services.InventoryService
	MediaDir  string
}

func decimalQuery(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperr.Validation(key, "%s must be a non-negative number", key)
	}
	return &d, nil
}

// filterOf parses the product list query string.
func filterOf(c *fiber.Ctx) (domain.ProductFilter, error) {
	var f domain.ProductFilter
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		q, ok := validate.Q(raw)
		if !ok {
			return f, apperr.Validation("q", "Search query contains unsupported characters")
		}
		f.Q = q
	}
	if raw := c.Query("category_id"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			return f, apperr.Validation("category_id", "Invalid category_id")
		}
		f.CategoryID = id
	}
	var err error
	if f.MinPrice, err = decimalQuery(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = decimalQuery(c, "max_price"); err != nil {
		return f, err
	}
	if raw := c.Query("min_rating"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r < 0 || r > 5 {
			return f, apperr.Validation("min_rating", "min_rating must be between 0 and 5")
		}
		f.MinRating = &r
	}
	f.InStockOnly = c.QueryBool("in_stock_only", false)
	return f, nil
}

// GET /products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	f, err := filterOf(c)
	if err != nil {
		return err
	}
	items, pg, err := h.Catalog.ListProducts(f, pageOf(c))
	if err != nil {
		return err
	}
	return list(c, "products", items, pg)
}

// GET /products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	p, err := h.Catalog.ProductDetail(id)
	if err != nil {
		return err
	}
	return ok(c, p)
}

// GET /products/:id/availability
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	a, err := h.Inventory.CheckAvailability(id)
	if err != nil {
		return err
	}
	return ok(c, a)
}

// POST /products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := h.Catalog.CreateProduct(in)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": p.ID, "sku": p.SKU})
	return created(c, p)
}

// PUT /products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	var patch domain.ProductPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	p, err := h.Catalog.UpdateProduct(id, patch)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return ok(c, p)
}

// DELETE /products/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteProduct(id); err != nil {
		return err
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return respond(c, fiber.StatusOK, nil, "Product deleted")
}

// POST /products/:id/images takes JSON {url, sort_order} or a multipart file.
func (h *ProductHandler) AddImage(c *fiber.Ctx) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return h.upload(c, id)
	}
	var in struct {
		URL       string `json:"url"`
		SortOrder int    `json:"sort_order"`
	}
	if err := bind(c, &in); err != nil {
		return err
	}
	img, err := h.Catalog.AddImage(id, in.URL, in.SortOrder)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.products.image", map[string]any{"product_id": id})
	return created(c, img)
}

func (h *ProductHandler) upload(c *fiber.Ctx, productID string) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("file", "file is required")
	}
	ext, allowed := services.ImageExt(fh.Filename)
	if !allowed {
		applog.Security(c, "upload.reject", map[string]any{"name": fh.Filename})
		return apperr.Validation("file", "Allowed image types: png, jpg, jpeg, gif, webp")
	}
	if fh.Size > MaxUploadSize {
		return apperr.Validation("file", "File is larger than 5 MB")
	}
	if _, err := h.Catalog.GetProduct(productID); err != nil {
		return err
	}

	dir := filepath.Join(h.MediaDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Database("create upload dir", err)
	}
	name := uuid.NewString() + ext
	if err := c.SaveFile(fh, filepath.Join(dir, name)); err != nil {
		return apperr.Database("save upload", err)
	}
	sort, _ := strconv.Atoi(c.FormValue("sort_order"))
	img, err := h.Catalog.AddImage(productID, "/media/uploads/"+name, sort)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.products.upload", map[string]any{"product_id": productID, "file": name})
	return created(c, img)
}
