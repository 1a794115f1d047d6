package services

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shopfront/internal/apperr"
	"shopfront/internal/domain"
	"shopfront/internal/repos"
	"shopfront/internal/validate"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

// ---- categories ----

type CategoryInput struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	ParentID *string `json:"parent_id"`
}

func categoryNotFound(id string) *apperr.Error {
	e := apperr.NotFound("Category with ID %s not found", id)
	e.Field = "category_id"
	return e
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	cats, err := s.Cats.List()
	return cats, dbErr("list categories", err)
}

func (s *CatalogService) GetCategory(id string) (domain.Category, error) {
	c, err := s.Cats.Get(id)
	return c, notFoundOr(err, categoryNotFound(id), "load category")
}

func (s *CatalogService) requireCategory(id string) error {
	ok, err := s.Cats.Exists(id)
	if err != nil {
		return apperr.Database("load category", err)
	}
	if !ok {
		return categoryNotFound(id)
	}
	return nil
}

func (s *CatalogService) CreateCategory(in CategoryInput) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return domain.Category{}, err
	}
	c := domain.Category{ID: uuid.NewString(), Name: in.Name, ParentID: blankToNil(in.ParentID)}
	if c.ParentID != nil {
		if err := s.requireCategory(*c.ParentID); err != nil {
			return domain.Category{}, err
		}
	}
	if err := s.Cats.Create(&c); err != nil {
		if isDuplicate(err) {
			return domain.Category{}, apperr.Conflict("Category %q already exists", c.Name)
		}
		return domain.Category{}, apperr.Database("create category", err)
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(id string, p domain.CategoryPatch) (domain.Category, error) {
	p.Name = trimmed(p.Name)
	if err := setButBlank("name", p.Name); err != nil {
		return domain.Category{}, err
	}
	if err := validate.Struct(p); err != nil {
		return domain.Category{}, err
	}
	c, err := s.GetCategory(id)
	if err != nil {
		return domain.Category{}, err
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.ParentID != nil {
		c.ParentID = blankToNil(p.ParentID)
		if c.ParentID != nil {
			if *c.ParentID == id {
				return domain.Category{}, apperr.Validation("parent_id", "A category cannot be its own parent")
			}
			if err := s.requireCategory(*c.ParentID); err != nil {
				return domain.Category{}, err
			}
		}
	}
	if err := s.Cats.Update(&c); err != nil {
		if isDuplicate(err) {
			return domain.Category{}, apperr.Conflict("Category %q already exists", c.Name)
		}
		return domain.Category{}, apperr.Database("update category", err)
	}
	return c, nil
}

// DeleteCategory refuses while products or subcategories reference it.
func (s *CatalogService) DeleteCategory(id string) error {
	err := s.Cats.Delete(id)
	switch {
	case err == nil:
		return nil
	case repos.IsNotFound(err):
		return categoryNotFound(id)
	case isInUse(err):
		return apperr.Conflict("Category %s still has products or subcategories", id)
	default:
		return apperr.Database("delete category", err)
	}
}

// ---- products ----

type ProductInput struct {
	Name        string           `json:"name" validate:"required,min=1,max=300"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       int              `json:"stock" validate:"gte=0"`
	SKU         string           `json:"sku" validate:"required,min=1,max=50"`
	CategoryID  string           `json:"category_id" validate:"required"`
	IsActive    *bool            `json:"is_active"`
}

func (s *CatalogService) ListProducts(f domain.ProductFilter, pg Page) ([]domain.Product, Pagination, error) {
	items, total, err := s.Prods.List(f, pg.Limit(), pg.Offset())
	if err != nil {
		return nil, Pagination{}, apperr.Database("list products", err)
	}
	return items, pg.Of(total), nil
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	p, err := s.Prods.Get(id)
	return p, notFoundOr(err, apperr.ProductNotFound(id), "load product")
}

// ProductDetail adds images and the review summary.
func (s *CatalogService) ProductDetail(id string) (domain.ProductDetail, error) {
	p, err := s.GetProduct(id)
	if err != nil {
		return domain.ProductDetail{}, err
	}
	imgs, err := s.Prods.Images(id)
	if err != nil {
		return domain.ProductDetail{}, apperr.Database("load images", err)
	}
	avg, n, err := s.Prods.RatingSummary(id)
	if err != nil {
		return domain.ProductDetail{}, apperr.Database("load ratings", err)
	}
	return domain.ProductDetail{Product: p, Images: imgs, AvgRating: roundRating(avg), ReviewCount: n}, nil
}

func roundRating(f float64) float64 {
	r, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return r
}

func (s *CatalogService) checkSKU(sku, excludeID string) (string, error) {
	sku, ok := validate.SKU(sku)
	if !ok {
		return "", apperr.Validation("sku", "SKU may contain letters, digits, dot, dash and underscore only")
	}
	taken, err := s.Prods.SKUTaken(sku, excludeID)
	if err != nil {
		return "", apperr.Database("check sku", err)
	}
	if taken {
		return "", apperr.Conflict("Product with SKU %s already exists", sku).WithCode("duplicate_sku")
	}
	return sku, nil
}

func checkPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return apperr.Validation("price", "Price must be greater than or equal to 0")
	}
	return nil
}

func (s *CatalogService) CreateProduct(in ProductInput) (domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	if err := validate.Struct(in); err != nil {
		return domain.Product{}, err
	}
	if err := checkPrice(*in.Price); err != nil {
		return domain.Product{}, err
	}
	if err := s.requireCategory(in.CategoryID); err != nil {
		return domain.Product{}, err
	}
	sku, err := s.checkSKU(in.SKU, "")
	if err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		SKU:         sku,
		CategoryID:  in.CategoryID,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := s.Prods.Create(&p); err != nil {
		if isDuplicate(err) {
			return domain.Product{}, apperr.Conflict("Product with SKU %s already exists", sku).WithCode("duplicate_sku")
		}
		return domain.Product{}, apperr.Database("create product", err)
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(id string, patch domain.ProductPatch) (domain.Product, error) {
	patch.Name = trimmed(patch.Name)
	patch.SKU = trimmed(patch.SKU)
	if err := setButBlank("name", patch.Name); err != nil {
		return domain.Product{}, err
	}
	if err := setButBlank("sku", patch.SKU); err != nil {
		return domain.Product{}, err
	}
	if err := validate.Struct(patch); err != nil {
		return domain.Product{}, err
	}
	p, err := s.GetProduct(id)
	if err != nil {
		return domain.Product{}, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		if err := checkPrice(*patch.Price); err != nil {
			return domain.Product{}, err
		}
		p.Price = patch.Price.Round(2)
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.SKU != nil && *patch.SKU != p.SKU {
		sku, err := s.checkSKU(*patch.SKU, id)
		if err != nil {
			return domain.Product{}, err
		}
		p.SKU = sku
	}
	if patch.CategoryID != nil {
		if err := s.requireCategory(*patch.CategoryID); err != nil {
			return domain.Product{}, err
		}
		p.CategoryID = *patch.CategoryID
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if err := s.Prods.Update(&p); err != nil {
		if isDuplicate(err) {
			return domain.Product{}, apperr.Conflict("Product with SKU %s already exists", p.SKU).WithCode("duplicate_sku")
		}
		return domain.Product{}, apperr.Database("update product", err)
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(id string) error {
	return notFoundOr(s.Prods.Delete(id), apperr.ProductNotFound(id), "delete product")
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// ImageExt returns the lower-cased extension of an uploaded file name if it
// is an accepted image type.
func ImageExt(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	return ext, imageExts[ext]
}

// AddImage records an image URL for a product.
func (s *CatalogService) AddImage(productID, url string, sortOrder int) (domain.ProductImage, error) {
	url = strings.TrimSpace(url)
	if url == "" || len(url) > 2048 {
		return domain.ProductImage{}, apperr.Validation("url", "Image URL is required")
	}
	if _, err := s.GetProduct(productID); err != nil {
		return domain.ProductImage{}, err
	}
	img := domain.ProductImage{ID: uuid.NewString(), ProductID: productID, URL: url, SortOrder: sortOrder}
	if err := s.Prods.AddImage(&img); err != nil {
		return domain.ProductImage{}, apperr.Database("add image", err)
	}
	return img, nil
}

// trimmed returns a trimmed copy of s, keeping nil as nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// setButBlank reports a validation error when an optional field was sent
// with nothing but whitespace in it.
func setButBlank(field string, s *string) error {
	if s != nil && *s == "" {
		return apperr.Validation(field, "%s must not be blank", field)
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
