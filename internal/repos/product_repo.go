package repos

import (
	"fmt"
	"strings"

	"shopfront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `p.id, p.name, p.description, p.price, p.stock, p.sku, p.category_id, p.is_active, p.created_at, p.updated_at`

// List returns one page of active products matching f, newest first, plus
// the total match count.
func (r *ProductRepo) List(f domain.ProductFilter, limit, offset int) ([]domain.Product, int, error) {
	where := []string{`p.is_active = ?`}
	args := []any{true}
	if f.Q != "" {
		q := "%" + strings.ToLower(f.Q) + "%"
		where = append(where, `(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ?)`)
		args = append(args, q, q)
	}
	if f.CategoryID != "" {
		where = append(where, `p.category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.MinPrice != nil {
		where = append(where, `p.price >= ?`)
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, `p.price <= ?`)
		args = append(args, *f.MaxPrice)
	}
	if f.InStockOnly {
		where = append(where, `p.stock > 0`)
	}
	if f.MinRating != nil {
		where = append(where, `p.id IN (SELECT product_id FROM reviews GROUP BY product_id HAVING AVG(rating) >= ?)`)
		args = append(args, *f.MinRating)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.Get(&total, r.db.Rebind(`SELECT COUNT(*) FROM products p WHERE `+cond), args...); err != nil {
		return nil, 0, err
	}

	out := []domain.Product{}
	q := `
  SELECT ` + productCols + `
  FROM products p
  WHERE ` + cond + `
  ORDER BY p.created_at DESC, p.name
  LIMIT ? OFFSET ?`
	err := r.db.Select(&out, r.db.Rebind(q), append(args, limit, offset)...)
	return out, total, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, r.db.Rebind(`SELECT `+productCols+` FROM products p WHERE p.id = ?`), id)
	return p, err
}

// SKUTaken reports whether another product (not excludeID) uses sku.
func (r *ProductRepo) SKUTaken(sku, excludeID string) (bool, error) {
	var n int
	err := r.db.Get(&n, r.db.Rebind(`SELECT COUNT(*) FROM products WHERE sku = ? AND id <> ?`), sku, excludeID)
	return n > 0, err
}

func (r *ProductRepo) Create(p *domain.Product) error {
	p.CreatedAt = now()
	_, err := r.db.Exec(r.db.Rebind(`
		INSERT INTO products(id,name,description,price,stock,sku,category_id,is_active,created_at)
		VALUES(?,?,?,?,?,?,?,?,?)`),
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.SKU, p.CategoryID, p.IsActive, p.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: sku %s", ErrDuplicate, p.SKU)
	}
	return err
}

func (r *ProductRepo) Update(p *domain.Product) error {
	p.UpdatedAt = now()
	_, err := r.db.Exec(r.db.Rebind(`
		UPDATE products
		SET name=?, description=?, price=?, stock=?, sku=?, category_id=?, is_active=?, updated_at=?
		WHERE id=?`),
		p.Name, p.Description, p.Price, p.Stock, p.SKU, p.CategoryID, p.IsActive, p.UpdatedAt, p.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: sku %s", ErrDuplicate, p.SKU)
	}
	return err
}

func (r *ProductRepo) Delete(id string) error {
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoRows
	}
	return nil
}

func (r *ProductRepo) Images(productID string) ([]domain.ProductImage, error) {
	out := []domain.ProductImage{}
	err := r.db.Select(&out, r.db.Rebind(`
		SELECT id, product_id, url, sort_order FROM product_images
		WHERE product_id = ?
		ORDER BY sort_order, created_at`), productID)
	return out, err
}

func (r *ProductRepo) AddImage(img *domain.ProductImage) error {
	_, err := r.db.Exec(r.db.Rebind(`
		INSERT INTO product_images(id,product_id,url,sort_order,created_at) VALUES(?,?,?,?,?)`),
		img.ID, img.ProductID, img.URL, img.SortOrder, now())
	return err
}

// RatingSummary returns the average rating and review count for a product.
func (r *ProductRepo) RatingSummary(productID string) (float64, int, error) {
	var row struct {
		Avg   float64 `db:"avg"`
		Count int     `db:"n"`
	}
	err := r.db.Get(&row, r.db.Rebind(`
		SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS n
		FROM reviews WHERE product_id = ?`), productID)
	return row.Avg, row.Count, err
}
