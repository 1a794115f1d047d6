package repos

import (
	"fmt"

	"shopfront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List() ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.Select(&out, `
  SELECT id, name, parent_id, created_at
  FROM categories
  ORDER BY name
`)
	return out, err
}

func (r *CategoryRepo) Get(id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, r.db.Rebind(`SELECT id, name, parent_id, created_at FROM categories WHERE id = ?`), id)
	return c, err
}

func (r *CategoryRepo) Exists(id string) (bool, error) {
	var n int
	err := r.db.Get(&n, r.db.Rebind(`SELECT COUNT(*) FROM categories WHERE id = ?`), id)
	return n > 0, err
}

func (r *CategoryRepo) Create(c *domain.Category) error {
	c.CreatedAt = now()
	_, err := r.db.Exec(r.db.Rebind(`INSERT INTO categories(id,name,parent_id,created_at) VALUES(?,?,?,?)`),
		c.ID, c.Name, c.ParentID, c.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: category %q", ErrDuplicate, c.Name)
	}
	return err
}

func (r *CategoryRepo) Update(c *domain.Category) error {
	_, err := r.db.Exec(r.db.Rebind(`UPDATE categories SET name=?, parent_id=?, updated_at=? WHERE id=?`),
		c.Name, c.ParentID, now(), c.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: category %q", ErrDuplicate, c.Name)
	}
	return err
}

// Delete refuses while products or child categories still point at id.
func (r *CategoryRepo) Delete(id string) error {
	var refs int
	if err := r.db.Get(&refs, r.db.Rebind(`
		SELECT (SELECT COUNT(*) FROM products WHERE category_id = ?)
		     + (SELECT COUNT(*) FROM categories WHERE parent_id = ?)`), id, id); err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: category %s has %d products or subcategories", ErrInUse, id, refs)
	}
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: category %s", ErrInUse, id)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoRows
	}
	return nil
}
