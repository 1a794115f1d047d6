package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type InventoryRepo struct{ db *sqlx.DB }

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// Row used by admin inventory pages
type InventoryRow struct {
	ProductID string `db:"product_id" json:"id"`
	Name      string `db:"name" json:"name"`
	SKU       string `db:"sku" json:"sku"`
	Stock     int    `db:"stock" json:"stock"`
	IsActive  bool   `db:"is_active" json:"is_active"`
}

// ListAll returns every product's stock, lowest first (for /admin/inventory).
func (r *InventoryRepo) ListAll() ([]InventoryRow, error) {
	rows := []InventoryRow{}
	err := r.db.Select(&rows, `
		SELECT id AS product_id, name, sku, stock, is_active
		FROM products
		ORDER BY stock, name
	`)
	return rows, err
}

// Qty returns current stock for a product.
// If no row exists, it returns sql.ErrNoRows from sqlx.Get.
func (r *InventoryRepo) Qty(productID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, r.db.Rebind(`SELECT stock FROM products WHERE id = ?`), productID)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// SetQty overwrites stock for a product (admin correction).
func (r *InventoryRepo) SetQty(productID string, qty int) error {
	res, err := r.db.Exec(r.db.Rebind(`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`), qty, now(), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoRows
	}
	return nil
}

// decrementTx atomically subtracts "by" units if enough stock exists.
// Zero affected rows means a concurrent buyer got there first.
func decrementTx(tx *sqlx.Tx, productID string, by int) error {
	res, err := tx.Exec(tx.Rebind(`
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`), by, productID, by)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w for %s", ErrInsufficientStock, productID)
	}
	return nil
}

// incrementTx adds units back. A product deleted since purchase is skipped.
func incrementTx(tx *sqlx.Tx, productID string, by int) error {
	_, err := tx.Exec(tx.Rebind(`UPDATE products SET stock = stock + ? WHERE id = ?`), by, productID)
	return err
}
