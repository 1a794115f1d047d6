package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// CartLine is a cart row joined with the product's current state.
type CartLine struct {
	ID        string          `db:"id"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	CreatedAt string          `db:"created_at"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	SKU       string          `db:"sku"`
	Stock     int             `db:"stock"`
	IsActive  bool            `db:"is_active"`
}

const cartLinesSQL = `
	  SELECT ci.id, ci.product_id, ci.quantity, ci.created_at,
	         p.name, p.price, p.sku, p.stock, p.is_active
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.user_id = ?
	  ORDER BY ci.created_at, ci.id`

func (r *CartRepo) Lines(userID string) ([]CartLine, error) {
	out := []CartLine{}
	err := r.db.Select(&out, r.db.Rebind(cartLinesSQL), userID)
	return out, err
}

// Line returns one of the user's lines; sql.ErrNoRows if it is not theirs.
func (r *CartRepo) Line(userID, itemID string) (CartLine, error) {
	var l CartLine
	err := r.db.Get(&l, r.db.Rebind(`
	  SELECT ci.id, ci.product_id, ci.quantity, ci.created_at,
	         p.name, p.price, p.sku, p.stock, p.is_active
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.user_id = ? AND ci.id = ?`), userID, itemID)
	return l, err
}

// QuantityOf returns the line id and quantity the user holds for a product,
// or sql.ErrNoRows.
func (r *CartRepo) QuantityOf(userID, productID string) (string, int, error) {
	var row struct {
		ID  string `db:"id"`
		Qty int    `db:"quantity"`
	}
	err := r.db.Get(&row, r.db.Rebind(`SELECT id, quantity FROM cart_items WHERE user_id = ? AND product_id = ?`),
		userID, productID)
	return row.ID, row.Qty, err
}

// Upsert adds qty to the user's line for productID, creating it if needed.
func (r *CartRepo) Upsert(id, userID, productID string, qty int) error {
	ts := now()
	_, err := r.db.Exec(r.db.Rebind(`
		INSERT INTO cart_items(id,user_id,product_id,quantity,created_at,updated_at)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(user_id,product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = excluded.updated_at
	`), id, userID, productID, qty, ts, ts)
	return err
}

func (r *CartRepo) SetQuantity(userID, itemID string, qty int) error {
	res, err := r.db.Exec(r.db.Rebind(`UPDATE cart_items SET quantity = ?, updated_at = ? WHERE user_id = ? AND id = ?`),
		qty, now(), userID, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoRows
	}
	return nil
}

// Remove deletes one line; sql.ErrNoRows if the user has no such line.
func (r *CartRepo) Remove(userID, itemID string) error {
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM cart_items WHERE user_id = ? AND id = ?`), userID, itemID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoRows
	}
	return nil
}

func (r *CartRepo) Clear(userID string) error {
	_, err := r.db.Exec(r.db.Rebind(`DELETE FROM cart_items WHERE user_id = ?`), userID)
	return err
}

func (r *CartRepo) Count(userID string) (int, error) {
	var n int
	err := r.db.Get(&n, r.db.Rebind(`SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = ?`), userID)
	return n, err
}
