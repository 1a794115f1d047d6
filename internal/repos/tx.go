package repos

import (
	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

// Tx exposes the statements the order workflows need inside one database
// transaction. Obtain one through InTx.
type Tx struct{ tx *sqlx.Tx }

// InTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func InTx(db *sqlx.DB, fn func(*Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (t *Tx) CartLines(userID string) ([]CartLine, error) {
	out := []CartLine{}
	err := t.tx.Select(&out, t.tx.Rebind(cartLinesSQL), userID)
	return out, err
}

// Product reads a product row; sql.ErrNoRows when it is gone.
func (t *Tx) Product(id string) (domain.Product, error) {
	var p domain.Product
	err := t.tx.Get(&p, t.tx.Rebind(`SELECT `+productCols+` FROM products p WHERE p.id = ?`), id)
	return p, err
}

func (t *Tx) InsertOrder(o *domain.Order) error {
	o.CreatedAt = now()
	_, err := t.tx.Exec(t.tx.Rebind(`
		INSERT INTO orders(id,user_id,status,total,payment_intent_id,created_at)
		VALUES(?,?,?,?,?,?)`),
		o.ID, o.UserID, o.Status, o.Total, o.PaymentIntentID, o.CreatedAt)
	return err
}

func (t *Tx) InsertItem(it *domain.OrderItem) error {
	_, err := t.tx.Exec(t.tx.Rebind(`
		INSERT INTO order_items(id,order_id,product_id,product_name,quantity,price)
		VALUES(?,?,?,?,?,?)`),
		it.ID, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.Price)
	return err
}

// DecrementStock fails with ErrInsufficientStock instead of going negative.
func (t *Tx) DecrementStock(productID string, qty int) error {
	return decrementTx(t.tx, productID, qty)
}

func (t *Tx) IncrementStock(productID string, qty int) error {
	return incrementTx(t.tx, productID, qty)
}

func (t *Tx) ClearCart(userID string) error {
	_, err := t.tx.Exec(t.tx.Rebind(`DELETE FROM cart_items WHERE user_id = ?`), userID)
	return err
}

func (t *Tx) Order(id string) (domain.Order, error) {
	var o domain.Order
	err := t.tx.Get(&o, t.tx.Rebind(`SELECT `+orderCols+` FROM orders WHERE id = ?`), id)
	return o, err
}

func (t *Tx) OrderItems(orderID string) ([]domain.OrderItem, error) {
	out := []domain.OrderItem{}
	err := t.tx.Select(&out, t.tx.Rebind(orderItemsSQL), orderID)
	return out, err
}

// SetStatus moves an order from one status to another. It reports false when
// the order was no longer in the from status, so two racing admins cannot
// both apply a transition.
func (t *Tx) SetStatus(orderID, from, to string) (bool, error) {
	res, err := t.tx.Exec(t.tx.Rebind(`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
		to, now(), orderID, from)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// restockTx returns every line of an order to product stock.
func restockTx(tx *sqlx.Tx, orderID string) error {
	var items []domain.OrderItem
	if err := tx.Select(&items, tx.Rebind(orderItemsSQL), orderID); err != nil {
		return err
	}
	for _, it := range items {
		if err := incrementTx(tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}
