package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shopfront/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the handle so services can open a transaction with InTx.
func (r *OrderRepo) DB() *sqlx.DB { return r.db }

const orderCols = `id, user_id, status, total, payment_intent_id, created_at, updated_at`

const orderItemsSQL = `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_name, id`

// Get loads an order with its line snapshots.
func (r *OrderRepo) Get(orderID string) (domain.Order, error) {
	var o domain.Order
	if err := r.db.Get(&o, r.db.Rebind(`SELECT `+orderCols+` FROM orders WHERE id = ?`), orderID); err != nil {
		return domain.Order{}, err
	}
	items := []domain.OrderItem{}
	if err := r.db.Select(&items, r.db.Rebind(orderItemsSQL), orderID); err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

// ListByUser returns one page of a user's orders, newest first.
func (r *OrderRepo) ListByUser(userID string, limit, offset int) ([]domain.Order, int, error) {
	var total int
	if err := r.db.Get(&total, r.db.Rebind(`SELECT COUNT(*) FROM orders WHERE user_id = ?`), userID); err != nil {
		return nil, 0, err
	}
	out := []domain.Order{}
	if err := r.db.Select(&out, r.db.Rebind(`
		SELECT `+orderCols+`
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`), userID, limit, offset); err != nil {
		return nil, 0, err
	}
	return out, total, r.attachItems(out)
}

// ListAll returns one page of every order, optionally filtered by status.
func (r *OrderRepo) ListAll(status string, limit, offset int) ([]domain.Order, int, error) {
	where, args := `1=1`, []any{}
	if status != "" {
		where, args = `status = ?`, append(args, status)
	}
	var total int
	if err := r.db.Get(&total, r.db.Rebind(`SELECT COUNT(*) FROM orders WHERE `+where), args...); err != nil {
		return nil, 0, err
	}
	out := []domain.Order{}
	if err := r.db.Select(&out, r.db.Rebind(`
		SELECT `+orderCols+`
		FROM orders
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`), append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return out, total, r.attachItems(out)
}

func (r *OrderRepo) attachItems(orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	query, args, err := sqlx.In(`
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_items WHERE order_id IN (?)
		ORDER BY product_name, id`, ids)
	if err != nil {
		return err
	}
	var items []domain.OrderItem
	if err := r.db.Select(&items, r.db.Rebind(query), args...); err != nil {
		return err
	}
	byOrder := make(map[string][]domain.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return nil
}

// HasPurchased reports whether any of the user's orders contains productID.
// Cancelled orders do not count.
func (r *OrderRepo) HasPurchased(userID, productID string) (bool, error) {
	var n int
	err := r.db.Get(&n, r.db.Rebind(`
		SELECT COUNT(*)
		FROM orders o JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = ? AND oi.product_id = ? AND o.status <> 'cancelled'`), userID, productID)
	return n > 0, err
}

type PopularProduct struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	QuantitySold int    `db:"quantity_sold" json:"quantity_sold"`
}

type Stats struct {
	TotalUsers      int              `json:"total_users"`
	TotalOrders     int              `json:"total_orders"`
	Revenue         decimal.Decimal  `json:"revenue"`
	OrdersByStatus  map[string]int   `json:"orders_by_status"`
	PopularProducts []PopularProduct `json:"popular_products"`
}

// Stats aggregates the admin dashboard numbers. Cancelled orders are left
// out of revenue and popularity.
func (r *OrderRepo) Stats(limit int) (Stats, error) {
	var s Stats
	if err := r.db.Get(&s.TotalUsers, `SELECT COUNT(*) FROM users`); err != nil {
		return s, err
	}
	if err := r.db.Get(&s.TotalOrders, `SELECT COUNT(*) FROM orders`); err != nil {
		return s, err
	}
	if err := r.db.Get(&s.Revenue, `SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'`); err != nil {
		return s, err
	}
	s.Revenue = s.Revenue.Round(2)

	var byStatus []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.Select(&byStatus, `SELECT status, COUNT(*) AS n FROM orders GROUP BY status`); err != nil {
		return s, err
	}
	s.OrdersByStatus = make(map[string]int, len(byStatus))
	for _, b := range byStatus {
		s.OrdersByStatus[b.Status] = b.N
	}

	s.PopularProducts = []PopularProduct{}
	err := r.db.Select(&s.PopularProducts, r.db.Rebind(`
		SELECT oi.product_id AS id, MAX(oi.product_name) AS name, SUM(oi.quantity) AS quantity_sold
		FROM order_items oi JOIN orders o ON o.id = oi.order_id
		WHERE o.status <> 'cancelled'
		GROUP BY oi.product_id
		ORDER BY quantity_sold DESC, name
		LIMIT ?`), limit)
	return s, err
}
