package repos

import (
	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

// Add inserts the entry unless present. It reports whether a row was created.
func (r *WishlistRepo) Add(id, userID, productID string) (bool, error) {
	res, err := r.db.Exec(r.db.Rebind(`
	  INSERT INTO wishlist_items(id, user_id, product_id, created_at)
	  VALUES(?, ?, ?, ?)
	  ON CONFLICT(user_id, product_id) DO NOTHING
	`), id, userID, productID, now())
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// Remove deletes the entry; sql.ErrNoRows if it was not in the list.
func (r *WishlistRepo) Remove(userID, productID string) error {
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM wishlist_items WHERE user_id=? AND product_id=?`), userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoRows
	}
	return nil
}

func (r *WishlistRepo) Get(userID, productID string) (domain.WishlistItem, error) {
	var it domain.WishlistItem
	err := r.db.Get(&it, r.db.Rebind(wishlistSelect+` WHERE wi.user_id = ? AND wi.product_id = ?`), userID, productID)
	return it, err
}

func (r *WishlistRepo) List(userID string) ([]domain.WishlistItem, error) {
	out := []domain.WishlistItem{}
	err := r.db.Select(&out, r.db.Rebind(wishlistSelect+`
	  WHERE wi.user_id = ?
	  ORDER BY wi.created_at DESC`), userID)
	return out, err
}

const wishlistSelect = `
	  SELECT wi.id, wi.product_id, p.name, p.price, p.stock, p.is_active, wi.created_at
	  FROM wishlist_items wi
	  JOIN products p ON p.id = wi.product_id`
