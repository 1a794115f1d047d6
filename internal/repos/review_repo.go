package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewSelect = `
		SELECT r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at,
		       COALESCE(u.first_name, '') AS author_name
		FROM reviews r LEFT JOIN users u ON u.id = r.user_id`

func (r *ReviewRepo) Create(rv *domain.Review) error {
	rv.CreatedAt = now()
	_, err := r.db.Exec(r.db.Rebind(`
		INSERT INTO reviews(id,user_id,product_id,rating,comment,created_at) VALUES(?,?,?,?,?,?)`),
		rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Comment, rv.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: review by %s for %s", ErrDuplicate, rv.UserID, rv.ProductID)
	}
	return err
}

func (r *ReviewRepo) Get(id string) (domain.Review, error) {
	var rv domain.Review
	err := r.db.Get(&rv, r.db.Rebind(reviewSelect+` WHERE r.id = ?`), id)
	return rv, err
}

func (r *ReviewRepo) Exists(userID, productID string) (bool, error) {
	var n int
	err := r.db.Get(&n, r.db.Rebind(`SELECT COUNT(*) FROM reviews WHERE user_id = ? AND product_id = ?`), userID, productID)
	return n > 0, err
}

// ListByProduct returns one page of a product's reviews, newest first.
func (r *ReviewRepo) ListByProduct(productID string, limit, offset int) ([]domain.Review, int, error) {
	var total int
	if err := r.db.Get(&total, r.db.Rebind(`SELECT COUNT(*) FROM reviews WHERE product_id = ?`), productID); err != nil {
		return nil, 0, err
	}
	out := []domain.Review{}
	err := r.db.Select(&out, r.db.Rebind(reviewSelect+`
		WHERE r.product_id = ?
		ORDER BY r.created_at DESC
		LIMIT ? OFFSET ?`), productID, limit, offset)
	return out, total, err
}

func (r *ReviewRepo) Delete(id string) error {
	res, err := r.db.Exec(r.db.Rebind(`DELETE FROM reviews WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNoRows
	}
	return nil
}
