package repos

import (
	"fmt"

	"shopfront/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id,email,first_name,last_name,password_hash,role,is_active,created_at,updated_at`

func (r *UserRepo) Create(u *domain.User) error {
	u.CreatedAt = now()
	_, err := r.DB.Exec(r.DB.Rebind(`
		INSERT INTO users(id,email,first_name,last_name,password_hash,role,is_active,created_at)
		VALUES(?,?,?,?,?,?,?,?)`),
		u.ID, u.Email, u.FirstName, u.LastName, u.Hash, u.Role, u.IsActive, u.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s", ErrDuplicate, u.Email)
	}
	return err
}

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`), email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE id=?`), id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile writes the editable profile fields.
func (r *UserRepo) UpdateProfile(u *domain.User) error {
	u.UpdatedAt = now()
	_, err := r.DB.Exec(r.DB.Rebind(`
		UPDATE users SET first_name=?, last_name=?, email=?, updated_at=? WHERE id=?`),
		u.FirstName, u.LastName, u.Email, u.UpdatedAt, u.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: email %s", ErrDuplicate, u.Email)
	}
	return err
}

func (r *UserRepo) SetPassword(id, hash string) error {
	_, err := r.DB.Exec(r.DB.Rebind(`UPDATE users SET password_hash=?, updated_at=? WHERE id=?`), hash, now(), id)
	return err
}

func (r *UserRepo) SetActive(id string, active bool) error {
	_, err := r.DB.Exec(r.DB.Rebind(`UPDATE users SET is_active=?, updated_at=? WHERE id=?`), active, now(), id)
	return err
}

func (r *UserRepo) SetRole(id, role string) error {
	_, err := r.DB.Exec(r.DB.Rebind(`UPDATE users SET role=?, updated_at=? WHERE id=?`), role, now(), id)
	return err
}

func (r *UserRepo) List(limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.DB.Get(&total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, err
	}
	out := []domain.User{}
	err := r.DB.Select(&out, r.DB.Rebind(`
		SELECT `+userCols+` FROM users
		ORDER BY created_at DESC, email
		LIMIT ? OFFSET ?`), limit, offset)
	return out, total, err
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(r.DB.Rebind(`INSERT INTO sessions(id,user_id,created_at,last_seen)
                          VALUES(?,?,?,?)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=excluded.last_seen`),
		sid, userID, now(), now())
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, r.DB.Rebind(`
      SELECT u.id,u.email,u.first_name,u.last_name,u.password_hash,u.role,u.is_active,u.created_at,u.updated_at
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`), sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(r.DB.Rebind(`UPDATE sessions SET user_id=NULL,last_seen=? WHERE id=?`), now(), sid)
	return err
}

// DeleteCascade cancels the user's open orders (restocking their lines) and
// deletes the account. Cart, wishlist, reviews and sessions go with it via
// ON DELETE CASCADE; orders are kept for audit.
func (r *UserRepo) DeleteCascade(userID string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var open []string
	if err := tx.Select(&open, tx.Rebind(`
		SELECT id FROM orders
		WHERE user_id=? AND status IN ('pending','processing','shipped')`), userID); err != nil {
		return err
	}
	for _, oid := range open {
		if err := restockTx(tx, oid); err != nil {
			return err
		}
	}
	if len(open) > 0 {
		query, args, err := sqlx.In(`UPDATE orders SET status='cancelled', updated_at=? WHERE id IN (?)`, now(), open)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(tx.Rebind(query), args...); err != nil {
			return err
		}
	}

	res, err := tx.Exec(tx.Rebind(`DELETE FROM users WHERE id=?`), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete user %s: %w", userID, errNoRows)
	}
	return tx.Commit()
}
