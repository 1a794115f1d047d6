package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
)

// ResetRepo stores password-reset tokens by their SHA-256 hash.
type ResetRepo struct{ db *sqlx.DB }

func NewResetRepo(db *sqlx.DB) *ResetRepo { return &ResetRepo{db: db} }

func (r *ResetRepo) Create(tokenHash, userID string, expires time.Time) error {
	_, err := r.db.Exec(r.db.Rebind(`
		INSERT INTO password_resets(token_hash,user_id,expires_at,used,created_at)
		VALUES(?,?,?,?,?)`), tokenHash, userID, expires.UTC().Format(tsLayout), false, now())
	return err
}

// Consume marks an unexpired, unused token as used and returns its user.
// The conditional update makes a token single-use under concurrency.
func (r *ResetRepo) Consume(tokenHash string, at time.Time) (string, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	var userID string
	if err := tx.Get(&userID, tx.Rebind(`
		SELECT user_id FROM password_resets
		WHERE token_hash=? AND used=? AND expires_at > ?`), tokenHash, false, at.UTC().Format(tsLayout)); err != nil {
		return "", err
	}
	res, err := tx.Exec(tx.Rebind(`UPDATE password_resets SET used=? WHERE token_hash=? AND used=?`), true, tokenHash, false)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", errNoRows
	}
	return userID, tx.Commit()
}

// Purge drops expired and used tokens for a user.
func (r *ResetRepo) Purge(userID string) error {
	_, err := r.db.Exec(r.db.Rebind(`DELETE FROM password_resets WHERE user_id=? AND (used=? OR expires_at <= ?)`),
		userID, true, now())
	return err
}
