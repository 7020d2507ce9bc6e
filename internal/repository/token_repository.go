package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/task-planner/internal/model"
)

// TokenRepo persists refresh tokens, one row per user. Storing a new
// token replaces the previous one via upsert, which makes the latest
// login or refresh the only session able to mint access tokens.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Upsert stores the user's refresh token, overwriting any prior row.
func (r *TokenRepo) Upsert(ctx context.Context, userID uint64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token) VALUES (?,?) "+
			"ON DUPLICATE KEY UPDATE token=VALUES(token), created_at=NOW()",
		userID, token)
	return err
}

// UpsertTx is Upsert inside an existing transaction; used by register
// so the user row and its token commit or roll back together.
func (r *TokenRepo) UpsertTx(ctx context.Context, tx *sql.Tx, userID uint64, token string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token) VALUES (?,?) "+
			"ON DUPLICATE KEY UPDATE token=VALUES(token), created_at=NOW()",
		userID, token)
	return err
}

// GetByUser loads the user's current refresh-token row. sql.ErrNoRows
// passes through when the user has no active session.
func (r *TokenRepo) GetByUser(ctx context.Context, userID uint64) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token, created_at FROM refresh_tokens WHERE user_id=? LIMIT 1",
		userID).Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt)
	return t, err
}

// DeleteByUser removes the user's refresh-token row. Deleting a row
// that does not exist is not an error; logout is idempotent.
func (r *TokenRepo) DeleteByUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}
