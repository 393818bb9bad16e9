package repository

import (
	"context"
	"time"
)

// TokenRepo persists remember-me tokens (hashed, one row per issued token).
type TokenRepo struct{ DB DBTX }

func NewTokenRepo(db DBTX) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a remember token hash row.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO remember_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// UserIDByHash returns the owner of a non-expired token.
func (r *TokenRepo) UserIDByHash(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM remember_tokens WHERE token_hash=? AND expires_at > ? LIMIT 1",
		tokenHash, now.UTC()).Scan(&userID)
	if err != nil {
		return 0, notFound(err)
	}
	return userID, nil
}

// DeleteAllForUser removes every remember token of the user (logout everywhere).
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM remember_tokens WHERE user_id=?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired purges tokens whose expiry is before now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM remember_tokens WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
