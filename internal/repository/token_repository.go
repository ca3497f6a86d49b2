package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/food-journal-api/internal/model"
)

// TokenRepo persists revoked session tokens in the `blacklist` table.
// The raw token string is stored; there is no uniqueness constraint, so
// revoking the same token twice simply adds a second row.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Insert records t and sets t.ID from the generated key.
func (r *TokenRepo) Insert(ctx context.Context, t *model.RevokedToken) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO blacklist (access_token, created_at) VALUES (?,?)",
		t.AccessToken, t.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Exists reports whether token has at least one revocation row.
func (r *TokenRepo) Exists(ctx context.Context, token string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM blacklist WHERE access_token=? LIMIT 1", token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteOlderThan removes revocations made strictly before cutoff and
// returns how many rows went.  It touches only rows for tokens that have
// already expired, so it never contends with Insert or Exists on live rows.
func (r *TokenRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM blacklist WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
