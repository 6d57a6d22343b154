package postgres

import (
	"context"
	"database/sql"

	"apistarter/internal/model"
	"apistarter/internal/repository"
)

// RefreshTokenPostgres is a PostgreSQL implementation of repository.RefreshTokenRepository.
type RefreshTokenPostgres struct {
	db *sql.DB
}

// NewRefreshTokenPostgres creates a new RefreshTokenPostgres repository.
func NewRefreshTokenPostgres(db *sql.DB) *RefreshTokenPostgres {
	return &RefreshTokenPostgres{db: db}
}

var _ repository.RefreshTokenRepository = (*RefreshTokenPostgres)(nil)

const tokenColumns = "id, token, user_id, expires_at, revoked, created_at, updated_at"

func scanToken(row interface{ Scan(...any) error }) (*model.RefreshToken, error) {
	var t model.RefreshToken
	if err := row.Scan(
		&t.ID,
		&t.Token,
		&t.UserID,
		&t.ExpiresAt,
		&t.Revoked,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a refresh token row and returns the stored record.
func (r *RefreshTokenPostgres) Create(
	ctx context.Context, t *model.RefreshToken,
) (*model.RefreshToken, error) {
	const q = `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING ` + tokenColumns + `
	`
	return scanToken(r.db.QueryRowContext(ctx, q, t.Token, t.UserID, t.ExpiresAt))
}

// FindByToken fetches a stored refresh token by its token string.
func (r *RefreshTokenPostgres) FindByToken(
	ctx context.Context, token string,
) (*model.RefreshToken, error) {
	const q = `SELECT ` + tokenColumns + ` FROM refresh_tokens WHERE token = $1`
	return scanToken(r.db.QueryRowContext(ctx, q, token))
}

// Revoke marks a refresh token as revoked. Missing rows are not an error.
func (r *RefreshTokenPostgres) Revoke(ctx context.Context, token string) error {
	const q = `UPDATE refresh_tokens SET revoked = TRUE, updated_at = now() WHERE token = $1`
	_, err := r.db.ExecContext(ctx, q, token)
	return err
}

// DeleteExpired removes tokens whose expiry has passed.
func (r *RefreshTokenPostgres) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at < now()`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
