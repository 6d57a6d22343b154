package repository

import (
	"context"

	"apistarter/internal/model"
)

// RefreshTokenRepository defines data access for persisted refresh tokens.
type RefreshTokenRepository interface {
	// Create stores a newly minted refresh token.
	Create(ctx context.Context, t *model.RefreshToken) (*model.RefreshToken, error)

	// FindByToken returns the stored row for the given token string.
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)

	// Revoke marks the token as revoked. It returns nil if the token does not exist.
	Revoke(ctx context.Context, token string) error

	// DeleteExpired removes tokens past their expiry and returns how many were deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}
