package repository

import (
	"context"

	"apistarter/internal/model"
)

// FileRepository defines data access for file metadata using SQL queries only.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file by its ID.
	FindByID(ctx context.Context, id string) (*model.File, error)

	// ListByOwner returns a paginated list of one user's files and the total count.
	ListByOwner(ctx context.Context, ownerID int64, pq PageQuery) (*PageResult[model.File], error)

	// List returns a paginated list across all owners (admin use).
	List(ctx context.Context, pq PageQuery) (*PageResult[model.File], error)

	// Delete removes a file row by ID. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error
}
