package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apistarter/internal/model"
	"apistarter/internal/repository"
)

func fileRows(id string, ownerID int64, filename string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "filename", "storage_path", "size", "content_type", "created_at"}).
		AddRow(id, ownerID, filename, "files/1/"+filename, 123, "text/plain", time.Now().UTC())
}

func TestFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	f := &model.File{
		ID:          "test-uuid",
		OwnerID:     1,
		Filename:    "test.txt",
		StoragePath: "files/1/test.txt",
		Size:        123,
		ContentType: "text/plain",
		CreatedAt:   now,
	}

	mock.ExpectQuery("INSERT INTO files").
		WithArgs(f.ID, f.OwnerID, f.Filename, f.StoragePath, f.Size, f.ContentType, f.CreatedAt).
		WillReturnRows(fileRows(f.ID, f.OwnerID, f.Filename))

	stored, err := repo.Create(ctx, f)

	assert.NoError(t, err)
	assert.Equal(t, f.ID, stored.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(fileRows("test-id", 1, "file.txt"))

		f, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.Equal(t, "test-id", f.ID)
		assert.EqualValues(t, 1, f.OwnerID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		f, err := repo.FindByID(ctx, "missing")

		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, f)
	})
}

func TestFilePostgres_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM files WHERE owner_id").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT (.+) FROM files WHERE owner_id (.+) ORDER BY").
		WithArgs(int64(1), 10, 0).
		WillReturnRows(fileRows("test-id", 1, "file.txt"))

	res, err := repo.ListByOwner(ctx, 1, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM files WHERE id = ?").
		WithArgs("test-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete(ctx, "test-id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
