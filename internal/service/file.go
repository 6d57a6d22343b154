package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"apistarter/internal/model"
	"apistarter/internal/repository"
	"apistarter/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("file not found")
	ErrReaderNil  = errors.New("reader is nil")
)

// downloadURLExpiry bounds how long a presigned download link stays valid.
const downloadURLExpiry = 15 * time.Minute

// FileListResult is the service-level DTO for paginated files.
type FileListResult struct {
	Items []model.File `json:"data"`
	Total int          `json:"total"`
}

// FileService defines the use cases for user-owned file handling.
// Every operation is scoped to the owner; a file belonging to another
// user behaves exactly like a missing one.
type FileService interface {
	// Upload uploads the content to object storage, saves metadata to DB, and
	// rolls back storage if DB save fails.
	// - originalFilename is used only to extract extension; the stored object
	//   name is UUID + original extension.
	Upload(
		ctx context.Context,
		ownerID int64,
		r io.Reader,
		originalFilename string,
		contentType string,
		size int64,
	) (*model.File, error)

	// List returns the owner's files using limit/offset and a total count.
	List(ctx context.Context, ownerID int64, limit, offset int) (*FileListResult, error)

	// Get returns a single file by its ID.
	Get(ctx context.Context, ownerID int64, id string) (*model.File, error)

	// DownloadURL returns a short-lived presigned URL for the file content.
	DownloadURL(ctx context.Context, ownerID int64, id string) (string, error)

	// Delete removes a file by ID from both storage and repository.
	Delete(ctx context.Context, ownerID int64, id string) error
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	store storage.Storage
	repo  repository.FileRepository
}

// NewFileService constructs a new FileService.
func NewFileService(store storage.Storage, repo repository.FileRepository) FileService {
	return &fileService{store: store, repo: repo}
}

func (s *fileService) Upload(
	ctx context.Context,
	ownerID int64,
	r io.Reader,
	originalFilename string,
	contentType string,
	size int64,
) (*model.File, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	ext := filepath.Ext(originalFilename)
	genName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("files", strconv.FormatInt(ownerID, 10), genName))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	f := &model.File{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Filename:    genName,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, f)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns the owner's paginated files without exposing repository types.
func (s *fileService) List(
	ctx context.Context, ownerID int64, limit, offset int,
) (*FileListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListByOwner(ctx, ownerID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &FileListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a file by ID if it belongs to the owner.
func (s *fileService) Get(ctx context.Context, ownerID int64, id string) (*model.File, error) {
	return s.findOwned(ctx, ownerID, id)
}

// DownloadURL presigns the stored object for a limited time.
func (s *fileService) DownloadURL(ctx context.Context, ownerID int64, id string) (string, error) {
	f, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, f.StoragePath, downloadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}

// Delete removes a file from storage, then deletes its record.
func (s *fileService) Delete(ctx context.Context, ownerID int64, id string) error {
	f, err := s.findOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid losing the storage reference
	if err := s.store.Delete(ctx, f.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, f.ID)
}

func (s *fileService) findOwned(
	ctx context.Context, ownerID int64, id string,
) (*model.File, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Another user's file must look identical to a missing one.
	if f.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return f, nil
}
