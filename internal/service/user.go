package service

import (
	"context"
	"database/sql"
	"errors"

	"apistarter/internal/model"
	"apistarter/internal/repository"
)

// UserListResult is the service-level DTO for paginated users.
type UserListResult struct {
	Items []model.User `json:"data"`
	Total int          `json:"total"`
}

// UserService defines read-side use cases over user accounts.
type UserService interface {
	// List returns users using limit/offset and a total count.
	// A non-empty search narrows results to emails containing it.
	List(ctx context.Context, limit, offset int, search string) (*UserListResult, error)

	// Get returns a single user by ID.
	Get(ctx context.Context, id int64) (*model.User, error)
}

// userService is a concrete implementation of UserService.
type userService struct {
	repo repository.UserRepository
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) List(
	ctx context.Context, limit, offset int, search string,
) (*UserListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset, Search: search})
	if err != nil {
		return nil, err
	}
	return &UserListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
