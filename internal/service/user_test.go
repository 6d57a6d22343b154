package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"apistarter/internal/model"
	"apistarter/internal/repository"
	repoMocks "apistarter/internal/repository/mocks"
)

func TestUserService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		search     string
		setupMocks func(mRepo *repoMocks.MockUserRepository)
		wantErr    error
		checkRes   func(t *testing.T, res *UserListResult)
	}{
		{
			name:   "happy path",
			limit:  10,
			offset: 0,
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.User]{
						Items: []model.User{{ID: 1}, {ID: 2}},
						Total: 2,
					}, nil)
			},
			checkRes: func(t *testing.T, res *UserListResult) {
				assert.Equal(t, 2, len(res.Items))
				assert.Equal(t, 2, res.Total)
			},
		},
		{
			name:   "search is passed through",
			limit:  10,
			search: "alice",
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0, Search: "alice"}).
					Return(&repository.PageResult[model.User]{Items: []model.User{{ID: 1}}, Total: 1}, nil)
			},
		},
		{
			name:   "pagination boundary - zero limit uses default",
			limit:  0,
			offset: -1,
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.User]{Items: []model.User{}, Total: 0}, nil)
			},
		},
		{
			name:  "repository error",
			limit: 10,
			setupMocks: func(mRepo *repoMocks.MockUserRepository) {
				mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockUserRepository)
			svc := NewUserService(mRepo)

			tt.setupMocks(mRepo)

			res, err := svc.List(ctx, tt.limit, tt.offset, tt.search)

			if tt.wantErr != nil {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				if tt.checkRes != nil {
					tt.checkRes(t, res)
				}
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo)

		mRepo.On("FindByID", ctx, int64(1)).Return(&model.User{ID: 1, Email: "test@user.com"}, nil)

		user, err := svc.Get(ctx, 1)

		assert.NoError(t, err)
		assert.Equal(t, "test@user.com", user.Email)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo)

		mRepo.On("FindByID", ctx, int64(9)).Return(nil, sql.ErrNoRows)

		_, err := svc.Get(ctx, 9)

		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockUserRepository)
		svc := NewUserService(mRepo)

		mRepo.On("FindByID", ctx, int64(1)).Return(nil, errors.New("db fail"))

		_, err := svc.Get(ctx, 1)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUserNotFound)
	})
}
