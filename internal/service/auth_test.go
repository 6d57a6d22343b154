package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"apistarter/internal/auth"
	"apistarter/internal/config"
	mailMocks "apistarter/internal/mail/mocks"
	"apistarter/internal/model"
	repoMocks "apistarter/internal/repository/mocks"
)

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(config.AuthConfig{
		SecretKey:               "test-secret",
		AccessTokenExpireMin:    60,
		RefreshTokenExpireDays:  2,
		VerificationExpireHours: 24,
	})
}

func newTestAuthService(
	users *repoMocks.MockUserRepository,
	tokens *repoMocks.MockRefreshTokenRepository,
	mailer *mailMocks.MockMailer,
) *authService {
	svc := NewAuthService(users, tokens, newTestTokenManager(), mailer,
		"http://localhost:8000/auth/verify?token=", "apistarter")
	return svc.(*authService)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		email      string
		setupMocks func(mUsers *repoMocks.MockUserRepository, mMailer *mailMocks.MockMailer)
		wantErr    error
	}{
		{
			name:  "happy path sends verification email",
			email: "new@user.com",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mMailer *mailMocks.MockMailer) {
				mUsers.On("FindByEmail", ctx, "new@user.com").Return(nil, sql.ErrNoRows)
				mUsers.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
					return u.Email == "new@user.com" && u.PasswordHash != "" && u.PasswordHash != "hunter22"
				})).Return(&model.User{ID: 1, Email: "new@user.com"}, nil)
				mMailer.On("Send", mock.Anything, "new@user.com", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:  "email already taken",
			email: "taken@user.com",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mMailer *mailMocks.MockMailer) {
				mUsers.On("FindByEmail", ctx, "taken@user.com").Return(&model.User{ID: 1, Email: "taken@user.com"}, nil)
			},
			wantErr: ErrEmailTaken,
		},
		{
			name:  "lookup error",
			email: "err@user.com",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mMailer *mailMocks.MockMailer) {
				mUsers.On("FindByEmail", ctx, "err@user.com").Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
		{
			name:  "create error",
			email: "new@user.com",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mMailer *mailMocks.MockMailer) {
				mUsers.On("FindByEmail", ctx, "new@user.com").Return(nil, sql.ErrNoRows)
				mUsers.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
		{
			name:  "email delivery failure does not fail registration",
			email: "new@user.com",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mMailer *mailMocks.MockMailer) {
				mUsers.On("FindByEmail", ctx, "new@user.com").Return(nil, sql.ErrNoRows)
				mUsers.On("Create", ctx, mock.Anything).Return(&model.User{ID: 1, Email: "new@user.com"}, nil)
				mMailer.On("Send", mock.Anything, "new@user.com", mock.Anything, mock.Anything).
					Return(errors.New("smtp down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mUsers := new(repoMocks.MockUserRepository)
			mTokens := new(repoMocks.MockRefreshTokenRepository)
			mMailer := new(mailMocks.MockMailer)
			svc := newTestAuthService(mUsers, mTokens, mMailer)

			tt.setupMocks(mUsers, mMailer)

			err := svc.Register(ctx, tt.email, "hunter22")
			svc.bg.Wait()

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrEmailTaken) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				assert.NoError(t, err)
			}
			mUsers.AssertExpectations(t)
			mMailer.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	user := &model.User{ID: 1, Email: "test@user.com", PasswordHash: hash}

	tests := []struct {
		name       string
		password   string
		setupMocks func(mUsers *repoMocks.MockUserRepository, mTokens *repoMocks.MockRefreshTokenRepository)
		wantErr    error
	}{
		{
			name:     "happy path",
			password: "hunter22",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mTokens *repoMocks.MockRefreshTokenRepository) {
				mUsers.On("FindByEmail", ctx, "test@user.com").Return(user, nil)
				mTokens.On("Create", ctx, mock.MatchedBy(func(rt *model.RefreshToken) bool {
					return rt.UserID == 1 && rt.Token != "" && rt.ExpiresAt.After(time.Now())
				})).Return(&model.RefreshToken{ID: 1}, nil)
			},
		},
		{
			name:     "unknown email",
			password: "hunter22",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mTokens *repoMocks.MockRefreshTokenRepository) {
				mUsers.On("FindByEmail", ctx, "test@user.com").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			password: "not-the-password",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mTokens *repoMocks.MockRefreshTokenRepository) {
				mUsers.On("FindByEmail", ctx, "test@user.com").Return(user, nil)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:     "token store error",
			password: "hunter22",
			setupMocks: func(mUsers *repoMocks.MockUserRepository, mTokens *repoMocks.MockRefreshTokenRepository) {
				mUsers.On("FindByEmail", ctx, "test@user.com").Return(user, nil)
				mTokens.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("store refresh token"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mUsers := new(repoMocks.MockUserRepository)
			mTokens := new(repoMocks.MockRefreshTokenRepository)
			svc := newTestAuthService(mUsers, mTokens, new(mailMocks.MockMailer))

			tt.setupMocks(mUsers, mTokens)

			pair, got, err := svc.Login(ctx, "test@user.com", tt.password)

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrInvalidCredentials) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Error(t, err)
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				assert.Nil(t, pair)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, pair)
				assert.NotEmpty(t, pair.AccessToken)
				assert.NotEmpty(t, pair.RefreshToken)
				assert.Equal(t, "bearer", pair.TokenType)
				assert.Equal(t, int64(3600), pair.AccessExpiresIn)
				assert.Equal(t, user.Email, got.Email)
			}
			mUsers.AssertExpectations(t)
			mTokens.AssertExpectations(t)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	user := &model.User{ID: 1, Email: "test@user.com"}

	mint := func(t *testing.T) string {
		token, err := newTestTokenManager().RefreshToken(user.Email)
		require.NoError(t, err)
		return token
	}

	t.Run("happy path rotates the token", func(t *testing.T) {
		token := mint(t)
		mUsers := new(repoMocks.MockUserRepository)
		mTokens := new(repoMocks.MockRefreshTokenRepository)
		svc := newTestAuthService(mUsers, mTokens, new(mailMocks.MockMailer))

		mTokens.On("FindByToken", ctx, token).Return(&model.RefreshToken{
			Token:     token,
			UserID:    1,
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)
		mUsers.On("FindByEmail", ctx, user.Email).Return(user, nil)
		mTokens.On("Revoke", ctx, token).Return(nil)
		mTokens.On("Create", ctx, mock.Anything).Return(&model.RefreshToken{ID: 2}, nil)

		pair, got, err := svc.Refresh(ctx, token)

		assert.NoError(t, err)
		require.NotNil(t, pair)
		assert.NotEqual(t, token, pair.RefreshToken)
		assert.Equal(t, user.Email, got.Email)
		mTokens.AssertExpectations(t)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newTestAuthService(new(repoMocks.MockUserRepository), new(repoMocks.MockRefreshTokenRepository), new(mailMocks.MockMailer))

		_, _, err := svc.Refresh(ctx, "not-a-jwt")

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		token := mint(t)
		mTokens := new(repoMocks.MockRefreshTokenRepository)
		svc := newTestAuthService(new(repoMocks.MockUserRepository), mTokens, new(mailMocks.MockMailer))

		mTokens.On("FindByToken", ctx, token).Return(nil, sql.ErrNoRows)

		_, _, err := svc.Refresh(ctx, token)

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("revoked token", func(t *testing.T) {
		token := mint(t)
		mTokens := new(repoMocks.MockRefreshTokenRepository)
		svc := newTestAuthService(new(repoMocks.MockUserRepository), mTokens, new(mailMocks.MockMailer))

		mTokens.On("FindByToken", ctx, token).Return(&model.RefreshToken{
			Token:     token,
			UserID:    1,
			ExpiresAt: time.Now().Add(time.Hour),
			Revoked:   true,
		}, nil)

		_, _, err := svc.Refresh(ctx, token)

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("expired stored token", func(t *testing.T) {
		token := mint(t)
		mTokens := new(repoMocks.MockRefreshTokenRepository)
		svc := newTestAuthService(new(repoMocks.MockUserRepository), mTokens, new(mailMocks.MockMailer))

		mTokens.On("FindByToken", ctx, token).Return(&model.RefreshToken{
			Token:     token,
			UserID:    1,
			ExpiresAt: time.Now().Add(-time.Hour),
		}, nil)

		_, _, err := svc.Refresh(ctx, token)

		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes stored token", func(t *testing.T) {
		mTokens := new(repoMocks.MockRefreshTokenRepository)
		svc := newTestAuthService(new(repoMocks.MockUserRepository), mTokens, new(mailMocks.MockMailer))

		mTokens.On("Revoke", ctx, "some-token").Return(nil)

		assert.NoError(t, svc.Logout(ctx, "some-token"))
		mTokens.AssertExpectations(t)
	})

	t.Run("empty token is a no-op", func(t *testing.T) {
		mTokens := new(repoMocks.MockRefreshTokenRepository)
		svc := newTestAuthService(new(repoMocks.MockUserRepository), mTokens, new(mailMocks.MockMailer))

		assert.NoError(t, svc.Logout(ctx, ""))
		mTokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	ctx := context.Background()
	tm := newTestTokenManager()

	t.Run("marks user verified", func(t *testing.T) {
		token, err := tm.VerificationToken("test@user.com")
		require.NoError(t, err)

		mUsers := new(repoMocks.MockUserRepository)
		svc := newTestAuthService(mUsers, new(repoMocks.MockRefreshTokenRepository), new(mailMocks.MockMailer))

		mUsers.On("FindByEmail", ctx, "test@user.com").Return(&model.User{ID: 1, Email: "test@user.com"}, nil)
		mUsers.On("SetVerified", ctx, int64(1)).Return(nil)

		assert.NoError(t, svc.VerifyEmail(ctx, token))
		mUsers.AssertExpectations(t)
	})

	t.Run("already verified is a no-op", func(t *testing.T) {
		token, err := tm.VerificationToken("test@user.com")
		require.NoError(t, err)

		mUsers := new(repoMocks.MockUserRepository)
		svc := newTestAuthService(mUsers, new(repoMocks.MockRefreshTokenRepository), new(mailMocks.MockMailer))

		mUsers.On("FindByEmail", ctx, "test@user.com").Return(&model.User{ID: 1, Email: "test@user.com", IsVerified: true}, nil)

		assert.NoError(t, svc.VerifyEmail(ctx, token))
		mUsers.AssertNotCalled(t, "SetVerified", mock.Anything, mock.Anything)
	})

	t.Run("session token is rejected", func(t *testing.T) {
		token, err := tm.AccessToken("test@user.com")
		require.NoError(t, err)

		svc := newTestAuthService(new(repoMocks.MockUserRepository), new(repoMocks.MockRefreshTokenRepository), new(mailMocks.MockMailer))

		assert.ErrorIs(t, svc.VerifyEmail(ctx, token), auth.ErrInvalidTokenType)
	})

	t.Run("unknown user", func(t *testing.T) {
		token, err := tm.VerificationToken("gone@user.com")
		require.NoError(t, err)

		mUsers := new(repoMocks.MockUserRepository)
		svc := newTestAuthService(mUsers, new(repoMocks.MockRefreshTokenRepository), new(mailMocks.MockMailer))

		mUsers.On("FindByEmail", ctx, "gone@user.com").Return(nil, sql.ErrNoRows)

		assert.ErrorIs(t, svc.VerifyEmail(ctx, token), ErrUserNotFound)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	tm := newTestTokenManager()

	t.Run("resolves the token's user", func(t *testing.T) {
		token, err := tm.AccessToken("test@user.com")
		require.NoError(t, err)

		mUsers := new(repoMocks.MockUserRepository)
		svc := newTestAuthService(mUsers, new(repoMocks.MockRefreshTokenRepository), new(mailMocks.MockMailer))

		mUsers.On("FindByEmail", ctx, "test@user.com").Return(&model.User{ID: 1, Email: "test@user.com"}, nil)

		user, err := svc.Authenticate(ctx, token)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := newTestAuthService(new(repoMocks.MockUserRepository), new(repoMocks.MockRefreshTokenRepository), new(mailMocks.MockMailer))

		_, err := svc.Authenticate(ctx, "not-a-jwt")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("user deleted after token issued", func(t *testing.T) {
		token, err := tm.AccessToken("gone@user.com")
		require.NoError(t, err)

		mUsers := new(repoMocks.MockUserRepository)
		svc := newTestAuthService(mUsers, new(repoMocks.MockRefreshTokenRepository), new(mailMocks.MockMailer))

		mUsers.On("FindByEmail", ctx, "gone@user.com").Return(nil, sql.ErrNoRows)

		_, err = svc.Authenticate(ctx, token)

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_PurgeExpiredSessions(t *testing.T) {
	ctx := context.Background()

	t.Run("reports how many rows were removed", func(t *testing.T) {
		mTokens := new(repoMocks.MockRefreshTokenRepository)
		svc := newTestAuthService(new(repoMocks.MockUserRepository), mTokens, new(mailMocks.MockMailer))

		mTokens.On("DeleteExpired", ctx).Return(int64(3), nil)

		n, err := svc.PurgeExpiredSessions(ctx)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), n)
		mTokens.AssertExpectations(t)
	})

	t.Run("delete error", func(t *testing.T) {
		mTokens := new(repoMocks.MockRefreshTokenRepository)
		svc := newTestAuthService(new(repoMocks.MockUserRepository), mTokens, new(mailMocks.MockMailer))

		mTokens.On("DeleteExpired", ctx).Return(int64(0), errors.New("db fail"))

		_, err := svc.PurgeExpiredSessions(ctx)

		assert.Error(t, err)
	})
}
