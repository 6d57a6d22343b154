package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"apistarter/internal/auth"
	"apistarter/internal/mail"
	"apistarter/internal/model"
	"apistarter/internal/repository"
)

var (
	ErrEmailTaken          = errors.New("user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
)

// TokenPair is the session payload returned by login and refresh.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	AccessExpiresIn  int64  `json:"access_expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

// AuthService defines the use cases for registration and JWT session handling.
type AuthService interface {
	// Register creates a new account and emails a verification link in the background.
	Register(ctx context.Context, email, password string) error

	// Login verifies credentials and mints an access/refresh token pair.
	// The refresh token is persisted so it can be revoked later.
	Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error)

	// Refresh rotates a valid, non-revoked refresh token into a new pair.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, *model.User, error)

	// Logout revokes the stored refresh token.
	Logout(ctx context.Context, refreshToken string) error

	// VerifyEmail validates an email verification token and marks the user verified.
	VerifyEmail(ctx context.Context, token string) error

	// Authenticate resolves an access token to its user.
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)

	// PurgeExpiredSessions deletes refresh token rows past their expiry and
	// returns how many were removed. Meant to run periodically.
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// authService is a concrete implementation of AuthService.
type authService struct {
	users           repository.UserRepository
	refreshTokens   repository.RefreshTokenRepository
	tokens          *auth.TokenManager
	mailer          mail.Mailer
	verificationURL string
	serviceName     string

	// Tracks in-flight background email sends so shutdown and tests can wait.
	bg sync.WaitGroup
}

// NewAuthService constructs a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	refreshTokens repository.RefreshTokenRepository,
	tokens *auth.TokenManager,
	mailer mail.Mailer,
	verificationURL string,
	serviceName string,
) AuthService {
	return &authService{
		users:           users,
		refreshTokens:   refreshTokens,
		tokens:          tokens,
		mailer:          mailer,
		verificationURL: verificationURL,
		serviceName:     serviceName,
	}
}

func (s *authService) Register(ctx context.Context, email, password string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check existing user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.users.Create(ctx, &model.User{Email: email, PasswordHash: hash}); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.VerificationToken(email)
	if err != nil {
		return fmt.Errorf("mint verification token: %w", err)
	}

	// Delivery happens in the background; a failed email never fails registration.
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		s.sendVerificationEmail(email, token)
	}()

	return nil
}

func (s *authService) Login(
	ctx context.Context, email, password string,
) (*TokenPair, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *authService) Refresh(
	ctx context.Context, refreshToken string,
) (*TokenPair, *model.User, error) {
	email, err := s.tokens.ParseSubject(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	stored, err := s.refreshTokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, err
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, err
	}

	// Rotate: the presented token is spent regardless of what it is replaced with.
	if err := s.refreshTokens.Revoke(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refreshTokens.Revoke(ctx, refreshToken)
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	email, err := s.tokens.ParseVerification(token)
	if err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return nil
	}
	return s.users.SetVerified(ctx, user.ID)
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	email, err := s.tokens.ParseSubject(accessToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.refreshTokens.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return n, nil
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := s.tokens.AccessToken(user.Email)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := s.tokens.RefreshToken(user.Email)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	_, err = s.refreshTokens.Create(ctx, &model.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(s.tokens.RefreshTTL()),
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "bearer",
		AccessExpiresIn:  int64(s.tokens.AccessTTL().Seconds()),
		RefreshExpiresIn: int64(s.tokens.RefreshTTL().Seconds()),
	}, nil
}

func (s *authService) sendVerificationEmail(email, token string) {
	body, err := mail.RenderVerificationEmail(mail.VerificationEmailData{
		UserEmail:        email,
		VerificationLink: s.verificationURL + token,
	})
	if err != nil {
		logEmailError(email, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	subject := fmt.Sprintf("Email verification for %s", s.serviceName)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		logEmailError(email, err)
	}
}

func logEmailError(email string, err error) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "error",
		"component": "auth",
		"event":     "verification_email_failed",
		"recipient": email,
		"error":     err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
