package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"apistarter/internal/auth"
	"apistarter/internal/http/middleware"
	"apistarter/internal/model"
	"apistarter/internal/service"
)

var validate = validator.New()

const refreshTokenCookie = "refresh_token"

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userData struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
}

// sessionResponse is the login/refresh body: the token pair plus a compact
// user payload so clients need no follow-up profile request.
type sessionResponse struct {
	service.TokenPair
	UserData userData `json:"user_data"`
}

func newSessionResponse(pair *service.TokenPair, user *model.User) sessionResponse {
	return sessionResponse{
		TokenPair: *pair,
		UserData: userData{
			ID:         user.ID,
			Email:      user.Email,
			IsVerified: user.IsVerified,
		},
	}
}

// RegisterUser creates a new account and triggers the verification email.
//
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body credentialsRequest true "Credentials"
// @Success 201 {object} map[string]string
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /auth/register [post]
func RegisterUser(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR",
				"email must be valid and password 8-128 characters")
		}

		if err := svc.Register(c.UserContext(), req.Email, req.Password); err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				return writeError(c, fiber.StatusConflict, "EMAIL_TAKEN", "user with this email already exists")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "registered"})
	}
}

// Login exchanges credentials for a token pair. The tokens are returned in the
// body and also set as httponly cookies for browser clients.
//
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body credentialsRequest true "Credentials"
// @Success 200 {object} sessionResponse
// @Failure 401 {object} errorPayload
// @Router /auth/login [post]
func Login(svc service.AuthService, secureCookies bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.Email == "" || req.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR",
				"email and password are required")
		}

		pair, user, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS",
					"invalid email or password")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		setSessionCookies(c, pair, secureCookies)
		return c.JSON(newSessionResponse(pair, user))
	}
}

// RefreshSession rotates a refresh token into a new token pair. The token is
// read from the body, falling back to the refresh_token cookie.
//
// @Summary Refresh the session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshRequest false "Refresh token"
// @Success 200 {object} sessionResponse
// @Failure 401 {object} errorPayload
// @Router /auth/refresh [post]
func RefreshSession(svc service.AuthService, secureCookies bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := refreshTokenFromRequest(c)
		if token == "" {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "refresh token required")
		}

		pair, user, err := svc.Refresh(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidRefreshToken) {
				return writeError(c, fiber.StatusUnauthorized, "INVALID_REFRESH_TOKEN",
					"refresh token is invalid or expired")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		setSessionCookies(c, pair, secureCookies)
		return c.JSON(newSessionResponse(pair, user))
	}
}

// Logout revokes the refresh token and clears the session cookies.
//
// @Summary Log out
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func Logout(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext(), refreshTokenFromRequest(c)); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		clearSessionCookies(c)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// VerifyEmail consumes the emailed verification token.
//
// @Summary Verify email address
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /auth/verify [get]
func VerifyEmail(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return writeError(c, fiber.StatusBadRequest, "TOKEN_REQUIRED", "token is required")
		}

		if err := svc.VerifyEmail(c.UserContext(), token); err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				return writeError(c, fiber.StatusBadRequest, "TOKEN_EXPIRED", "verification token expired")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrInvalidTokenType),
				errors.Is(err, auth.ErrInvalidPayload):
				return writeError(c, fiber.StatusBadRequest, "INVALID_TOKEN", "verification token is invalid")
			case errors.Is(err, service.ErrUserNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "user not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(fiber.Map{"status": "verified"})
	}
}

// CurrentUser returns the authenticated user's profile.
//
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} errorPayload
// @Router /users/me [get]
func CurrentUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := middleware.UserFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}
		return c.JSON(user)
	}
}

func refreshTokenFromRequest(c *fiber.Ctx) string {
	var req refreshRequest
	if err := c.BodyParser(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	return c.Cookies(refreshTokenCookie)
}

func setSessionCookies(c *fiber.Ctx, pair *service.TokenPair, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.AccessToken,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(pair.AccessExpiresIn) * time.Second),
	})
	c.Cookie(&fiber.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(pair.RefreshExpiresIn) * time.Second),
	})
}

func clearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			HTTPOnly: true,
			Expires:  time.Now().Add(-time.Hour),
		})
	}
}
