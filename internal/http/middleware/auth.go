package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"apistarter/internal/model"
	"apistarter/internal/service"
)

const (
	// CurrentUserLocalKey is the key under which Auth stores the resolved user.
	CurrentUserLocalKey = "current_user"
	// AccessTokenCookie is the cookie checked when no Authorization header is present.
	AccessTokenCookie = "access_token"
)

// Auth authenticates the request via a bearer access token. The token is read
// from the Authorization header first, then from the access_token cookie, so
// both API clients and browser sessions work. The resolved user is stored in
// context locals under CurrentUserLocalKey.
func Auth(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			token = c.Cookies(AccessTokenCookie)
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing access token")
		}

		user, err := svc.Authenticate(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid access token")
		}

		c.Locals(CurrentUserLocalKey, user)
		return c.Next()
	}
}

// RequireVerified rejects authenticated users that have not confirmed their
// email address yet. Must run after Auth.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing access token")
		}
		if !user.IsVerified {
			return fiber.NewError(fiber.StatusForbidden, "email not verified")
		}
		return c.Next()
	}
}

// RequireSuperuser restricts a route to superusers. Must run after Auth.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := UserFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing access token")
		}
		if !user.IsSuperuser {
			return fiber.NewError(fiber.StatusForbidden, "superuser required")
		}
		return c.Next()
	}
}

// UserFromCtx returns the user stored by Auth, if any.
func UserFromCtx(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(CurrentUserLocalKey).(*model.User)
	return user, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
