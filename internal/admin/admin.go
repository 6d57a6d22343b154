// Package admin serves a minimal server-rendered panel for superusers to
// browse accounts and uploaded files. It authenticates with the same JWT
// access tokens as the API, held in a dedicated httponly cookie.
package admin

import (
	"database/sql"
	"embed"
	"errors"
	"html/template"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"apistarter/internal/model"
	"apistarter/internal/repository"
	"apistarter/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	// SessionCookie holds the superuser's access token for the panel.
	SessionCookie = "admin_session"

	pageSize = 25
)

// Admin bundles the dependencies of the panel routes.
type Admin struct {
	auth          service.AuthService
	users         repository.UserRepository
	files         repository.FileRepository
	secureCookies bool

	tmpl *template.Template
}

// New parses the embedded templates and returns a ready-to-mount Admin.
func New(
	auth service.AuthService,
	users repository.UserRepository,
	files repository.FileRepository,
	secureCookies bool,
) (*Admin, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Admin{
		auth:          auth,
		users:         users,
		files:         files,
		secureCookies: secureCookies,
		tmpl:          tmpl,
	}, nil
}

// Register mounts the panel under /admin.
func (a *Admin) Register(app *fiber.App) {
	g := app.Group("/admin")
	g.Get("/login", a.loginForm)
	g.Post("/login", a.login)
	g.Get("/logout", a.logout)
	g.Get("/", a.requireSuperuser, func(c *fiber.Ctx) error {
		return c.Redirect("/admin/users")
	})
	g.Get("/users", a.requireSuperuser, a.listUsers)
	g.Get("/users/:id", a.requireSuperuser, a.userDetail)
	g.Get("/files", a.requireSuperuser, a.listFiles)
}

// requireSuperuser resolves the session cookie and rejects everyone but
// superusers. Failures redirect to the login form instead of returning JSON.
func (a *Admin) requireSuperuser(c *fiber.Ctx) error {
	token := c.Cookies(SessionCookie)
	if token == "" {
		return c.Redirect("/admin/login")
	}
	user, err := a.auth.Authenticate(c.UserContext(), token)
	if err != nil || !user.IsSuperuser {
		a.clearSession(c)
		return c.Redirect("/admin/login")
	}
	c.Locals("admin_user", user)
	return c.Next()
}

func (a *Admin) loginForm(c *fiber.Ctx) error {
	return a.render(c, "login.html", fiber.Map{"Error": ""})
}

func (a *Admin) login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	pair, user, err := a.auth.Login(c.UserContext(), email, password)
	if err != nil || !user.IsSuperuser {
		c.Status(fiber.StatusUnauthorized)
		return a.render(c, "login.html", fiber.Map{"Error": "invalid credentials"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    pair.AccessToken,
		HTTPOnly: true,
		Secure:   a.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/admin/users")
}

func (a *Admin) logout(c *fiber.Ctx) error {
	a.clearSession(c)
	return c.Redirect("/admin/login")
}

func (a *Admin) listUsers(c *fiber.Ctx) error {
	page := pageNumber(c)
	search := c.Query("search")

	res, err := a.users.List(c.UserContext(), repository.PageQuery{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
		Search: search,
	})
	if err != nil {
		return fiber.ErrInternalServerError
	}

	return a.render(c, "users.html", fiber.Map{
		"CurrentUser": c.Locals("admin_user").(*model.User),
		"Users":       res.Items,
		"Total":       res.Total,
		"Page":        page,
		"PrevPage":    page - 1,
		"NextPage":    page + 1,
		"HasPrev":     page > 1,
		"HasNext":     page*pageSize < res.Total,
		"Search":      search,
	})
}

func (a *Admin) userDetail(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	user, err := a.users.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fiber.ErrNotFound
		}
		return fiber.ErrInternalServerError
	}

	return a.render(c, "user_detail.html", fiber.Map{
		"CurrentUser":  c.Locals("admin_user").(*model.User),
		"User":         user,
		"PasswordHash": truncateHash(user.PasswordHash),
	})
}

func (a *Admin) listFiles(c *fiber.Ctx) error {
	page := pageNumber(c)
	search := c.Query("search")

	res, err := a.files.List(c.UserContext(), repository.PageQuery{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
		Search: search,
	})
	if err != nil {
		return fiber.ErrInternalServerError
	}

	return a.render(c, "files.html", fiber.Map{
		"CurrentUser": c.Locals("admin_user").(*model.User),
		"Files":       res.Items,
		"Total":       res.Total,
		"Page":        page,
		"PrevPage":    page - 1,
		"NextPage":    page + 1,
		"HasPrev":     page > 1,
		"HasNext":     page*pageSize < res.Total,
		"Search":      search,
	})
}

func (a *Admin) render(c *fiber.Ctx, name string, data fiber.Map) error {
	c.Type("html")
	return a.tmpl.ExecuteTemplate(c.Response().BodyWriter(), name, data)
}

func (a *Admin) clearSession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		HTTPOnly: true,
		MaxAge:   -1,
	})
}

// truncateHash keeps enough of the hash to identify its algorithm without
// putting the full value on a page.
func truncateHash(h string) string {
	const keep = 12
	if len(h) <= keep {
		return h
	}
	return h[:keep] + "..."
}

func pageNumber(c *fiber.Ctx) int {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return page
}
