package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"apistarter/internal/http/middleware"
	"apistarter/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	authSvc service.AuthService,
	userSvc service.UserService,
	fileSvc service.FileService,
	secureCookies bool,
) {
	// Health endpoints: /health checks DB connectivity, /healthz is liveness only
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Session lifecycle
	authGroup := app.Group("/auth")
	authGroup.Post("/register", RegisterUser(authSvc))
	authGroup.Post("/login", Login(authSvc, secureCookies))
	authGroup.Post("/refresh", RefreshSession(authSvc, secureCookies))
	authGroup.Post("/logout", Logout(authSvc))
	authGroup.Get("/verify", VerifyEmail(authSvc))

	// Account endpoints; listing other users is superuser-only
	users := app.Group("/users", middleware.Auth(authSvc))
	users.Get("/me", CurrentUser())
	users.Get("/", middleware.RequireSuperuser(), ListUsers(userSvc))
	users.Get("/:id", middleware.RequireSuperuser(), GetUser(userSvc))

	// File endpoints require a confirmed email address
	files := app.Group("/files", middleware.Auth(authSvc), middleware.RequireVerified())
	files.Post("/", UploadFile(fileSvc))
	files.Get("/", ListFiles(fileSvc))
	files.Get("/:id", GetFile(fileSvc))
	files.Get("/:id/download", DownloadFile(fileSvc))
	files.Delete("/:id", DeleteFile(fileSvc))
}
