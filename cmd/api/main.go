package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"apistarter/docs"
	"apistarter/internal/admin"
	"apistarter/internal/auth"
	"apistarter/internal/config"
	"apistarter/internal/database"
	handlers "apistarter/internal/http/handler"
	"apistarter/internal/http/middleware"
	"apistarter/internal/mail"
	apotel "apistarter/internal/otel"
	"apistarter/internal/repository/postgres"
	"apistarter/internal/service"
	"apistarter/internal/storage"
)

// @title API Starter
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := apotel.Init(ctx, cfg.ServiceName)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Apply pending schema migrations before serving. In prefork mode only the
	// parent process runs them; the children inherit the finished schema.
	if !fiber.IsChild() {
		if err := database.MigrateUp(ctx, db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	mailer, err := mail.NewSMTP(cfg.SMTP)
	if err != nil {
		log.Fatalf("failed to initialize mailer: %v", err)
	}

	// Initialize repositories and services
	tokenManager := auth.NewTokenManager(cfg.Auth)
	userRepo := postgres.NewUserPostgres(db)
	refreshRepo := postgres.NewRefreshTokenPostgres(db)
	fileRepo := postgres.NewFilePostgres(db)

	authSvc := service.NewAuthService(userRepo, refreshRepo, tokenManager, mailer,
		cfg.Auth.VerificationURL, cfg.ServiceName)
	userSvc := service.NewUserService(userRepo)
	fileSvc := service.NewFileService(objStore, fileRepo)

	// Expired refresh tokens accumulate in the table; sweep them hourly.
	// Runs in the parent only so prefork children don't race on the delete.
	if !fiber.IsChild() {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				if n, err := authSvc.PurgeExpiredSessions(ctx); err != nil {
					log.Printf("session purge failed: %v", err)
				} else if n > 0 {
					log.Printf("purged %d expired refresh tokens", n)
				}
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}

	appCfg := fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		Prefork:      cfg.HTTP.Workers > 1,
	}
	if cfg.HTTP.TrustProxyHeaders {
		appCfg.ProxyHeader = fiber.HeaderXForwardedFor
	}
	app := fiber.New(appCfg)

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.HTTP.CORSOrigins, ","),
		AllowCredentials: true,
	}))

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, authSvc, userSvc, fileSvc, cfg.Auth.CookieSecure)

	// Superuser panel
	panel, err := admin.New(authSvc, userRepo, fileRepo, cfg.Auth.CookieSecure)
	if err != nil {
		log.Fatalf("failed to initialize admin panel: %v", err)
	}
	panel.Register(app)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
