package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskhub/task-tracker/internal/api/handler"
	"github.com/taskhub/task-tracker/internal/api/middleware"
	"github.com/taskhub/task-tracker/internal/core/ports"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// The auth service arrives fully wired; the mongo/redis handles are only for
// the readiness probe.
func NewRouter(
	authService ports.AuthService,
	cookies handler.CookieOptions,
	db *mongo.Database,
	rdb *redis.Client,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("taskauth_http"))

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(authService, cookies)
	requireAuth := middleware.Auth(authService)

	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/me", authHandler.Me, requireAuth)
	e.POST("/auth/change-password", authHandler.ChangePassword, requireAuth)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
