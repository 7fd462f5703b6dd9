package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/homehaven/marketplace-api/internal/api/handler"
	"github.com/homehaven/marketplace-api/internal/api/middleware"
	"github.com/homehaven/marketplace-api/internal/core/domain"
	"github.com/homehaven/marketplace-api/internal/core/service"
	"github.com/homehaven/marketplace-api/internal/infrastructure/config"
	mongodb "github.com/homehaven/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/homehaven/marketplace-api/internal/infrastructure/db/redis"
)

// NewRouter builds the Echo instance with all routes registered. Every
// dependency is constructed here and injected; nothing lives at package
// scope.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	tokenRepo := mongodb.NewRefreshTokenRepository(db)
	hasher := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	signer := service.NewTokenSigner(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	throttle := redisdb.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginAttemptWindow)
	sessions := service.NewSessionService(userRepo, tokenRepo, hasher, signer, throttle, cfg.Auth.RefreshTokenTTL, log)

	authHandler := handler.NewAuthHandler(sessions, handler.CookieSettings{
		Domain: cfg.Cookie.Domain,
		Secure: cfg.CookieSecure(),
		MaxAge: cfg.Auth.RefreshTokenTTL,
	})
	userHandler := handler.NewUserHandler(userRepo)
	authRequired := middleware.Auth(signer)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout, authRequired)
	auth.POST("/logout-all", authHandler.LogoutAll, authRequired)

	// --- Protected routes ---
	e.GET("/users/me", userHandler.Me, authRequired)

	admin := e.Group("/admin", authRequired, middleware.RBAC(domain.RoleAdmin))
	admin.DELETE("/users/:id/sessions", authHandler.ForceLogout)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
