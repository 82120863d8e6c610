package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/neuroquarkk/authify/internal/infra/config"
	"github.com/neuroquarkk/authify/internal/infra/telemetry"
	"github.com/neuroquarkk/authify/internal/transport/http/handlers"
	"github.com/neuroquarkk/authify/internal/transport/http/middleware"
	"github.com/neuroquarkk/authify/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth  *usecase.AuthService
	Users *usecase.UserService
	Audit *usecase.AuditService
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Metrics     *telemetry.Metrics
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.CORS([]string{deps.Config.App.ClientURL}))

	checks := make(map[string]handlers.HealthCheck, 2)
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}
	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth)
		authHandler.RegisterRoutes(authGroup,
			buildThrottleMiddlewares(deps, "login", deps.Config.RateLimit.LoginMaxAttempts),
			buildThrottleMiddlewares(deps, "password_reset", deps.Config.RateLimit.PasswordResetMaxAttempts),
		)

		userGroup := api.Group("/users", middleware.RequireAuth(deps.Services.Auth))
		userHandler := handlers.NewUserHandler(deps.Services.Users, deps.Services.Audit)
		userHandler.RegisterRoutes(userGroup)
	}

	return r
}

func buildThrottleMiddlewares(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	cfg := deps.Config.RateLimit
	if !cfg.Enabled || deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     cfg.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.Limit(rule)}
}
