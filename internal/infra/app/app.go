package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/infra/config"
	"github.com/neuroquarkk/authify/internal/infra/database"
	kafkainfra "github.com/neuroquarkk/authify/internal/infra/kafka"
	"github.com/neuroquarkk/authify/internal/infra/logger"
	"github.com/neuroquarkk/authify/internal/infra/mail"
	redisinfra "github.com/neuroquarkk/authify/internal/infra/redis"
	"github.com/neuroquarkk/authify/internal/infra/security"
	"github.com/neuroquarkk/authify/internal/infra/telemetry"
	postgresrepo "github.com/neuroquarkk/authify/internal/repository/postgres"
	redisrepo "github.com/neuroquarkk/authify/internal/repository/redis"
	"github.com/neuroquarkk/authify/internal/transport/http/middleware"
	"github.com/neuroquarkk/authify/internal/transport/http/routes"
	"github.com/neuroquarkk/authify/internal/usecase"
)

// Application owns the wired engine and the resources it must release on exit.
type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
	kafka  *kafkainfra.Producer
}

// New wires the full service graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	cleanup := func() {
		pool.Close()
		_ = redisClient.Close()
	}

	hasher, err := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	codec, err := security.NewTokenCodec(cfg.JWT.Secret, cfg.App.Name, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	templates, err := mail.LoadTemplates(cfg.Mail.TemplatesDir)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("load mail templates: %w", err)
	}

	metrics := telemetry.New(nil)

	var eventPublisher port.EventPublisher
	var kafkaProducer *kafkainfra.Producer
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("kafka unavailable, dropping events", zap.Error(err))
			eventPublisher = kafkainfra.NewNoopPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
		}
	} else {
		eventPublisher = kafkainfra.NewNoopPublisher(log)
	}

	store := postgresrepo.NewStore(pool)
	notifier := mail.NewSMTPNotifier(cfg.Mail, log)
	mailer := mail.NewMailer(notifier, templates, cfg.App.ClientURL, metrics)
	validator := security.DefaultPasswordValidator()

	sessionService := usecase.NewSessionService(store, codec, log)
	twoFactorService := usecase.NewTwoFactorService(store, hasher, cfg.Tokens.TwoFactorTTL)
	verificationTokens := usecase.NewVerificationTokenService(store, cfg.Tokens.VerificationTTL)
	resetTokens := usecase.NewPasswordResetTokenService(store, cfg.Tokens.PasswordResetTTL)

	registrationService := usecase.NewRegistrationService(store, hasher, verificationTokens, validator, eventPublisher, log)
	passwordResetService := usecase.NewPasswordResetService(store, hasher, resetTokens, validator, eventPublisher, log)

	authService := usecase.NewAuthService(store, hasher, codec, sessionService, twoFactorService, registrationService, passwordResetService, mailer, metrics, log)
	userService := usecase.NewUserService(store, hasher)
	auditService := usecase.NewAuditService(store)

	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), cfg.Redis.RateLimitPrefix, cfg.RateLimit.WindowDuration*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Metrics:     metrics,
		RateLimiter: rateLimiter,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:  authService,
			Users: userService,
			Audit: auditService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
		kafka:  kafkaProducer,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		_ = a.redis.Close()
	}()
	defer func() {
		if a.kafka != nil {
			_ = a.kafka.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting authify API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
