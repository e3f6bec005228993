package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expert-backend/config"
	_ "expert-backend/docs" // Important for Swagger
	v1 "expert-backend/internal/delivery/http/v1"
	"expert-backend/internal/repository/postgres"
	redisrepo "expert-backend/internal/repository/redis"
	"expert-backend/internal/usecase"
	"expert-backend/pkg/auth"
	"expert-backend/pkg/authprovider"
	"expert-backend/pkg/database"
	"expert-backend/pkg/email"
	"expert-backend/pkg/logger"
	"expert-backend/pkg/metrics"
	"expert-backend/pkg/redis"
	"expert-backend/pkg/security"
	"expert-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	svix "github.com/svix/svix-webhooks/go"
)

// @title           Expert Backend API
// @version         1.0
// @description     Identity resolution, onboarding and auth provider sync for the expert marketplace.
// @host            localhost:8000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(cfg.AppEnv)
	secLogger := security.InitSecurityLogger("expert-backend", cfg.AppEnv)
	defer secLogger.Sync()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Log.Info("Starting expert backend", "port", cfg.Port, "env", cfg.AppEnv)

	ctx := context.Background()

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := database.RunMigrations(ctx, dbPool); err != nil {
		logger.Log.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// 4. Setup Redis (optional)
	var redisClient *goredis.Client
	redisClient, err = redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
	switch {
	case errors.Is(err, redis.ErrNotConfigured):
		logger.Log.Warn("Redis not configured, using in-process rate limiting without webhook dedupe")
	case err != nil:
		logger.Log.Warn("Redis unavailable, using in-process rate limiting without webhook dedupe", "error", err)
	default:
		defer redisClient.Close()
		logger.Log.Info("Redis connection established")
	}

	// 5. Setup Repositories
	userRepo := postgres.NewUserRepository(dbPool)
	teamRepo := postgres.NewTeamRepository(dbPool)
	deliveryStore := redisrepo.NewDeliveryStore(redisClient)

	// 6. Setup Auth Provider clients
	providerClient := authprovider.NewClient(cfg.AuthAPIURL, cfg.AuthSecretKey, cfg.AuthHTTPTimeout)
	signingKeys := auth.NewKeySet(cfg.AuthJWKSURL, cfg.AuthHTTPTimeout)
	if !signingKeys.Configured() {
		logger.Log.Warn("AUTH_JWKS_URL is empty - RS256 session tokens will be rejected")
	}
	sessionVerifier := auth.NewSessionVerifier(signingKeys, cfg.AuthJWTSecret, cfg.AuthIssuer)

	webhookVerifier, err := svix.NewWebhook(cfg.AuthWebhookSecret)
	if err != nil {
		logger.Log.Error("Invalid webhook signing secret", "error", err)
		os.Exit(1)
	}

	// 7. Setup Email Service
	emailService := email.NewEmailService(cfg)
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - welcome and team emails are disabled")
	}

	// 8. Setup UseCases
	validate := validation.New()
	identityUC := usecase.NewIdentityUsecase(userRepo, providerClient)
	accountUC := usecase.NewAccountUsecase(userRepo, teamRepo, providerClient, emailService, validate, cfg.BaseURL)
	webhookUC := usecase.NewWebhookUsecase(
		accountUC,
		deliveryStore,
		emailService,
		time.Duration(cfg.WebhookDedupeTTLSeconds)*time.Second,
		cfg.BaseURL,
	)

	checks := map[string]usecase.Pinger{"database": dbPool.Ping, "redis": nil}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) }
	}
	healthUC := usecase.NewHealthUsecase(checks)

	// 9. Setup Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(registry)

	// 10. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		IdentityUC:      identityUC,
		AccountUC:       accountUC,
		WebhookUC:       webhookUC,
		HealthUC:        healthUC,
		SessionVerifier: sessionVerifier,
		WebhookVerifier: webhookVerifier,
		Redis:           redisClient,
		Metrics:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Config:          cfg,
	})

	// 11. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
