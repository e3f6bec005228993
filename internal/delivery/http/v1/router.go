package v1

import (
	"net/http"
	"time"

	"expert-backend/config"
	"expert-backend/internal/delivery/http/middleware"
	"expert-backend/internal/domain"
	"expert-backend/internal/usecase"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	IdentityUC      domain.IdentityUsecase
	AccountUC       domain.AccountUsecase
	WebhookUC       domain.WebhookUsecase
	HealthUC        usecase.HealthUsecase
	SessionVerifier middleware.TokenVerifier
	WebhookVerifier WebhookVerifier
	Redis           *goredis.Client // nil selects in-process rate limiting
	Metrics         http.Handler
	Config          *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	cfg := deps.Config
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.IsProduction())) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler())

	NewHealthHandler(r, deps.HealthUC)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	internal := r.Group("/internal")
	internal.Use(middleware.RateLimitMiddleware(deps.Redis, middleware.InternalRateLimitConfig(cfg.RateLimitInternalLimit, window)))
	internal.Use(middleware.CSRFMiddleware(cfg.AllowedOrigins))
	internal.Use(middleware.SessionMiddleware(deps.SessionVerifier))
	NewInternalHandler(internal, deps.IdentityUC, deps.AccountUC)

	webhooks := r.Group("/api/webhooks")
	webhooks.Use(middleware.RateLimitMiddleware(deps.Redis, middleware.WebhookRateLimitConfig(cfg.RateLimitWebhookLimit, window)))
	NewWebhookHandler(webhooks, deps.WebhookVerifier, deps.WebhookUC)

	return r
}
