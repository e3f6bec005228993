package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	AppEnv  string `validate:"oneof=development staging production"`
	DBUrl   string `validate:"required"`
	BaseURL string
	// Auth provider (session tokens, backend API, webhooks)
	AuthAPIURL        string `validate:"required,url"`
	AuthSecretKey     string `validate:"required"`
	AuthWebhookSecret string `validate:"required"`
	AuthJWKSURL       string `validate:"omitempty,url"`
	AuthJWTSecret     string
	AuthIssuer        string
	AuthHTTPTimeout   time.Duration
	AllowedOrigins    []string
	// SMTP Configuration
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string `validate:"omitempty,email"`
	// Redis Configuration
	RedisURL      string
	RedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds  int `validate:"gte=1"`
	RateLimitInternalLimit  int `validate:"gte=1"`
	RateLimitWebhookLimit   int `validate:"gte=1"`
	WebhookDedupeTTLSeconds int `validate:"gte=60"`
	SkipValidation          bool
}

func LoadConfig() (*Config, error) {
	// Load .env file (only present locally)
	_ = godotenv.Load()

	authAPIURL := strings.TrimRight(getEnv("AUTH_API_URL", "https://api.clerk.com"), "/")

	cfg := &Config{
		Port:              getEnv("PORT", "8000"),
		AppEnv:            getEnv("APP_ENV", "production"),
		DBUrl:             getEnv("DATABASE_URL", getEnv("PRISMA_URL", "")),
		BaseURL:           strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),
		AuthAPIURL:        authAPIURL,
		AuthSecretKey:     getEnv("AUTH_SECRET_KEY", getEnv("CLERK_SECRET_KEY", "")),
		AuthWebhookSecret: getEnv("AUTH_WEBHOOK_SECRET", getEnv("CLERK_WEBHOOK_SECRET", "")),
		AuthJWKSURL:       getEnv("AUTH_JWKS_URL", authAPIURL+"/v1/jwks"),
		AuthJWTSecret:     getEnv("AUTH_JWT_SECRET", ""),
		AuthIssuer:        getEnv("AUTH_ISSUER", ""),
		AuthHTTPTimeout:   time.Duration(getEnvInt("AUTH_HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		// SMTP Configuration
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", "noreply@expert-hub.local"),
		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:  getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitInternalLimit:  getEnvInt("RATE_LIMIT_INTERNAL_LIMIT", 120),
		RateLimitWebhookLimit:   getEnvInt("RATE_LIMIT_WEBHOOK_LIMIT", 300),
		WebhookDedupeTTLSeconds: getEnvInt("WEBHOOK_DEDUPE_TTL_SECONDS", 24*60*60),
		SkipValidation:          getEnvBool("SKIP_ENV_VALIDATION", false) || getEnvBool("CI", false),
	}

	if !cfg.SkipValidation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Rate limiting is in-process and webhook deliveries are not deduplicated.")
	}

	return cfg, nil
}

// Validate checks required keys and enum values. It reports every failing
// field at once so a misconfigured deployment fails with a single message.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		problems = append(problems, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid environment configuration: %s", strings.Join(problems, ", "))
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}
