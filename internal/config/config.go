package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Stripe   StripeConfig
	Billing  BillingConfig
}

type AppConfig struct {
	Name               string
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	WebhookLogFilePath string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

type StripeConfig struct {
	SecretKey       string
	WebhookSecret   string
	PriceBasic      string
	PricePremium    string
	PriceEnterprise string
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

// PriceIDs returns the configured price id per plan tier name. Tiers without
// a configured price are left out.
func (c StripeConfig) PriceIDs() map[string]string {
	ids := make(map[string]string)
	for tier, id := range map[string]string{
		"BASIC":      c.PriceBasic,
		"PREMIUM":    c.PricePremium,
		"ENTERPRISE": c.PriceEnterprise,
	} {
		if strings.TrimSpace(id) != "" {
			ids[tier] = id
		}
	}
	return ids
}

type BillingConfig struct {
	PendingTTL     time.Duration // 0 disables the abandoned checkout reaper
	ReaperInterval time.Duration
	PriceCacheTTL  time.Duration
	DeliveryTTL    time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	clientURL := getEnv("CLIENT_URL", "http://localhost:5173")

	return &Config{
		App: AppConfig{
			Name:               getEnv("APP_NAME", "Billing"),
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          clientURL,
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WebhookLogFilePath: getEnv("WEBHOOK_LOG_FILE_PATH", "logs/webhook.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", clientURL),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Billing"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", "default_secret"),
			TokenTTL:        getEnvAsDuration("JWT_TTL", 24*time.Hour),
			VerificationTTL: getEnvAsDuration("VERIFICATION_TOKEN_TTL", 24*time.Hour),
			ResetTTL:        getEnvAsDuration("RESET_TOKEN_TTL", time.Hour),
		},
		Stripe: StripeConfig{
			SecretKey:       getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceBasic:      getEnv("STRIPE_PRICE_BASIC", ""),
			PricePremium:    getEnv("STRIPE_PRICE_PREMIUM", ""),
			PriceEnterprise: getEnv("STRIPE_PRICE_ENTERPRISE", ""),
			SuccessURL:      getEnv("STRIPE_SUCCESS_URL", clientURL+"/subscription/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:       getEnv("STRIPE_CANCEL_URL", clientURL+"/subscription/cancel"),
			PortalReturnURL: getEnv("STRIPE_PORTAL_RETURN_URL", clientURL+"/account/billing"),
		},
		Billing: BillingConfig{
			PendingTTL:     getEnvAsDuration("BILLING_PENDING_TTL", 0),
			ReaperInterval: getEnvAsDuration("BILLING_REAPER_INTERVAL", 15*time.Minute),
			PriceCacheTTL:  getEnvAsDuration("BILLING_PRICE_CACHE_TTL", time.Minute),
			DeliveryTTL:    getEnvAsDuration("BILLING_DELIVERY_TTL", 72*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("90s", "48h").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
