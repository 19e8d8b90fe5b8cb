// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Payment     PaymentConfig
	Email       EmailConfig
	Rental      RentalConfig
	Scheduler   SchedulerConfig
	CORS        CORSConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
	Seed        SeedConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	RateLimitRPS float64
	RateBurst    int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// JWTConfig holds the shared secret used to validate tokens minted by the identity provider.
type JWTConfig struct {
	SecretKey string
	Issuer    string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type PaymentConfig struct {
	Currency             string
	StripeSecretKey      string
	StripePublishableKey string
	ChapaSecretKey       string
	ChapaBaseURL         string
	TelebirrAppID        string
	TelebirrAppKey       string
	TelebirrBaseURL      string
	CallbackBaseURL      string
	ReturnURL            string
}

type EmailConfig struct {
	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	FromEmail      string
	FromName       string
}

type RentalConfig struct {
	StrictTransitions bool
	EnforceCapacity   bool
	PendingTTLHours   int
	StoreTimeout      time.Duration
}

type SchedulerConfig struct {
	Enabled           bool
	ExpirePendingSpec string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type I18nConfig struct {
	DefaultLocale string
}

type SeedConfig struct {
	AdminEmail string
	AdminName  string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimitRPS: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			RateBurst:    getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "ledrent"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Issuer:    getEnv("JWT_ISSUER", ""),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "ledrent-assets"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Payment: PaymentConfig{
			Currency:             getEnv("PAYMENT_CURRENCY", "ETB"),
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			ChapaSecretKey:       getEnv("CHAPA_SECRET_KEY", ""),
			ChapaBaseURL:         getEnv("CHAPA_BASE_URL", "https://api.chapa.co/v1"),
			TelebirrAppID:        getEnv("TELEBIRR_APP_ID", ""),
			TelebirrAppKey:       getEnv("TELEBIRR_APP_KEY", ""),
			TelebirrBaseURL:      getEnv("TELEBIRR_BASE_URL", "https://app.ethiotelecom.et/service-openup"),
			CallbackBaseURL:      getEnv("PAYMENT_CALLBACK_BASE_URL", "http://localhost:8080/v1/webhooks"),
			ReturnURL:            getEnv("PAYMENT_RETURN_URL", "http://localhost:3000/payments/complete"),
		},
		Email: EmailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			SMTPHost:       getEnv("SMTP_HOST", ""),
			SMTPPort:       getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:   getEnv("SMTP_USERNAME", ""),
			SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
			FromEmail:      getEnv("FROM_EMAIL", "noreply@ledrent.example"),
			FromName:       getEnv("FROM_NAME", "LED Rent"),
		},
		Rental: RentalConfig{
			StrictTransitions: getEnvAsBool("RENTAL_STRICT_TRANSITIONS", false),
			EnforceCapacity:   getEnvAsBool("RENTAL_ENFORCE_CAPACITY", false),
			PendingTTLHours:   getEnvAsInt("RENTAL_PENDING_TTL_HOURS", 48),
			StoreTimeout:      time.Duration(getEnvAsInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:           getEnvAsBool("SCHEDULER_ENABLED", true),
			ExpirePendingSpec: getEnv("SCHEDULER_EXPIRE_PENDING_SPEC", "@every 15m"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
		Seed: SeedConfig{
			AdminEmail: getEnv("SEED_ADMIN_EMAIL", "admin@ledrent.example"),
			AdminName:  getEnv("SEED_ADMIN_NAME", "Administrator"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Rental.StoreTimeout <= 0 {
		return fmt.Errorf("store timeout must be positive")
	}

	if c.Rental.PendingTTLHours < 1 {
		return fmt.Errorf("pending rental TTL must be at least one hour")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
