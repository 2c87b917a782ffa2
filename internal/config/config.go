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
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	JWTSecret      string
	AllowedOrigins []string

	// Hosted payment provider
	PaymentBaseURL   string
	PaymentSecretKey string
	WebhookSecret    string
	SuccessURL       string
	FailureURL       string
	CancelURL        string

	// Commerce defaults
	Currency           string
	DefaultCountry     string
	DefaultShipMethod  string
	CheckoutSessionTTL time.Duration
	TaxBasisPoints     int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		JWTSecret:      os.Getenv("SECRET_KEY"),
		AllowedOrigins: splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),

		PaymentBaseURL:   os.Getenv("PAYMENT_BASE_URL"),
		PaymentSecretKey: os.Getenv("PAYMENT_SECRET_KEY"),
		WebhookSecret:    os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		SuccessURL:       os.Getenv("SUCCESS_URL"),
		FailureURL:       os.Getenv("FAILURE_URL"),
		CancelURL:        os.Getenv("CANCEL_RETURN_URL"),

		Currency:           envOr("CURRENCY", "USD"),
		DefaultCountry:     envOr("DEFAULT_COUNTRY", "US"),
		DefaultShipMethod:  envOr("DEFAULT_SHIPPING_METHOD", "standard"),
		CheckoutSessionTTL: envDurationOr("CHECKOUT_SESSION_TTL_MINUTES", 30) * time.Minute,
		TaxBasisPoints:     envIntOr("TAX_BASIS_POINTS", 0),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(fallback)
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
