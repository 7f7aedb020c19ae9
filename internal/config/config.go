package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	AppPort     string `env:"APP_PORT" envDefault:"8080"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"pcshop-api"`

	DBHost     string `env:"DB_HOST,required,notEmpty"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"pcshop.events"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@pcshop.local"`

	ImgBBAPIKey string `env:"IMGBB_API_KEY"`

	QRBankID      string `env:"QR_BANK_ID" envDefault:"vcb"`
	QRAccountNo   string `env:"QR_ACCOUNT_NO"`
	QRAccountName string `env:"QR_ACCOUNT_NAME"`

	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`
	OTelEnabled bool   `env:"OTEL_ENABLED" envDefault:"false"`

	WebPort    string `env:"WEB_PORT" envDefault:"3000"`
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadWebConfig reads only the keys the storefront binary needs, so it does
// not require database or JWT settings.
func LoadWebConfig() (*WebConfig, error) {
	_ = godotenv.Load()

	cfg := &WebConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

type WebConfig struct {
	AppEnv       string        `env:"APP_ENV" envDefault:"development"`
	WebPort      string        `env:"WEB_PORT" envDefault:"3000"`
	ServiceName  string        `env:"WEB_SERVICE_NAME" envDefault:"pcshop-web"`
	APIBaseURL   string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	APITimeout   time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
	OTelEnabled  bool          `env:"OTEL_ENABLED" envDefault:"false"`
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
