package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`

	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`
	AdminEmails string        `mapstructure:"ADMIN_EMAILS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`

	WhatsAppAPIURL   string        `mapstructure:"WHATSAPP_API_URL"`
	WhatsAppToken    string        `mapstructure:"WHATSAPP_TOKEN"`
	WhatsAppFrom     string        `mapstructure:"WHATSAPP_FROM"`
	NotifyTimeout    time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	NotifyMaxRetries int           `mapstructure:"NOTIFY_MAX_RETRIES"`

	StrictPricing         bool   `mapstructure:"STRICT_PRICING"`
	CartRemovalPricing    string `mapstructure:"CART_REMOVAL_PRICING"`
	ClearCartOnOrder      bool   `mapstructure:"CLEAR_CART_ON_ORDER"`
	EmptyOrdersAsNotFound bool   `mapstructure:"EMPTY_ORDERS_AS_NOT_FOUND"`

	UploadsDir  string `mapstructure:"UPLOADS_DIR"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"APP_ENV":                   "production",
	"PORT":                      "8080",
	"LOG_LEVEL":                 "info",
	"DATABASE_URL":              "",
	"DB_HOST":                   "localhost",
	"DB_PORT":                   "5432",
	"DB_USER":                   "postgres",
	"DB_PASSWORD":               "",
	"DB_NAME":                   "storefront",
	"JWT_SECRET":                "",
	"TOKEN_TTL":                 "24h",
	"ADMIN_EMAILS":              "",
	"REDIS_ADDR":                "",
	"REDIS_PASSWORD":            "",
	"REDIS_DB":                  0,
	"KAFKA_BROKERS":             "",
	"KAFKA_ORDER_TOPIC":         "orders",
	"WHATSAPP_API_URL":          "",
	"WHATSAPP_TOKEN":            "",
	"WHATSAPP_FROM":             "",
	"NOTIFY_TIMEOUT":            "5s",
	"NOTIFY_MAX_RETRIES":        2,
	"STRICT_PRICING":            true,
	// captured keeps cart totals equal to the sum of their lines; "current" reprices removals from the catalog
	"CART_REMOVAL_PRICING":      "captured",
	"CLEAR_CART_ON_ORDER":       false,
	"EMPTY_ORDERS_AS_NOT_FOUND": false,
	"UPLOADS_DIR":               "./uploads",
	"CORS_ORIGINS":              "*",
}

// Load reads a local .env (if any) and then the process environment.
// Environment variables win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.CartRemovalPricing {
	case "captured", "current":
	default:
		return errors.New("CART_REMOVAL_PRICING must be \"captured\" or \"current\"")
	}
	if c.NotifyTimeout <= 0 {
		return errors.New("NOTIFY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) Admins() []string {
	return splitList(c.AdminEmails)
}

func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
