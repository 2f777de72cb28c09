// Package config loads service settings from the environment through viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings of the products service.
type Config struct {
	AppPort     string
	DBDriver    string
	DatabaseDSN string

	RabbitMQURL   string // empty runs without a broker
	RabbitMQQueue string
	RabbitMQRetry time.Duration // delay before a failed event is requeued

	// Writes are rejected unless both JWTSecret and AdminPasswordHash are set.
	JWTSecret         string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPasswordHash string // bcrypt hash

	EventRateLimit float64 // update events per second per client
	EventRateBurst int
	ProxyHeader    string // client IP header set by a trusted proxy, e.g. X-Forwarded-For
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "products.db")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "product_updates")
	v.SetDefault("RABBITMQ_RETRY_DELAY", "2s")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("EVENT_RATE_LIMIT", 10)
	v.SetDefault("EVENT_RATE_BURST", 20)
	v.SetDefault("PROXY_HEADER", "")
}

// Load reads the configuration from v, falling back to environment variables and defaults.
func Load(v *viper.Viper) Config {
	SetDefaults(v)
	v.AutomaticEnv()

	return Config{
		AppPort:           v.GetString("APP_PORT"),
		DBDriver:          v.GetString("DB_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:     v.GetString("RABBITMQ_QUEUE"),
		RabbitMQRetry:     v.GetDuration("RABBITMQ_RETRY_DELAY"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		AdminUsername:     v.GetString("ADMIN_USERNAME"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		EventRateLimit:    v.GetFloat64("EVENT_RATE_LIMIT"),
		EventRateBurst:    v.GetInt("EVENT_RATE_BURST"),
		ProxyHeader:       v.GetString("PROXY_HEADER"),
	}
}
