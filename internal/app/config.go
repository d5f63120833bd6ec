package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STOREFRONT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`

	Redis     RedisConfig
	Kafka     KafkaConfig
	Gateway   GatewayConfig
	WhatsApp  WhatsAppConfig
	Sweep     SweepConfig
	RateLimit RateLimitConfig
	Graceful  GracefulConfig
}

// RedisConfig controls the optional quote cache and checkout rate limiter.
// An empty Addr disables both.
type RedisConfig struct {
	Addr     string        `default:"" usage:"Redis address (empty disables cache and rate limiting)"`
	QuoteTTL time.Duration `default:"30s" usage:"Pricing quote cache TTL" flag:"quote-ttl"`
}

// KafkaConfig controls the optional order event publisher. No brokers
// disables publishing.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka broker addresses (empty disables order events)"`
	Topic   string   `default:"storefront.orders" usage:"Order events topic"`
}

// GatewayConfig controls the payment provider client. An empty BaseURL
// disables gateway sessions; orders are still created with a PENDING payment.
type GatewayConfig struct {
	BaseURL   string        `default:"" usage:"Payment provider base URL" flag:"gateway-url"`
	ServerKey string        `default:"" usage:"Payment provider server key" flag:"gateway-key"`
	Timeout   time.Duration `default:"10s" usage:"Payment provider request timeout" flag:"gateway-timeout"`
}

// WhatsAppConfig holds the shop's WhatsApp contact used in manual orders.
type WhatsAppConfig struct {
	BusinessPhone string `default:"" usage:"Shop WhatsApp number for wa.me order links" flag:"whatsapp-phone"`
}

// SweepConfig controls the deal window sweeper.
type SweepConfig struct {
	Interval time.Duration `default:"1m" usage:"Deal sweep interval" flag:"sweep-interval"`
	Timeout  time.Duration `default:"10s" usage:"Per-sweep timeout" flag:"sweep-timeout"`
}

// RateLimitConfig controls the per-user checkout rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"10" usage:"Max checkout attempts per window"`
	Window time.Duration `default:"1m" usage:"Checkout rate limit window"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set STOREFRONT_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// onto the prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
