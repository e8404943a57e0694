package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"echoshop-api"`
	ServerPort  int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret    string        `env:"JWT_SECRET"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"720h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
	ClientURL    string        `env:"CLIENT_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	Elastic Elastic `envPrefix:"ES_"`

	RedisURL string        `env:"REDIS_URL"`
	CartTTL  time.Duration `env:"CART_TTL" envDefault:"720h"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`

	PayPalClientID string `env:"PAYPAL_CLIENT_ID" envDefault:"sb"`

	Pricing Pricing
}

type Elastic struct {
	URL      string `env:"URL"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Index    string `env:"INDEX" envDefault:"products"`
}

type Pricing struct {
	File                  string          `env:"PRICING_FILE"`
	TaxRate               decimal.Decimal `env:"TAX_RATE" envDefault:"0.15"`
	ShippingFee           decimal.Decimal `env:"SHIPPING_FEE" envDefault:"10"`
	FreeShippingThreshold decimal.Decimal `env:"FREE_SHIPPING_THRESHOLD" envDefault:"100"`
	PaymentMethods        []string        `env:"ENABLED_PAYMENT_METHODS" envSeparator:"," envDefault:"PayPal"`
}

// Client configures the terminal shop client.
type Client struct {
	APIURL      string        `env:"SHOP_API_URL" envDefault:"http://localhost:8080"`
	StateFile   string        `env:"SHOP_STATE_FILE" envDefault:"~/.echoshop/state.json"`
	HTTPTimeout time.Duration `env:"SHOP_HTTP_TIMEOUT" envDefault:"15s"`
	LogLevel    string        `env:"SHOP_LOG_LEVEL" envDefault:"warn"`

	Pricing Pricing
}

func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses cfg from environ instead of the process environment when
// environ is non-nil.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.KafkaBrokers = CSV(strings.Join(cfg.KafkaBrokers, ","))
	cfg.Pricing.PaymentMethods = CSV(strings.Join(cfg.Pricing.PaymentMethods, ","))
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	return cfg, nil
}

func LoadClient(environ map[string]string) (Client, error) {
	var cfg Client
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Client{}, fmt.Errorf("parse client config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.Pricing.PaymentMethods = CSV(strings.Join(cfg.Pricing.PaymentMethods, ","))
	return cfg, nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
