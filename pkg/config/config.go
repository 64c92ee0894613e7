package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "SHIPFEED"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	Shopify ShopifyConfig
	Feed    FeedConfig
	Admin   AdminConfig
	Store   StoreConfig
	Redis   RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate catches values envconfig cannot: a set-but-empty variable
// satisfies required:"true", and empty feed credentials would silently
// produce a feed that rejects every request.
func (c *Config) validate() error {
	if strings.TrimSpace(c.Feed.Username) == "" {
		return fmt.Errorf("SHIPFEED_FEED_USERNAME must be non-empty")
	}
	if strings.TrimSpace(c.Feed.Password) == "" {
		return fmt.Errorf("SHIPFEED_FEED_PASSWORD must be non-empty")
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"SHIPFEED_APP_ENV" default:"dev"`
	Port         string `envconfig:"SHIPFEED_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHIPFEED_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHIPFEED_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ShopifyConfig covers both the inbound webhook gate and the outbound Admin API.
type ShopifyConfig struct {
	Shop          string        `envconfig:"SHIPFEED_SHOPIFY_SHOP"`
	AdminToken    string        `envconfig:"SHIPFEED_SHOPIFY_ADMIN_ACCESS_TOKEN"`
	WebhookSecret string        `envconfig:"SHIPFEED_SHOPIFY_SHARED_SECRET"`
	APIVersion    string        `envconfig:"SHIPFEED_SHOPIFY_API_VERSION" default:"2025-01"`
	Timeout       time.Duration `envconfig:"SHIPFEED_SHOPIFY_TIMEOUT" default:"10s"`
	RetryAttempts uint64        `envconfig:"SHIPFEED_SHOPIFY_RETRY_ATTEMPTS" default:"3"`
}

// CatalogEnabled reports whether the Admin API client can be constructed.
func (s ShopifyConfig) CatalogEnabled() bool {
	return s.Shop != "" && s.AdminToken != ""
}

// FeedConfig guards and shapes the ShipStation custom-store endpoint.
type FeedConfig struct {
	Username    string `envconfig:"SHIPFEED_FEED_USERNAME" required:"true"`
	Password    string `envconfig:"SHIPFEED_FEED_PASSWORD" required:"true"`
	SKUPrefix   string `envconfig:"SHIPFEED_FEED_SKU_PREFIX" default:"SF"`
	StrictDates bool   `envconfig:"SHIPFEED_FEED_STRICT_DATES" default:"false"`
	PageSize    int    `envconfig:"SHIPFEED_FEED_PAGE_SIZE" default:"100"`
}

type AdminConfig struct {
	Token string `envconfig:"SHIPFEED_ADMIN_TOKEN"`
}

type StoreConfig struct {
	HistoryCapacity int `envconfig:"SHIPFEED_STORE_HISTORY_CAPACITY" default:"300"`
}

// RedisConfig is optional; without a URL the service skips webhook dedupe.
type RedisConfig struct {
	URL          string        `envconfig:"SHIPFEED_REDIS_URL"`
	DialTimeout  time.Duration `envconfig:"SHIPFEED_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHIPFEED_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHIPFEED_REDIS_WRITE_TIMEOUT" default:"5s"`
	DedupeTTL    time.Duration `envconfig:"SHIPFEED_REDIS_DEDUPE_TTL" default:"24h"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}
