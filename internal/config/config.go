package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Session  SessionConfig  `mapstructure:"session"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig holds catalog API and checkout configuration
type CatalogConfig struct {
	APIURL         string   `mapstructure:"api_url"`
	CheckoutURL    string   `mapstructure:"checkout_url"` // "{pid}" is replaced with the product id
	HomeURL        string   `mapstructure:"home_url"`
	LogoURL        string   `mapstructure:"logo_url"`
	Timeout        int      `mapstructure:"timeout"`
	MaxRetries     int      `mapstructure:"max_retries"`
	Proxies        []string `mapstructure:"proxies"`
	ProxyCheckURL  string   `mapstructure:"proxy_check_url"`  // fetched through each proxy at startup, never the catalog API
	ProxyCheckRate int      `mapstructure:"proxy_check_rate"` // checks started per second
}

// SessionConfig holds browser session cookie configuration
type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	SigningKey string `mapstructure:"signing_key"`
	Secure     bool   `mapstructure:"secure"`
	TTL        int    `mapstructure:"ttl"` // hours
}

// DatabaseConfig holds database configuration. An empty host disables persistence.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// RedisConfig holds Redis connection details. An empty host keeps selections in memory.
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
	MaxWorkers    int    `mapstructure:"max_workers"`
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Load loads configuration from an optional YAML file with environment
// variable overrides. A .env file, when present, is loaded into the
// environment first.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with an explicit directory for config.yaml and .env.
func LoadFrom(dir string) (*Config, error) {
	if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.Catalog.APIURL == "" {
		return nil, fmt.Errorf("catalog.api_url must be set")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("catalog.api_url", "https://app1.xuanyiy.cn/v1/products")
	v.SetDefault("catalog.checkout_url", "https://app1.xuanyiy.cn/cart?action=configureproduct&pid={pid}")
	v.SetDefault("catalog.home_url", "https://app1.xuanyiy.cn")
	v.SetDefault("catalog.logo_url", "https://app1.xuanyiy.cn/upload/logo-colours.png")
	v.SetDefault("catalog.timeout", 30)
	v.SetDefault("catalog.max_retries", 0)
	v.SetDefault("catalog.proxies", []string{})
	v.SetDefault("catalog.proxy_check_url", "https://app1.xuanyiy.cn")
	v.SetDefault("catalog.proxy_check_rate", 5)

	v.SetDefault("session.cookie_name", "CATALOG_SESSION")
	v.SetDefault("session.signing_key", "")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.ttl", 24*30)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.user", "storefront_user")
	v.SetDefault("database.password", "storefront_pass")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "storefront_consumer")
	v.SetDefault("redis.min_idle_time", 120)
	v.SetDefault("redis.max_workers", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// ConfigureLogger applies the log section to the package-level logrus logger.
func ConfigureLogger(cfg LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}
