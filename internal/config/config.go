package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Pipeline constants. These are part of the response contract, not tunables:
// dedup and truncation behavior must stay stable across deployments.
const (
	DefaultFetchTimeout    = 8 * time.Second
	DefaultFetchAttempts   = 2
	DefaultFetchBackoff    = 1 * time.Second
	DefaultMaxItemsPerFeed = 15
	DefaultMaxItems        = 50
	DefaultSummaryMaxLen   = 300
	DefaultDedupPrefixLen  = 50
	DefaultCacheMaxAge     = 5 * time.Minute
	DefaultCacheExpiry     = 10 * time.Minute
)

// Config holds the service configuration resolved from environment variables
// and an optional config file.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`

	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	FetchAttempts   int           `mapstructure:"fetch_attempts"`
	FetchBackoff    time.Duration `mapstructure:"fetch_backoff"`
	MaxItemsPerFeed int           `mapstructure:"max_items_per_feed"`
	MaxItems        int           `mapstructure:"max_items"`

	FeedsFile      string `mapstructure:"feeds_file"`
	PublishersFile string `mapstructure:"publishers_file"`
	StorePath      string `mapstructure:"store_path"`
}

// Load resolves the configuration. Environment variables use the NEWSWIRE_
// prefix (NEWSWIRE_LISTEN_ADDR and so on); path may name an optional YAML
// config file and is ignored when empty.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("fetch_attempts", DefaultFetchAttempts)
	v.SetDefault("fetch_backoff", DefaultFetchBackoff)
	v.SetDefault("max_items_per_feed", DefaultMaxItemsPerFeed)
	v.SetDefault("max_items", DefaultMaxItems)
	v.SetDefault("feeds_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("store_path", "")

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = sanitize(cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// sanitize trims string fields and backfills zero values with defaults.
func sanitize(cfg Config) Config {
	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	cfg.LogLevel = strings.TrimSpace(cfg.LogLevel)
	cfg.FeedsFile = strings.TrimSpace(cfg.FeedsFile)
	cfg.PublishersFile = strings.TrimSpace(cfg.PublishersFile)
	cfg.StorePath = strings.TrimSpace(cfg.StorePath)

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.FetchAttempts <= 0 {
		cfg.FetchAttempts = DefaultFetchAttempts
	}
	if cfg.FetchBackoff <= 0 {
		cfg.FetchBackoff = DefaultFetchBackoff
	}
	if cfg.MaxItemsPerFeed <= 0 {
		cfg.MaxItemsPerFeed = DefaultMaxItemsPerFeed
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	return cfg
}

// validate checks that required fields are present.
func validate(cfg Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	return nil
}
