package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName            string        `mapstructure:"app_name"`
	Env                string        `mapstructure:"app_env"`
	LogLevel           string        `mapstructure:"log_level"`
	APIBase            string        `mapstructure:"api_base"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	SearchesFile     string  `mapstructure:"searches_file"`
	PublishersFile   string  `mapstructure:"publishers_file"`
	HarvestSchedule  string  `mapstructure:"harvest_schedule"`
	HarvestRateLimit float64 `mapstructure:"harvest_requests_per_second"`
	HarvestBurst     int     `mapstructure:"harvest_burst"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	RedisAddr              string        `mapstructure:"redis_addr"`
	RedisPassword          string        `mapstructure:"redis_password" json:"-"`
	RedisDB                int           `mapstructure:"redis_db"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from configs/.env and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "catalog-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("api_base", "http://localhost:5000")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("searches_file", "./configs/searches.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("harvest_schedule", "@every 15m")
	v.SetDefault("harvest_requests_per_second", 2.0)
	v.SetDefault("harvest_burst", 1)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/catalog.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates raw values and derives durations.
func (c *Config) finalize() error {
	c.APIBase = strings.TrimSpace(c.APIBase)
	if c.APIBase == "" {
		return fmt.Errorf("api_base is required")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	c.HTTPTimeout = time.Duration(c.HTTPTimeoutSeconds) * time.Second

	if strings.TrimSpace(c.HarvestSchedule) == "" {
		return fmt.Errorf("harvest_schedule is required")
	}
	if c.HarvestRateLimit <= 0 {
		return fmt.Errorf("invalid harvest_requests_per_second (must be positive)")
	}
	if c.HarvestBurst <= 0 {
		c.HarvestBurst = 1
	}

	if c.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if c.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	c.StorageTTL = time.Duration(c.StorageTTLSeconds) * time.Second
	c.StorageCleanupInterval = time.Duration(c.StorageCleanupSeconds) * time.Second

	return nil
}
