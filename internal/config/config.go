// Package config defines the top-level configuration for the market daemon
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETD_* environment variables.
type Config struct {
	Owner    string         `toml:"owner"`
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Market   MarketConfig   `toml:"market"`
	Pricing  PricingConfig  `toml:"pricing"`
	Maker    MakerConfig    `toml:"maker"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKeyHash is a bcrypt hash of the operator API key. When set, admin
	// endpoints require a matching bearer token.
	APIKeyHash string `toml:"api_key_hash"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "postgres" or "memory".
	Backend string `toml:"backend"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled, odds caching, locking, and event fan-out run in process.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls snapshotting of finalized markets to object storage.
type ArchiveConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval duration `toml:"interval"`
	Prefix   string   `toml:"prefix"`
}

// MarketConfig holds market lifecycle parameters.
type MarketConfig struct {
	DisputeWindow  duration `toml:"dispute_window"`
	MinDisputeBond float64  `toml:"min_dispute_bond"`
	LockTTL        duration `toml:"lock_ttl"`
	OddsTTL        duration `toml:"odds_ttl"`
}

// PricingConfig holds scoring-rule pricing parameters.
type PricingConfig struct {
	MinLiquidity   float64 `toml:"min_liquidity"`
	LiquidityRatio float64 `toml:"liquidity_ratio"`
	MinSpread      float64 `toml:"min_spread"`
	MaxSpread      float64 `toml:"max_spread"`
	MinPrice       float64 `toml:"min_price"`
	MaxPrice       float64 `toml:"max_price"`
}

// MakerConfig holds automated market maker parameters.
type MakerConfig struct {
	ImpactThreshold float64 `toml:"impact_threshold"`
	UpperPriceBound float64 `toml:"upper_price_bound"`
	LowerPriceBound float64 `toml:"lower_price_bound"`
	InjectionRatio  float64 `toml:"injection_ratio"`
	MaxInjection    float64 `toml:"max_injection"`
	StakeFloorRatio float64 `toml:"stake_floor_ratio"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "24h", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "24h" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Owner: "owner",
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "marketd",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "marketd-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:  false,
			Interval: duration{1 * time.Hour},
			Prefix:   "markets",
		},
		Market: MarketConfig{
			DisputeWindow:  duration{24 * time.Hour},
			MinDisputeBond: 0.1,
			LockTTL:        duration{10 * time.Second},
			OddsTTL:        duration{30 * time.Second},
		},
		Pricing: PricingConfig{
			MinLiquidity:   10,
			LiquidityRatio: 0.1,
			MinSpread:      0.01,
			MaxSpread:      0.10,
			MinPrice:       0.01,
			MaxPrice:       0.99,
		},
		Maker: MakerConfig{
			ImpactThreshold: 0.05,
			UpperPriceBound: 0.85,
			LowerPriceBound: 0.15,
			InjectionRatio:  0.3,
			MaxInjection:    5.0,
			StakeFloorRatio: 0.05,
		},
		LogLevel: "info",
	}
}

// validBackends enumerates the accepted values for StorageConfig.Backend.
var validBackends = map[string]bool{
	"postgres": true,
	"memory":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Owner) == "" {
		errs = append(errs, "owner must not be empty")
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, fmt.Sprintf("storage: unknown backend %q (valid: postgres, memory)", c.Storage.Backend))
	}

	if strings.EqualFold(c.Storage.Backend, "postgres") {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archiving is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archiving is enabled")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be > 0")
		}
	}

	if c.Market.DisputeWindow.Duration <= 0 {
		errs = append(errs, "market: dispute_window must be > 0")
	}
	if c.Market.MinDisputeBond <= 0 {
		errs = append(errs, "market: min_dispute_bond must be > 0")
	}
	if c.Market.LockTTL.Duration <= 0 {
		errs = append(errs, "market: lock_ttl must be > 0")
	}

	if c.Pricing.MinLiquidity <= 0 {
		errs = append(errs, "pricing: min_liquidity must be > 0")
	}
	if c.Pricing.LiquidityRatio <= 0 {
		errs = append(errs, "pricing: liquidity_ratio must be > 0")
	}
	if c.Pricing.MinSpread <= 0 || c.Pricing.MaxSpread < c.Pricing.MinSpread {
		errs = append(errs, "pricing: spread bounds must satisfy 0 < min_spread <= max_spread")
	}
	if c.Pricing.MinPrice <= 0 || c.Pricing.MaxPrice <= c.Pricing.MinPrice || c.Pricing.MaxPrice >= 1 {
		errs = append(errs, "pricing: price bounds must satisfy 0 < min_price < max_price < 1")
	}

	if c.Maker.InjectionRatio <= 0 || c.Maker.InjectionRatio >= 1 {
		errs = append(errs, "maker: injection_ratio must be in (0, 1)")
	}
	if c.Maker.MaxInjection <= 0 {
		errs = append(errs, "maker: max_injection must be > 0")
	}
	if c.Maker.UpperPriceBound <= c.Maker.LowerPriceBound {
		errs = append(errs, "maker: upper_price_bound must exceed lower_price_bound")
	}
	if c.Maker.StakeFloorRatio < 0 || c.Maker.StakeFloorRatio >= 0.5 {
		errs = append(errs, "maker: stake_floor_ratio must be in [0, 0.5)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
