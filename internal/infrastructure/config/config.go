package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"oraclewatch/internal/domain"
)

type Config struct {
	App struct {
		PollIntervalSec int    `toml:"poll_interval_sec"`
		FetchTimeoutSec int    `toml:"fetch_timeout_sec"`
		ResyncEverySec  int    `toml:"resync_every_sec"`
		LogLevel        string `toml:"log_level"`
		Color           *bool  `toml:"color"`
	} `toml:"app"`

	Assets struct {
		List []string `toml:"list"`
	} `toml:"assets"`

	// key: coingecko / redstone / pyth
	Oracles map[string]OracleConfig `toml:"oracles"`

	Storage struct {
		SQLite   SQLiteConfig   `toml:"sqlite"`
		Postgres PostgresConfig `toml:"postgres"`
		Redis    RedisConfig    `toml:"redis"`
	} `toml:"storage"`

	History struct {
		Enabled   bool   `toml:"enabled"`
		Schedule  string `toml:"schedule"`
		MaxPoints int    `toml:"max_points"`
	} `toml:"history"`

	HTTP struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"http"`
}

type OracleConfig struct {
	Enabled    bool    `toml:"enabled"`
	BaseURL    string  `toml:"base_url"`
	RatePerSec float64 `toml:"rate_per_sec"`
}

type SQLiteConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type PostgresConfig struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn"`
}

type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	Prefix     string `toml:"prefix"`
	TTLSeconds int    `toml:"ttl_seconds"`
	Stream     string `toml:"stream"`
	Channel    string `toml:"channel"`
}

var defaultBaseURLs = map[string]string{
	"coingecko": "https://api.coingecko.com/api/v3",
	"redstone":  "https://api.redstone.finance",
	"pyth":      "https://hermes.pyth.network",
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.PollIntervalSec <= 0 {
		cfg.App.PollIntervalSec = 60
	}
	if cfg.App.FetchTimeoutSec <= 0 {
		cfg.App.FetchTimeoutSec = 15
	}
	if cfg.App.ResyncEverySec <= 0 {
		cfg.App.ResyncEverySec = 300
	}
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if len(cfg.Assets.List) == 0 {
		cfg.Assets.List = domain.KnownSymbols()
	}
	if cfg.App.Color == nil {
		on := true
		cfg.App.Color = &on
	}

	if cfg.Oracles == nil {
		cfg.Oracles = make(map[string]OracleConfig)
	}
	normalized := make(map[string]OracleConfig, len(cfg.Oracles))
	for name, oc := range cfg.Oracles {
		key := strings.ToLower(strings.TrimSpace(name))
		if strings.TrimSpace(oc.BaseURL) == "" {
			oc.BaseURL = defaultBaseURLs[key]
		}
		oc.BaseURL = strings.TrimRight(oc.BaseURL, "/")
		if oc.RatePerSec <= 0 {
			oc.RatePerSec = 1
		}
		normalized[key] = oc
	}
	cfg.Oracles = normalized

	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/oraclewatch.db"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "oraclewatch"
	}

	if cfg.History.Schedule == "" {
		cfg.History.Schedule = "@hourly"
	}
	if cfg.History.MaxPoints <= 0 {
		cfg.History.MaxPoints = 720
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
}

func validate(cfg *Config) error {
	cfg.Assets.List = normalizeSymbols(cfg.Assets.List)
	if len(cfg.Assets.List) == 0 {
		return errors.New("assets.list is empty")
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.App.LogLevel)); err != nil {
		return fmt.Errorf("app.log_level: %w", err)
	}

	for name, oc := range cfg.Oracles {
		if _, ok := domain.ParseOracle(name); !ok {
			return fmt.Errorf("oracles.%s: unknown oracle", name)
		}
		if oc.Enabled && oc.BaseURL == "" {
			return fmt.Errorf("oracles.%s.base_url empty but enabled", name)
		}
	}

	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}

	if cfg.History.Enabled {
		if _, err := cron.ParseStandard(cfg.History.Schedule); err != nil {
			return fmt.Errorf("history.schedule: %w", err)
		}
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// EnabledOracles 按固定顺序返回已启用的价格源
func (c *Config) EnabledOracles() []domain.Oracle {
	var out []domain.Oracle
	for _, o := range domain.AllOracles {
		if oc, ok := c.Oracles[o.Key()]; ok && oc.Enabled {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) Oracle(o domain.Oracle) OracleConfig {
	return c.Oracles[o.Key()]
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.App.PollIntervalSec) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.App.FetchTimeoutSec) * time.Second
}

func (c *Config) ResyncInterval() time.Duration {
	return time.Duration(c.App.ResyncEverySec) * time.Second
}
