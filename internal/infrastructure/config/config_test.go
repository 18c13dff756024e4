package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"oraclewatch/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[assets]
list = ["btc", " eth ", "BTC", ""]

[oracles.pyth]
enabled = true

[oracles.CoinGecko]
enabled = true
base_url = "http://localhost:9000/api/v3/"

[oracles.redstone]
enabled = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Assets.List; len(got) != 2 || got[0] != "BTC" || got[1] != "ETH" {
		t.Errorf("expected [BTC ETH], got %v", got)
	}
	if cfg.PollInterval() != time.Minute {
		t.Errorf("expected 1m poll interval, got %v", cfg.PollInterval())
	}
	if cfg.FetchTimeout() != 15*time.Second {
		t.Errorf("expected 15s fetch timeout, got %v", cfg.FetchTimeout())
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("expected info log level, got %q", cfg.App.LogLevel)
	}
	if got := cfg.Oracle(domain.OraclePyth).BaseURL; got != "https://hermes.pyth.network" {
		t.Errorf("unexpected pyth base url %q", got)
	}
	if got := cfg.Oracle(domain.OracleCoinGecko).BaseURL; got != "http://localhost:9000/api/v3" {
		t.Errorf("unexpected coingecko base url %q", got)
	}
	if cfg.History.MaxPoints != 720 || cfg.History.Schedule != "@hourly" {
		t.Errorf("unexpected history defaults: %+v", cfg.History)
	}

	enabled := cfg.EnabledOracles()
	if len(enabled) != 2 || enabled[0] != domain.OracleCoinGecko || enabled[1] != domain.OraclePyth {
		t.Errorf("expected [CoinGecko Pyth], got %v", enabled)
	}
}

func TestLoadDefaultsToKnownAssets(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[oracles.redstone]
enabled = true
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := domain.KnownSymbols()
	if len(cfg.Assets.List) != len(want) {
		t.Fatalf("expected %d default assets, got %d", len(want), len(cfg.Assets.List))
	}
	for i := range want {
		if cfg.Assets.List[i] != want[i] {
			t.Errorf("asset %d: expected %s, got %s", i, want[i], cfg.Assets.List[i])
		}
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"blank assets", `[assets]
list = [" ", ""]`},
		{"bad log level", `[app]
log_level = "loud"
[assets]
list = ["BTC"]`},
		{"unknown oracle", `[assets]
list = ["BTC"]
[oracles.chainlink]
enabled = true
base_url = "http://x"`},
		{"postgres without dsn", `[assets]
list = ["BTC"]
[storage.postgres]
enabled = true`},
		{"bad schedule", `[assets]
list = ["BTC"]
[history]
enabled = true
schedule = "every so often"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
