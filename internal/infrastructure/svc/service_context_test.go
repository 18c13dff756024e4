package svc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraclewatch/internal/application/service"
	"oraclewatch/internal/domain"
	"oraclewatch/internal/infrastructure/config"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestNewWithoutSources(t *testing.T) {
	cfg := loadConfig(t, `
[assets]
list = ["BTC"]
[oracles.pyth]
enabled = false
`)
	_, err := New(context.Background(), cfg)
	assert.True(t, errors.Is(err, ErrNoSourcesEnabled))
}

func TestServiceContextRun(t *testing.T) {
	cg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":100,"last_updated_at":1700000000}}`))
	}))
	defer cg.Close()

	dbPath := filepath.Join(t.TempDir(), "ow.db")
	cfg := loadConfig(t, fmt.Sprintf(`
[app]
color = false

[assets]
list = ["BTC"]

[oracles.coingecko]
enabled = true
base_url = %q
rate_per_sec = 100

[storage.sqlite]
enabled = true
path = %q

[history]
enabled = true
schedule = "@hourly"
`, cg.URL, dbPath))

	ctx, cancel := context.WithCancel(context.Background())
	sc, err := New(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = sc.Close() }()

	done := make(chan error, 1)
	go func() { done <- sc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(sc.Monitor.State().Comparison()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	rows := sc.Monitor.State().Comparison()
	assert.Equal(t, "BTC", rows[0].AssetDisplay)
	p, ok := rows[0].Price(domain.OracleCoinGecko)
	require.True(t, ok)
	require.NotNil(t, p.Price)
	assert.Equal(t, 100.0, *p.Price)

	// postgres disabled: alerts go to the in-memory log and the sqlite list
	a, err := sc.Alerts.CreateAlert(ctx, service.AlertInput{
		Asset: "BTC", Oracle: "CoinGecko", Threshold: "90", Type: "Below",
	})
	require.NoError(t, err)
	list, err := sc.Alerts.ListAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
