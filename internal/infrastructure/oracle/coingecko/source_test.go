package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraclewatch/internal/domain"
	"oraclewatch/internal/infrastructure/oracle"
)

func TestFetchFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,ethereum", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":65000.5,"last_updated_at":1740830400}}`))
	}))
	defer srv.Close()

	src := NewSource(oracle.NewClient(srv.URL+"/api/v3", 0, time.Second), []string{"BTC", "ETH", "PEPE"})
	feeds, err := src.FetchFeeds(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 3)

	assert.Equal(t, "BITCOIN", feeds[0].Asset)
	assert.Equal(t, domain.StatusActive, feeds[0].Status)
	require.NotNil(t, feeds[0].Price)
	assert.Equal(t, 65000.5, *feeds[0].Price)
	assert.Equal(t, int64(1740830400), feeds[0].Updated.Unix())
	assert.Equal(t, "BTC", domain.NormalizeAsset(feeds[0].Asset).Display)

	assert.Equal(t, "ETHEREUM", feeds[1].Asset)
	assert.Equal(t, domain.StatusFailed, feeds[1].Status)
	assert.Nil(t, feeds[1].Price)

	assert.Equal(t, "PEPE", feeds[2].Asset)
	assert.Equal(t, domain.StatusFailed, feeds[2].Status)
}

func TestFetchFeedsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewSource(oracle.NewClient(srv.URL, 0, time.Second), []string{"BTC"})
	_, err := src.FetchFeeds(context.Background())
	assert.Error(t, err)
}
