package redstone

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
		assert.Equal(t, "/prices", r.URL.Path)
		assert.Equal(t, "BTC,ETH,SOL", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{
			"BTC": {"symbol": "BTC", "value": 65010.25, "timestamp": 1740830400000},
			"ETH": {"symbol": "ETH", "value": 0, "timestamp": 1740830400000}
		}`))
	}))
	defer srv.Close()

	src := NewSource(oracle.NewClient(srv.URL, 0, time.Second), []string{"BTC", "ETH", "SOL"})
	feeds, err := src.FetchFeeds(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 3)

	assert.Equal(t, domain.StatusActive, feeds[0].Status)
	assert.Equal(t, 65010.25, *feeds[0].Price)
	assert.Equal(t, int64(1740830400000), feeds[0].Updated.UnixMilli())

	assert.Equal(t, domain.StatusFailed, feeds[1].Status, "zero value")
	assert.Equal(t, domain.StatusFailed, feeds[2].Status, "missing entry")
	for _, f := range feeds {
		assert.Equal(t, domain.OracleRedStone, f.Oracle)
	}
}

func TestFetchFeedsInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	src := NewSource(oracle.NewClient(srv.URL, 0, time.Second), []string{"BTC"})
	_, err := src.FetchFeeds(context.Background())
	assert.ErrorIs(t, err, oracle.ErrInvalidBody)
}
