package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraclewatch/internal/domain"
)

type fakeSource struct {
	name  domain.Oracle
	feeds []domain.Feed
	err   error
	block bool

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Name() domain.Oracle { return f.name }

func (f *fakeSource) FetchFeeds(ctx context.Context) ([]domain.Feed, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.feeds, f.err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type captureSink struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureSink) WriteSnapshot(ts time.Time, line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	return nil
}

func (c *captureSink) NewLine() error { return nil }

type capturePublisher struct {
	mu   sync.Mutex
	rows [][]domain.ComparisonRow
}

func (p *capturePublisher) PublishComparison(ctx context.Context, ts int64, rows []domain.ComparisonRow) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows = append(p.rows, rows)
	return nil
}

func (p *capturePublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rows)
}

func feedsAt(o domain.Oracle, prices map[string]float64) []domain.Feed {
	now := time.Now()
	var out []domain.Feed
	for a, p := range prices {
		out = append(out, domain.ActiveFeed(o, a, p, now))
	}
	return out
}

func TestRefreshOnceSourceFailureKeepsOthers(t *testing.T) {
	a := &fakeSource{name: domain.OracleCoinGecko, feeds: feedsAt(domain.OracleCoinGecko, map[string]float64{"BITCOIN": 100, "ETHEREUM": 2480.12})}
	b := &fakeSource{name: domain.OracleRedStone, feeds: feedsAt(domain.OracleRedStone, map[string]float64{"BTC": 102, "ETH": 2479.5})}
	c := &fakeSource{name: domain.OraclePyth, err: errors.New("503")}
	sink := &captureSink{}
	pub := &capturePublisher{}

	svc := NewService(ServiceDeps{
		Sources:   []Source{a, b, c},
		Sink:      sink,
		Publisher: pub,
		Formatter: NewFormatter(false),
	})
	rows := svc.RefreshOnce(context.Background())

	require.Len(t, rows, 2)
	for _, r := range rows {
		_, okA := r.Price(domain.OracleCoinGecko)
		_, okB := r.Price(domain.OracleRedStone)
		_, okC := r.Price(domain.OraclePyth)
		assert.True(t, okA, r.AssetDisplay)
		assert.True(t, okB, r.AssetDisplay)
		assert.False(t, okC, r.AssetDisplay)
		assert.True(t, r.Classified)
	}

	snap, ok := svc.State().Feeds(domain.OraclePyth)
	require.True(t, ok)
	assert.Equal(t, "503", snap.Err)
	assert.Empty(t, snap.Feeds)

	assert.Len(t, svc.State().Comparison(), 2)
	assert.Equal(t, 1, pub.Count())
	require.Len(t, sink.lines, 1)
	assert.True(t, strings.HasPrefix(sink.lines[0], "[ORACLE] BTC CG:100.0000 RS:102.0000"), sink.lines[0])
}

func TestRefreshOnceTimeoutDoesNotStall(t *testing.T) {
	a := &fakeSource{name: domain.OracleCoinGecko, feeds: feedsAt(domain.OracleCoinGecko, map[string]float64{"BTC": 1})}
	hung := &fakeSource{name: domain.OraclePyth, block: true}

	svc := NewService(ServiceDeps{
		Sources:      []Source{a, hung},
		FetchTimeout: 20 * time.Millisecond,
	})

	done := make(chan []domain.ComparisonRow, 1)
	go func() { done <- svc.RefreshOnce(context.Background()) }()

	select {
	case rows := <-done:
		require.Len(t, rows, 1)
		assert.False(t, rows[0].Classified)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh stalled on hung source")
	}
}

func TestRunRefreshesImmediatelyAndStops(t *testing.T) {
	a := &fakeSource{name: domain.OracleCoinGecko, feeds: feedsAt(domain.OracleCoinGecko, map[string]float64{"BTC": 1})}
	pub := &capturePublisher{}
	svc := NewService(ServiceDeps{
		Sources:      []Source{a},
		PollInterval: time.Hour,
		Publisher:    pub,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.Count() >= 1 }, 2*time.Second, 5*time.Millisecond)

	svc.Refresh()
	require.Eventually(t, func() bool { return pub.Count() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRefreshCoalesces(t *testing.T) {
	svc := NewService(ServiceDeps{Sources: []Source{&fakeSource{name: domain.OraclePyth}}})
	svc.Refresh()
	svc.Refresh()
	svc.Refresh()
	assert.Len(t, svc.refresh, 1)
}

func TestRunWithoutSources(t *testing.T) {
	svc := NewService(ServiceDeps{})
	assert.Error(t, svc.Run(context.Background()))
}
