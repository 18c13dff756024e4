package composite

import (
	"context"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

// Cache fans latest-price writes out to every configured cache.
type Cache struct {
	caches []port.LatestCache
}

func NewCache(caches ...port.LatestCache) *Cache {
	// nil caches are allowed; filter in constructor for safety
	out := make([]port.LatestCache, 0, len(caches))
	for _, c := range caches {
		if c != nil {
			out = append(out, c)
		}
	}
	return &Cache{caches: out}
}

func (c *Cache) UpsertLatestPrice(ctx context.Context, oracle, asset string, price float64, ts int64) error {
	var firstErr error
	for _, cache := range c.caches {
		if err := cache.UpsertLatestPrice(ctx, oracle, asset, price, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Publisher fans comparison snapshots out to every configured publisher.
type Publisher struct {
	pubs []port.ComparisonPublisher
}

func NewPublisher(pubs ...port.ComparisonPublisher) *Publisher {
	out := make([]port.ComparisonPublisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	return &Publisher{pubs: out}
}

func (p *Publisher) PublishComparison(ctx context.Context, ts int64, rows []domain.ComparisonRow) error {
	var firstErr error
	for _, pub := range p.pubs {
		if err := pub.PublishComparison(ctx, ts, rows); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
