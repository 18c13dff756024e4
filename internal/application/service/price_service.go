package service

import (
	"context"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

type PriceService struct {
	cache port.LatestCache
}

func NewPriceService(cache port.LatestCache) *PriceService {
	return &PriceService{cache: cache}
}

func (s *PriceService) UpdatePrice(ctx context.Context, oracle domain.Oracle, asset string, price float64, ts int64) error {
	return s.cache.UpsertLatestPrice(ctx, string(oracle), asset, price, ts)
}

// UpdateFeeds 写入一批 feed 的最新价格（按规范化后的币种），跳过没有价格的 feed
func (s *PriceService) UpdateFeeds(ctx context.Context, feeds []domain.Feed) error {
	var firstErr error
	for _, f := range feeds {
		if !f.HasPrice() {
			continue
		}
		asset := domain.NormalizeAsset(f.Asset).Display
		if err := s.UpdatePrice(ctx, f.Oracle, asset, *f.Price, f.Updated.UnixMilli()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
