package monitor

import (
	"context"
	"time"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

type noopRepo struct{}

func NewNoopRepo() port.LatestCache { return &noopRepo{} }

func (n *noopRepo) UpsertLatestPrice(ctx context.Context, oracle, asset string, price float64, ts int64) error {
	return nil
}

type noopPublisher struct{}

func NewNoopPublisher() port.ComparisonPublisher { return &noopPublisher{} }

func (n *noopPublisher) PublishComparison(ctx context.Context, ts int64, rows []domain.ComparisonRow) error {
	return nil
}

type noopObserver struct{}

func (noopObserver) ObserveFetch(domain.Oracle, time.Duration, int, error) {}
func (noopObserver) ObserveComparison(int)                                 {}
