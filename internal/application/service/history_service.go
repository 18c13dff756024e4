package service

import (
	"context"
	"fmt"
	"time"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

const defaultMaxPoints = 720

// HistoryService 价格历史：写入快照，按时间窗口读取序列
type HistoryService struct {
	log       port.HistoryLog
	maxPoints int
	now       func() time.Time
}

func NewHistoryService(log port.HistoryLog, maxPoints int) *HistoryService {
	if maxPoints <= 0 {
		maxPoints = defaultMaxPoints
	}
	return &HistoryService{log: log, maxPoints: maxPoints, now: time.Now}
}

func (s *HistoryService) Record(ctx context.Context, at time.Time, sources ...[]domain.Feed) (domain.HistorySnapshot, error) {
	snap := domain.NewHistorySnapshot(at, sources...)
	if err := s.log.AppendSnapshot(ctx, snap); err != nil {
		return snap, fmt.Errorf("append history snapshot: %w", err)
	}
	return snap, nil
}

// Series reads the snapshots inside the timeframe window, oldest first,
// capped at maxPoints, and aligns them into one series per oracle.
func (s *HistoryService) Series(ctx context.Context, asset string, tf domain.Timeframe) (domain.HistorySeries, error) {
	since := s.now().Add(-tf.Window()).UnixMilli()
	snaps, err := s.log.ListSnapshots(ctx, since, s.maxPoints)
	if err != nil {
		return domain.HistorySeries{}, fmt.Errorf("list history snapshots: %w", err)
	}
	return domain.BuildSeries(asset, snaps), nil
}
