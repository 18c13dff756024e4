package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"oraclewatch/internal/domain"
)

const DefaultHistorySchedule = "@hourly"

// FeedSnapshotter exposes the feeds of the most recent refresh, one slice per
// source. A zero time means no refresh has completed yet.
type FeedSnapshotter interface {
	LatestFeeds() (time.Time, [][]domain.Feed)
}

// HistoryRecorder 按 cron 表达式定时把最新一次刷新的价格写入历史
type HistoryRecorder struct {
	history  *HistoryService
	src      FeedSnapshotter
	schedule string
}

func NewHistoryRecorder(history *HistoryService, src FeedSnapshotter, schedule string) *HistoryRecorder {
	if schedule == "" {
		schedule = DefaultHistorySchedule
	}
	return &HistoryRecorder{history: history, src: src, schedule: schedule}
}

// Start registers the schedule and returns; the cron runner stops with ctx.
func (r *HistoryRecorder) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() {
		if _, err := r.RecordNow(ctx); err != nil {
			log.Warn().Err(err).Msg("history record failed")
		}
	}); err != nil {
		return err
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	log.Info().Str("schedule", r.schedule).Msg("history recorder started")
	return nil
}

// RecordNow writes the latest refresh to the history log. It reports false
// when there is nothing to record yet.
func (r *HistoryRecorder) RecordNow(ctx context.Context) (bool, error) {
	at, sources := r.src.LatestFeeds()
	if at.IsZero() {
		log.Debug().Msg("no refresh yet, skipping history record")
		return false, nil
	}
	snap, err := r.history.Record(ctx, at, sources...)
	if err != nil {
		return false, err
	}
	log.Debug().Str("timestamp", snap.Timestamp).Int("oracles", len(snap.Oracles)).Msg("history recorded")
	return true, nil
}
