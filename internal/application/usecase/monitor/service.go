package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/application/service"
	"oraclewatch/internal/domain"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPollInterval = time.Minute
	DefaultFetchTimeout = 15 * time.Second
)

type ServiceDeps struct {
	Sources      []Source
	PollInterval time.Duration
	FetchTimeout time.Duration
	Sink         port.Sink
	Formatter    *Formatter
	Prices       *service.PriceService
	Publisher    port.ComparisonPublisher
	Observer     Observer
}

type Service struct {
	deps    ServiceDeps
	st      *State
	refresh chan struct{}
}

func NewService(deps ServiceDeps) *Service {
	if deps.PollInterval <= 0 {
		deps.PollInterval = DefaultPollInterval
	}
	if deps.FetchTimeout <= 0 {
		deps.FetchTimeout = DefaultFetchTimeout
	}
	if deps.Formatter == nil {
		deps.Formatter = NewFormatter(true)
	}
	if deps.Prices == nil {
		deps.Prices = service.NewPriceService(NewNoopRepo())
	}
	if deps.Publisher == nil {
		deps.Publisher = NewNoopPublisher()
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	return &Service{
		deps:    deps,
		st:      NewState(),
		refresh: make(chan struct{}, 1),
	}
}

func (s *Service) State() *State { return s.st }

// Refresh requests a refresh. Requests made while one is already pending are
// merged into it.
func (s *Service) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Run refreshes once immediately and then on every poll tick or manual
// request until ctx is cancelled. Only one refresh runs at a time.
func (s *Service) Run(ctx context.Context) error {
	if len(s.deps.Sources) == 0 {
		return errors.New("no sources")
	}
	for _, src := range s.deps.Sources {
		log.Info().Str("source", string(src.Name())).Msg("source enabled")
	}

	ticker := time.NewTicker(s.deps.PollInterval)
	defer ticker.Stop()

	s.Refresh()
	for {
		select {
		case <-ctx.Done():
			if s.deps.Sink != nil {
				_ = s.deps.Sink.NewLine()
			}
			return ctx.Err()

		case <-ticker.C:
			s.Refresh()

		case <-s.refresh:
			s.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce fetches every source in parallel, rebuilds the comparison and
// publishes it. A failing source contributes no feeds and never blocks the
// others beyond FetchTimeout.
func (s *Service) RefreshOnce(ctx context.Context) []domain.ComparisonRow {
	started := time.Now()
	results := make([]SourceSnapshot, len(s.deps.Sources))

	var wg sync.WaitGroup
	for i, src := range s.deps.Sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			results[i] = s.fetch(ctx, src)
		}(i, src)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil
	}

	feeds := make([][]domain.Feed, len(results))
	for i, r := range results {
		feeds[i] = r.Feeds
	}
	rows := domain.BuildComparison(feeds...)
	now := time.Now()
	s.st.Replace(now, results, rows)
	s.deps.Observer.ObserveComparison(len(rows))

	if s.deps.Sink != nil {
		_ = s.deps.Sink.WriteSnapshot(now, s.deps.Formatter.Render(rows))
	}
	for _, r := range results {
		if err := s.deps.Prices.UpdateFeeds(ctx, r.Feeds); err != nil {
			log.Warn().Err(err).Str("source", string(r.Oracle)).Msg("latest price cache update failed")
		}
	}
	if err := s.deps.Publisher.PublishComparison(ctx, now.UnixMilli(), rows); err != nil {
		log.Warn().Err(err).Msg("publish comparison failed")
	}

	log.Debug().
		Int("rows", len(rows)).
		Dur("took", time.Since(started)).
		Msg("refresh done")
	return rows
}

func (s *Service) fetch(ctx context.Context, src Source) SourceSnapshot {
	fctx, cancel := context.WithTimeout(ctx, s.deps.FetchTimeout)
	defer cancel()

	start := time.Now()
	feeds, err := src.FetchFeeds(fctx)
	took := time.Since(start)
	s.deps.Observer.ObserveFetch(src.Name(), took, len(feeds), err)

	snap := SourceSnapshot{Oracle: src.Name(), FetchedAt: time.Now()}
	if err != nil {
		log.Warn().Err(err).Str("source", string(src.Name())).Dur("took", took).Msg("fetch failed")
		snap.Err = err.Error()
		return snap
	}
	snap.Feeds = feeds
	return snap
}
