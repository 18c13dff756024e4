package monitor

import (
	"sync"
	"time"

	"oraclewatch/internal/domain"
)

// SourceSnapshot is the outcome of one source fetch within a refresh.
type SourceSnapshot struct {
	Oracle    domain.Oracle `json:"oracle"`
	Feeds     []domain.Feed `json:"feeds"`
	Err       string        `json:"error,omitempty"`
	FetchedAt time.Time     `json:"fetchedAt"`
}

// State 保存最近一次刷新的结果；读取方拿到的都是副本
type State struct {
	mu sync.Mutex

	refreshedAt time.Time
	sources     []SourceSnapshot
	rows        []domain.ComparisonRow
}

func NewState() *State {
	return &State{}
}

// Replace swaps in the result of a complete refresh.
func (s *State) Replace(at time.Time, sources []SourceSnapshot, rows []domain.ComparisonRow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshedAt = at
	s.sources = sources
	s.rows = rows
}

func (s *State) RefreshedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshedAt
}

// Comparison returns a copy of the latest comparison rows.
func (s *State) Comparison() []domain.ComparisonRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ComparisonRow, len(s.rows))
	for i, r := range s.rows {
		r.Prices = append([]domain.OraclePrice(nil), r.Prices...)
		out[i] = r
	}
	return out
}

// Feeds returns the latest raw snapshot of one source.
func (s *State) Feeds(o domain.Oracle) (SourceSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, src := range s.sources {
		if src.Oracle == o {
			src.Feeds = append([]domain.Feed(nil), src.Feeds...)
			return src, true
		}
	}
	return SourceSnapshot{}, false
}

// LatestFeeds returns the refresh time and one feed slice per source.
func (s *State) LatestFeeds() (time.Time, [][]domain.Feed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]domain.Feed, len(s.sources))
	for i, src := range s.sources {
		out[i] = append([]domain.Feed(nil), src.Feeds...)
	}
	return s.refreshedAt, out
}
