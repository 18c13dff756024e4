package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

// AlertLog is an in-memory remote alert log, used when no database is configured.
type AlertLog struct {
	mu     sync.Mutex
	alerts []domain.Alert
	ids    map[string]struct{}
}

func NewAlertLog() *AlertLog {
	return &AlertLog{ids: make(map[string]struct{})}
}

func (l *AlertLog) AppendAlert(ctx context.Context, a domain.Alert) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.ids[a.ID]; ok {
		return nil
	}
	l.ids[a.ID] = struct{}{}
	l.alerts = append(l.alerts, a)
	return nil
}

func (l *AlertLog) Alerts() []domain.Alert {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Alert(nil), l.alerts...)
}

// HistoryLog is an in-memory price history log.
type HistoryLog struct {
	mu    sync.Mutex
	snaps []domain.HistorySnapshot
}

func NewHistoryLog() *HistoryLog {
	return &HistoryLog{}
}

func (h *HistoryLog) AppendSnapshot(ctx context.Context, s domain.HistorySnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snaps = append(h.snaps, s)
	return nil
}

func (h *HistoryLog) ListSnapshots(ctx context.Context, since int64, limit int) ([]domain.HistorySnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []domain.HistorySnapshot
	for _, s := range h.snaps {
		if s.Created >= since {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created < out[j].Created })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LocalAlertStore is an in-memory alert list with outbox state.
type LocalAlertStore struct {
	mu      sync.Mutex
	alerts  []domain.Alert
	pending map[string]bool
}

func NewLocalAlertStore() *LocalAlertStore {
	return &LocalAlertStore{pending: make(map[string]bool)}
}

func (s *LocalAlertStore) StageAlert(ctx context.Context, a domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[a.ID]; ok {
		return nil
	}
	s.alerts = append(s.alerts, a)
	s.pending[a.ID] = true
	return nil
}

func (s *LocalAlertStore) CommitAlert(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return fmt.Errorf("alert %s not staged", id)
	}
	s.pending[id] = false
	return nil
}

func (s *LocalAlertStore) PendingAlerts(ctx context.Context) ([]domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Alert
	for _, a := range s.alerts {
		if s.pending[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *LocalAlertStore) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Alert{}, s.alerts...), nil
}

var (
	_ port.AlertLog        = (*AlertLog)(nil)
	_ port.HistoryLog      = (*HistoryLog)(nil)
	_ port.LocalAlertStore = (*LocalAlertStore)(nil)
)
