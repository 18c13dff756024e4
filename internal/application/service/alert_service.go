package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

// ErrPersistFailed 告警写入失败（本地或远端）
var ErrPersistFailed = errors.New("failed to persist alert")

// AlertInput is the raw user input for a new alert. Threshold is kept as text
// so that an empty field can be told apart from a zero value.
type AlertInput struct {
	Asset     string        `json:"asset"`
	Oracle    string        `json:"oracle"`
	Threshold string        `json:"threshold"`
	Type      string        `json:"type"`
	Notify    domain.Notify `json:"notify"`
}

// AlertService 告警服务：本地 outbox 先写，再写远端日志，最后标记已同步
type AlertService struct {
	remote port.AlertLog
	local  port.LocalAlertStore

	now   func() time.Time
	newID func() string
}

func NewAlertService(remote port.AlertLog, local port.LocalAlertStore) *AlertService {
	return &AlertService{
		remote: remote,
		local:  local,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// CreateAlert validates the input and records the alert. Validation errors are
// returned before anything is written. If the local write succeeds but the
// remote log does not, the alert stays pending in the outbox for Resync and
// the call still fails with ErrPersistFailed.
func (s *AlertService) CreateAlert(ctx context.Context, in AlertInput) (*domain.Alert, error) {
	a, err := domain.NewAlert(s.newID(), in.Asset, in.Oracle, in.Threshold, in.Type, in.Notify, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.local.StageAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("%w: local store: %w", ErrPersistFailed, err)
	}
	if err := s.remote.AppendAlert(ctx, a); err != nil {
		log.Warn().Err(err).Str("alert", a.ID).Msg("remote alert log write failed, left pending")
		return nil, fmt.Errorf("%w: remote log: %w", ErrPersistFailed, err)
	}
	if err := s.local.CommitAlert(ctx, a.ID); err != nil {
		// remote already has it; the next Resync re-appends idempotently
		log.Warn().Err(err).Str("alert", a.ID).Msg("outbox commit failed")
		return nil, fmt.Errorf("%w: outbox commit: %w", ErrPersistFailed, err)
	}

	log.Info().
		Str("alert", a.ID).
		Str("asset", a.Asset).
		Str("oracle", string(a.Oracle)).
		Str("type", string(a.Type)).
		Float64("threshold", a.Threshold).
		Msg("alert created")
	return &a, nil
}

// Resync replays pending outbox entries to the remote log and returns how many
// were synced. It stops at the first remote failure.
func (s *AlertService) Resync(ctx context.Context) (int, error) {
	pending, err := s.local.PendingAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending alerts: %w", err)
	}

	synced := 0
	for _, a := range pending {
		if err := s.remote.AppendAlert(ctx, a); err != nil {
			return synced, fmt.Errorf("resync alert %s: %w", a.ID, err)
		}
		if err := s.local.CommitAlert(ctx, a.ID); err != nil {
			return synced, fmt.Errorf("commit alert %s: %w", a.ID, err)
		}
		synced++
	}
	if synced > 0 {
		log.Info().Int("synced", synced).Msg("alert outbox resynced")
	}
	return synced, nil
}

// ListAlerts returns the local alert list in creation order.
func (s *AlertService) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	return s.local.ListAlerts(ctx)
}
