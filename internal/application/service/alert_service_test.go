package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraclewatch/internal/domain"
)

type mockAlertLog struct {
	appended []domain.Alert
	err      error
}

func (m *mockAlertLog) AppendAlert(ctx context.Context, a domain.Alert) error {
	if m.err != nil {
		return m.err
	}
	for _, x := range m.appended {
		if x.ID == a.ID {
			return nil
		}
	}
	m.appended = append(m.appended, a)
	return nil
}

type mockLocalStore struct {
	alerts   []domain.Alert
	pending  map[string]bool
	stageErr error
}

func newMockLocalStore() *mockLocalStore {
	return &mockLocalStore{pending: make(map[string]bool)}
}

func (m *mockLocalStore) StageAlert(ctx context.Context, a domain.Alert) error {
	if m.stageErr != nil {
		return m.stageErr
	}
	m.alerts = append(m.alerts, a)
	m.pending[a.ID] = true
	return nil
}

func (m *mockLocalStore) CommitAlert(ctx context.Context, id string) error {
	delete(m.pending, id)
	return nil
}

func (m *mockLocalStore) PendingAlerts(ctx context.Context) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, a := range m.alerts {
		if m.pending[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockLocalStore) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	return append([]domain.Alert(nil), m.alerts...), nil
}

func newTestAlertService(remote *mockAlertLog, local *mockLocalStore) *AlertService {
	svc := NewAlertService(remote, local)
	n := 0
	svc.newID = func() string {
		n++
		return "alert-" + string(rune('0'+n))
	}
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func validInput() AlertInput {
	return AlertInput{
		Asset:     "BTC",
		Oracle:    "Pyth",
		Threshold: "70000",
		Type:      "Above",
		Notify:    domain.Notify{Email: "ops@example.com", Discord: "ops#1"},
	}
}

func TestCreateAlertZeroThresholdWritesNothing(t *testing.T) {
	remote, local := &mockAlertLog{}, newMockLocalStore()
	svc := newTestAlertService(remote, local)

	in := validInput()
	in.Threshold = "0"
	_, err := svc.CreateAlert(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrThresholdRequired)
	assert.Empty(t, remote.appended)
	assert.Empty(t, local.alerts)
}

func TestCreateAlertRoundTrip(t *testing.T) {
	remote, local := &mockAlertLog{}, newMockLocalStore()
	svc := newTestAlertService(remote, local)

	a, err := svc.CreateAlert(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "alert-1", a.ID)

	list, err := svc.ListAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, "BTC", got.Asset)
	assert.Equal(t, domain.OraclePyth, got.Oracle)
	assert.Equal(t, 70000.0, got.Threshold)
	assert.Equal(t, domain.AlertAbove, got.Type)
	assert.Equal(t, validInput().Notify, got.Notify)

	assert.Len(t, remote.appended, 1)
	assert.Empty(t, local.pending)
}

func TestCreateAlertLocalFailure(t *testing.T) {
	remote, local := &mockAlertLog{}, newMockLocalStore()
	local.stageErr = errors.New("disk full")
	svc := newTestAlertService(remote, local)

	_, err := svc.CreateAlert(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Empty(t, remote.appended)
}

func TestCreateAlertRemoteFailureThenResync(t *testing.T) {
	remote, local := &mockAlertLog{err: errors.New("unreachable")}, newMockLocalStore()
	svc := newTestAlertService(remote, local)

	_, err := svc.CreateAlert(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.Len(t, local.pending, 1)

	n, err := svc.Resync(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)

	remote.err = nil
	n, err = svc.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, local.pending)
	assert.Len(t, remote.appended, 1)

	n, err = svc.Resync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
