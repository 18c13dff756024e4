package port

import (
	"context"

	"oraclewatch/internal/domain"
)

// AlertLog is the remote append-only alert log. AppendAlert must be
// idempotent on the alert ID so an outbox replay never duplicates a record.
type AlertLog interface {
	AppendAlert(ctx context.Context, a domain.Alert) error
}

// LocalAlertStore is the device-local alert list plus its outbox.
type LocalAlertStore interface {
	// StageAlert appends the alert to the local list and marks it pending.
	StageAlert(ctx context.Context, a domain.Alert) error
	// CommitAlert marks a staged alert as synced to the remote log.
	CommitAlert(ctx context.Context, id string) error
	PendingAlerts(ctx context.Context) ([]domain.Alert, error)
	ListAlerts(ctx context.Context) ([]domain.Alert, error)
}

// HistoryLog stores price history snapshots ordered by creation time.
type HistoryLog interface {
	AppendSnapshot(ctx context.Context, s domain.HistorySnapshot) error
	// ListSnapshots returns snapshots created at or after since, oldest first.
	ListSnapshots(ctx context.Context, since int64, limit int) ([]domain.HistorySnapshot, error)
}

// LatestCache keeps the latest price per oracle and asset.
type LatestCache interface {
	UpsertLatestPrice(ctx context.Context, oracle, asset string, price float64, ts int64) error
}

// ComparisonPublisher fans a freshly built comparison out to live consumers.
type ComparisonPublisher interface {
	PublishComparison(ctx context.Context, ts int64, rows []domain.ComparisonRow) error
}
