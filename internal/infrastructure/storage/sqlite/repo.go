package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

const alertsKey = "alerts"

const (
	outboxPending = "pending"
	outboxSynced  = "synced"
)

// Repo is the device-local store: a key/value table whose "alerts" key holds
// the JSON alert list, the alert outbox, and the latest price per source.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db, now: time.Now}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS alert_outbox (
  id TEXT PRIMARY KEY,
  payload TEXT NOT NULL,
  status TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  synced_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_outbox_status ON alert_outbox(status, created_at);

CREATE TABLE IF NOT EXISTS prices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  oracle TEXT NOT NULL,
  asset TEXT NOT NULL,
  price REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE(oracle, asset)
);
CREATE INDEX IF NOT EXISTS idx_prices_asset ON prices(asset);
`)
	return err
}

// StageAlert appends the alert to the local list and records it as pending in
// the outbox, in one transaction. Staging an ID twice is a no-op.
func (r *Repo) StageAlert(ctx context.Context, a domain.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	now := r.now().UnixMilli()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO alert_outbox(id, payload, status, created_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, a.ID, string(payload), outboxPending, now)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	list, err := readAlerts(ctx, tx)
	if err != nil {
		return err
	}
	list = append(list, a)
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO kv(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
	`, alertsKey, string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) CommitAlert(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE alert_outbox SET status=?, synced_at=? WHERE id=?`,
		outboxSynced, r.now().UnixMilli(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("alert %s not staged", id)
	}
	return nil
}

func (r *Repo) PendingAlerts(ctx context.Context) ([]domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM alert_outbox WHERE status=? ORDER BY created_at, rowid`, outboxPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var a domain.Alert
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) ListAlerts(ctx context.Context) ([]domain.Alert, error) {
	return readAlerts(ctx, r.db)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readAlerts(ctx context.Context, q queryer) ([]domain.Alert, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key=?`, alertsKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Alert{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []domain.Alert
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", alertsKey, err)
	}
	return list, nil
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, oracle, asset string, price float64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prices(oracle, asset, price, ts_ms, created_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(oracle, asset) DO UPDATE SET
		price=excluded.price, ts_ms=excluded.ts_ms
	`, oracle, asset, price, ts, r.now().UnixMilli())
	return err
}

// LatestPrice reads back one cached price.
func (r *Repo) LatestPrice(ctx context.Context, oracle, asset string) (price float64, ts int64, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT price, ts_ms FROM prices WHERE oracle=? AND asset=?`, oracle, asset).
		Scan(&price, &ts)
	return
}

var (
	_ port.LocalAlertStore = (*Repo)(nil)
	_ port.LatestCache     = (*Repo)(nil)
)
