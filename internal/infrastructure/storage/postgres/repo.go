package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/domain"
)

// Repo is the remote append-only log. Every row carries a sortable created
// (unix ms), an ISO timestamp and the JSON document.
type Repo struct {
	db *sqlx.DB
}

func New(ctx context.Context, dsn string) (*Repo, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	r, err := NewFromDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewFromDB wraps an open handle and ensures the schema exists.
func NewFromDB(ctx context.Context, db *sqlx.DB) (*Repo, error) {
	r := &Repo{db: db}
	if err := r.migrate(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS alerts (
  id TEXT PRIMARY KEY,
  created BIGINT NOT NULL,
  timestamp TEXT NOT NULL,
  doc JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts(created);

CREATE TABLE IF NOT EXISTS price_history (
  id BIGSERIAL PRIMARY KEY,
  created BIGINT NOT NULL,
  timestamp TEXT NOT NULL,
  doc JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_created ON price_history(created);
`)
	return err
}

// AppendAlert is idempotent on the alert id.
func (r *Repo) AppendAlert(ctx context.Context, a domain.Alert) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO alerts(id, created, timestamp, doc) VALUES($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`, a.ID, a.CreatedAt.UnixMilli(), a.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"), string(doc))
	return err
}

func (r *Repo) AppendSnapshot(ctx context.Context, s domain.HistorySnapshot) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO price_history(created, timestamp, doc) VALUES($1, $2, $3)`,
		s.Created, s.Timestamp, string(doc))
	return err
}

type docRow struct {
	Doc []byte `db:"doc"`
}

func (r *Repo) ListSnapshots(ctx context.Context, since int64, limit int) ([]domain.HistorySnapshot, error) {
	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT doc FROM price_history WHERE created >= $1 ORDER BY created ASC LIMIT $2`,
		since, limit); err != nil {
		return nil, err
	}

	out := make([]domain.HistorySnapshot, 0, len(rows))
	for _, row := range rows {
		var s domain.HistorySnapshot
		if err := json.Unmarshal(row.Doc, &s); err != nil {
			return nil, fmt.Errorf("decode price_history doc: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

var (
	_ port.AlertLog   = (*Repo)(nil)
	_ port.HistoryLog = (*Repo)(nil)
)
