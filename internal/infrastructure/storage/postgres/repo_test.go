package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraclewatch/internal/domain"
)

func newMockRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS alerts").WillReturnResult(sqlmock.NewResult(0, 0))
	repo, err := NewFromDB(context.Background(), sqlx.NewDb(db, "sqlmock"))
	require.NoError(t, err)
	return repo, mock
}

func TestAppendAlert(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO alerts(id, created, timestamp, doc)")).
		WithArgs("a1", created.UnixMilli(), "2025-03-01T12:00:00.000Z", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendAlert(context.Background(), domain.Alert{
		ID: "a1", Asset: "BTC", Oracle: domain.OraclePyth, Threshold: 1, Type: domain.AlertAbove, CreatedAt: created,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendAndListSnapshots(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := domain.NewHistorySnapshot(at, []domain.Feed{domain.ActiveFeed(domain.OraclePyth, "BTC", 100, at)})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO price_history(created, timestamp, doc)")).
		WithArgs(at.UnixMilli(), "2025-03-01T12:00:00Z", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.AppendSnapshot(context.Background(), snap))

	doc := `{"pyth":{"BTC":{"price":100,"status":"Active","updated":1740830400000}},"timestamp":"2025-03-01T12:00:00Z","created":1740830400000}`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT doc FROM price_history WHERE created >= $1 ORDER BY created ASC LIMIT $2")).
		WithArgs(int64(1740800000000), 720).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow([]byte(doc)))

	got, err := repo.ListSnapshots(context.Background(), 1740800000000, 720)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1740830400000), got[0].Created)
	assert.Equal(t, 100.0, *got[0].Oracles["pyth"]["BTC"].Price)
	require.NoError(t, mock.ExpectationsWereMet())
}
